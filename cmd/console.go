package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/tui"
	"github.com/xrsl/cvago/pkg/utils"
	"github.com/xrsl/cvago/pkg/workflow"
)

var consoleFresh bool

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Run the whole workflow in an interactive terminal view",
	Long: `Open the three step console: edit the profile, analyze a position and
generate the adapted résumé.

The local draft and the last analysis are picked up, so the console and the
other commands share the same state. Logs go to .cvago/console.log.

Keys:
  1 2 3        switch steps
  enter/space  open a section or experience
  tab          edit the fields of the open section
  ctrl+s       save the profile
  ctrl+r       analyze the description
  g            generate, o override the match, d download
  q, ctrl+c    quit`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the console while it runs.
	restore, err := clog.ToFile(utils.StatePath("console.log"))
	if err != nil {
		return err
	}
	defer restore()

	client := newClient(cfg)
	o := newOrchestrator(cfg, client, profile.NewStore())

	if d, ok, err := loadDraft(); err != nil {
		return err
	} else if ok {
		o.ReplaceDraft(profile.NormalizeMetrics(d))
	}
	if !consoleFresh {
		if _, session, err := cache.Latest(); err == nil {
			o.Restore(session)
		} else if !errors.Is(err, cache.ErrNoSession) {
			clog.Warn("could not read the last analysis", "error", err)
		}
	}

	err = tui.Run(ctx, o, tui.Options{
		Downloader:  client,
		DownloadDir: cfg.DownloadDir,
		OnSession: func(s workflow.Session) {
			key := cache.Key(cfg.APIURL, s.JD)
			if err := cache.Write(key, s); err != nil {
				clog.Warn("could not keep the analysis", "error", err)
			}
		},
	})

	// Unsaved edits survive the session as the local draft.
	if d, ok := o.Store().Draft(); ok {
		if werr := writeDraft(d); werr != nil {
			return errors.Join(err, fmt.Errorf("keeping the draft: %w", werr))
		}
	} else if rerr := removeDraft(); rerr != nil {
		clog.Warn("could not remove the local draft", "error", rerr)
	}
	return err
}

func init() {
	consoleCmd.Flags().BoolVar(&consoleFresh, "fresh", false, "Start without the last analysis")
	rootCmd.AddCommand(consoleCmd)
}
