package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/cache"
	"github.com/xrsl/cvago/pkg/jobpost"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/workflow"
)

var (
	analyzeFile        string
	analyzeURL         string
	analyzeServerFetch bool
	analyzeJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [job description...]",
	Aliases: []string{"a"},
	Short:   "Summarize a position and assess your profile against it",
	Long: `Summarize a job description and, when a profile is saved, assess how well
it matches. An approved match opens generation; otherwise run
"cvago generate --force" to generate anyway.

The description comes from the arguments, --file, stdin ("-") or --url.
--url fetches the posting here and extracts its text; with --server-fetch
the server fetches it instead.

The result is kept under .cvago/analysis so "cvago generate" can use it.

Examples:
  cvago analyze --file posting.txt
  pbpaste | cvago analyze -
  cvago analyze --url https://jobs.example.com/123`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var req api.SummaryRequest
	switch {
	case analyzeURL != "" && analyzeServerFetch:
		req.URL = analyzeURL
	case analyzeURL != "":
		clog.Info("fetching posting", "url", analyzeURL)
		text, err := jobpost.New("cvago/"+Version).Fetch(ctx, analyzeURL)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", analyzeURL, err)
		}
		req.Text = text
	default:
		if req.Text, err = readText(analyzeFile, args, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	client := newClient(cfg)
	o := newOrchestrator(cfg, client, profile.NewStore())
	hasProfile, err := fetchCommitted(ctx, o)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	if !hasProfile {
		clog.Warn("no saved profile, only the summary will be produced")
	}

	stderr := cmd.ErrOrStderr()
	var label string
	o.SetListener(func(s workflow.Snapshot) {
		if s.Label != "" && s.Label != label && !quiet {
			fmt.Fprintln(stderr, style.Muted(s.Label))
		}
		label = s.Label
	})

	analyzeErr := o.AnalyzePosition(ctx, req)
	if errors.Is(analyzeErr, workflow.ErrEmptyInput) {
		return analyzeErr
	}

	// A summary is worth keeping even when the match failed.
	if session, ok := o.Session(); ok {
		input := req.Text
		if input == "" {
			input = req.URL
		}
		key := cache.Key(cfg.APIURL, input)
		if err := cache.Write(key, session); err != nil {
			clog.Warn("could not keep the analysis", "error", err)
		} else {
			clog.Debug("analysis stored", "path", cache.Path(key))
		}
		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(session); err != nil {
				return err
			}
			return analyzeErr
		}
	}

	snap := o.Snapshot()
	if snap.SummaryText() == "" {
		return analyzeErr
	}
	printSnapshot(cmd.OutOrStdout(), snap)
	return analyzeErr
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the job description from a file (- for stdin)")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Fetch the job posting from a URL")
	analyzeCmd.Flags().BoolVar(&analyzeServerFetch, "server-fetch", false, "Let the server fetch --url")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the analysis as JSON")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(analyzeCmd)
}
