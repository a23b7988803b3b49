package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/workflow"
)

// errNotApproved makes the process exit with code 3.
var errNotApproved = errors.New("generation not allowed: the match is not approved")

var (
	generateLang     string
	generateForce    bool
	generateDownload bool
	generateAnalysis string
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate the adapted résumé for the last analyzed position",
	Long: `Ask the server to adapt your saved profile to the last analyzed position,
or to the one --analysis names (see "cvago list").

Generation needs an approved match. --force generates anyway and is
remembered for that analysis. The result names a PDF and a DOCX file;
--download fetches them into the download directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, session, err := cache.Find(generateAnalysis)
		if err != nil {
			return err
		}

		client := newClient(cfg)
		o := newOrchestrator(cfg, client, profile.NewStore())
		o.Restore(session)
		if generateForce && !o.Snapshot().CanGenerate {
			o.Override()
			if s, ok := o.Session(); ok {
				if err := cache.Write(key, s); err != nil {
					clog.Warn("could not remember the override", "error", err)
				}
			}
		}

		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), style.Muted("Generating résumé…"))
		}
		err = o.Generate(ctx, generateLang)
		if errors.Is(err, workflow.ErrNotAllowed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s Run %s to generate anyway.\n",
				style.Warn("Advisory:"), "The last analyzed position has no approved match.",
				style.Command("cvago generate --force"))
			return errNotApproved
		}
		if err != nil {
			return err
		}

		result := o.Snapshot().Generate.Result
		if result.Summary != "" {
			fmt.Fprintf(out, "%s\n%s\n\n", style.Heading("Adapted résumé"), result.Summary)
		}
		for _, f := range result.Files() {
			if !generateDownload {
				fmt.Fprintf(out, "%s %s\n", style.Field("File", f), style.Muted(client.DownloadURL(f, false)))
				continue
			}
			path, _, err := client.DownloadTo(ctx, f, cfg.DownloadDir, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s%s\n", style.Success("Downloaded"), path)
		}
		if len(result.Files()) > 0 && !generateDownload {
			fmt.Fprintf(out, "\nRun %s to fetch them.\n", style.Command("cvago download <file>"))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateLang, "lang", "l", "", "Résumé language: es or en (default: the analysis language)")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Generate even though the match is not approved")
	generateCmd.Flags().StringVarP(&generateAnalysis, "analysis", "a", "", "Key prefix of a stored analysis (default: the latest)")
	generateCmd.Flags().BoolVarP(&generateDownload, "download", "d", false, "Download the generated files")
	rootCmd.AddCommand(generateCmd)
}
