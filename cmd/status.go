package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/workflow"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local draft and the last analysis",
	Long: `Show where the workflow stands without calling the server: the server
this directory talks to, whether a local draft is pending, and the last
analyzed position with its match and generation gate.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, style.Field("Server", cfg.APIURL))
	fmt.Fprintln(w, style.Field("Language", cfg.Language))

	d, ok, err := loadDraft()
	switch {
	case err != nil:
		fmt.Fprintln(w, style.Field("Draft", style.Bad(err.Error())))
	case ok:
		issues := profile.Validate(d)
		state := style.Warn("unsaved changes")
		if profile.HasErrors(issues) {
			state = style.Bad(fmt.Sprintf("unsaved, %d problem(s)", len(issues)))
		}
		fmt.Fprintln(w, style.Field("Draft", state+style.Muted(" (cvago profile save)")))
	default:
		fmt.Fprintln(w, style.Field("Draft", style.Muted("none")))
	}

	key, s, err := cache.Latest()
	if errors.Is(err, cache.ErrNoSession) {
		fmt.Fprintln(w, style.Field("Analysis", style.Muted("none (cvago analyze)")))
		return nil
	}
	if err != nil {
		return err
	}
	printSession(w, key, s)
	return nil
}

func printSession(w io.Writer, key string, s workflow.Session) {
	when := ""
	if !s.AnalyzedAt.IsZero() {
		when = style.Muted(" " + s.AnalyzedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, style.Field("Analysis", key[:min(8, len(key))]+when))
	fmt.Fprintln(w, style.Field("Position", truncate(firstLine(s.Summary), 60)))
	switch m := s.Match; {
	case m == nil:
		fmt.Fprintln(w, style.Field("Match", style.Muted("skipped")))
	case m.Approved:
		fmt.Fprintln(w, style.Field("Match", style.Good(fmt.Sprintf("approved (%.0f/%.0f)", m.Score, m.Threshold))))
	default:
		fmt.Fprintln(w, style.Field("Match", style.Warn(fmt.Sprintf("not approved (%.0f/%.0f)", m.Score, m.Threshold))))
	}
	switch {
	case s.Overridden:
		fmt.Fprintln(w, style.Field("Generate", style.Warn("allowed by override")))
	case s.CanGenerate:
		fmt.Fprintln(w, style.Field("Generate", style.Good("allowed")))
	default:
		fmt.Fprintln(w, style.Field("Generate", style.Muted("blocked (cvago generate --force)")))
	}
}
