package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	"github.com/xrsl/cvago/pkg/style"
)

var (
	listLimit int
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored position analyses",
	Long: `List the analyses kept under .cvago/analysis, newest first.

The latest one is marked with *; "cvago generate" uses it unless
--analysis names another by the first characters of its key.

Examples:
  cvago list
  cvago list -n 5
  cvago generate --analysis 3fa2c1`,
	Args: cobra.NoArgs,
	RunE: runList,
}

type listRow struct {
	Key         string  `json:"key"`
	Latest      bool    `json:"latest"`
	AnalyzedAt  string  `json:"analyzed_at,omitempty"`
	Summary     string  `json:"summary"`
	Approved    *bool   `json:"approved,omitempty"`
	Score       float64 `json:"score,omitempty"`
	CanGenerate bool    `json:"can_generate"`
	Overridden  bool    `json:"overridden"`
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := cache.List()
	if err != nil {
		return err
	}
	if listLimit > 0 && len(entries) > listLimit {
		entries = entries[:listLimit]
	}

	rows := make([]listRow, 0, len(entries))
	for _, e := range entries {
		r := listRow{
			Key:         e.Key,
			Latest:      e.Latest,
			Summary:     e.Session.Summary,
			CanGenerate: e.Session.CanGenerate,
			Overridden:  e.Session.Overridden,
		}
		if !e.Session.AnalyzedAt.IsZero() {
			r.AnalyzedAt = e.Session.AnalyzedAt.Local().Format("2006-01-02 15:04")
		}
		if m := e.Session.Match; m != nil {
			approved := m.Approved
			r.Approved, r.Score = &approved, m.Score
		}
		rows = append(rows, r)
	}

	w := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No analyses yet. Run: "+style.Command("cvago analyze"))
		return nil
	}
	printListTable(w, rows)
	return nil
}

func printListTable(w io.Writer, rows []listRow) {
	fmt.Fprintln(w, style.B(fmt.Sprintf("  %-8s | %-16s | %-13s | %s", "Key", "Analyzed", "Match", "Summary")))
	fmt.Fprintln(w, style.Muted("  ---------+------------------+---------------+----------------------------------------"))
	for _, r := range rows {
		mark := " "
		if r.Latest {
			mark = style.Good("*")
		}
		match := "no profile"
		switch {
		case r.Approved != nil && *r.Approved:
			match = fmt.Sprintf("approved %.0f", r.Score)
		case r.Approved != nil:
			match = fmt.Sprintf("not approved %.0f", r.Score)
		}
		if r.Overridden {
			match = "overridden"
		}
		fmt.Fprintf(w, "%s %-8s | %-16s | %-13s | %s\n", mark, r.Key[:min(8, len(r.Key))], r.AnalyzedAt, match, truncate(firstLine(r.Summary), 40))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most n analyses")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the analyses as JSON")
	rootCmd.AddCommand(listCmd)
}
