package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	"github.com/xrsl/cvago/pkg/style"
)

var (
	viewJD   bool
	viewJSON bool
)

var viewCmd = &cobra.Command{
	Use:   "view [key]",
	Short: "Show a stored position analysis",
	Long: `Print a stored analysis: the position summary, the match assessment and
the generation gate. Without a key the latest analysis is shown.

Examples:
  cvago view
  cvago view 3fa2c1 --jd`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVar(&viewJD, "jd", false, "Also print the job description")
	viewCmd.Flags().BoolVar(&viewJSON, "json", false, "Print the analysis as JSON")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	key, s, err := cache.Find(prefix)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if viewJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	printSession(w, key, s)
	fmt.Fprintf(w, "\n%s\n%s\n", style.Heading("Position summary"), s.Summary)
	if s.Match != nil {
		fmt.Fprintln(w)
		printMatch(w, *s.Match)
	}
	if viewJD && s.JD != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", style.Heading("Job description"), s.JD)
	}
	return nil
}
