package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/cache"
	"github.com/xrsl/cvago/pkg/style"
)

var rmAll bool

var rmCmd = &cobra.Command{
	Use:   "rm [key...]",
	Short: "Remove stored position analyses",
	Long: `Delete analyses kept under .cvago/analysis by the first characters of
their key (see "cvago list"), or all of them with --all.

Examples:
  cvago rm 3fa2c1
  cvago rm --all`,
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVar(&rmAll, "all", false, "Remove every stored analysis")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if rmAll {
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(w, style.Success("Removed")+"all analyses")
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("name an analysis key or use --all")
	}

	for _, prefix := range args {
		key, s, err := cache.Find(prefix)
		if err != nil {
			return err
		}
		if err := cache.Remove(key); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s %s\n", style.Success("Removed"), style.Command(key[:8]), truncate(firstLine(s.Summary), 50))
	}
	return nil
}
