package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/api"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/style"
)

var (
	quiet     bool
	verbose   bool
	logFormat string
	apiURL    string
)

var rootCmd = &cobra.Command{
	Use:   "cvago",
	Short: "Edit your profile and adapt your résumé to a position",
	Long: `cvago is the client of a résumé adaptation server.

Keep a structured profile (experience, facts, skills, strategy), paste a job
description to get a summary and a match assessment, and generate a résumé
adapted to the position once the match is approved.

Every step is a subcommand; "cvago console" runs the whole workflow in an
interactive terminal view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		clog.SetVerbose(verbose)
		if quiet {
			clog.SetQuiet(true)
		}
		return clog.SetFormat(logFormat)
	},
}

func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.Failure("Error")+errorText(err))
		os.Exit(exitCode(err))
	}
}

// errorText is the message shown for err. Server errors already carry a
// readable message.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d)", err, apiErr.Status)
	}
	return err.Error()
}

func exitCode(err error) int {
	if errors.Is(err, errNotApproved) {
		return 3
	}
	return 1
}

func init() {
	// Setup Typer-style help formatting
	style.SetupHelp(rootCmd)

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Server URL (overrides the api_url setting)")
}
