package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/config"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cvago configuration",
	Long: `Interactive setup wizard or direct config access.

Run without subcommand for interactive setup:
  cvago config

Or use subcommands:
  cvago config list
  cvago config get <key>
  cvago config set <key> <value>
  cvago config unset <key>

Every key can also come from the environment: CVAGO_API_URL, CVAGO_LANGUAGE...`,
	Args: cobra.NoArgs,
	RunE: runConfigWizard,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value.

Keys:
  api_url                Backend base URL (http://localhost:8000)
  language               Default résumé language: es or en
  summary_timeout        Cap on the position summary (60s)
  saved_indicator_delay  How long "Saved" stays visible in the console (3s)
  request_timeout        Cap on profile fetches and downloads (120s)
  download_dir           Where generated files are downloaded (.)
  profile_path           Default file for "cvago profile fetch"

Examples:
  cvago config set api_url https://cv.example.com
  cvago config set language en
  cvago config set summary_timeout 90s`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return err
		}
		stored, _ := config.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a config value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "(not set)")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), value)
		}
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Remove a config value so its default applies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Unset(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := config.All()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "\n%s\n%s\n\n", style.Heading("cvago config"), style.Muted(config.Path()))
		for _, k := range config.Keys {
			printConfigRow(w, k, all[k])
		}
		fmt.Fprintln(w)
		return nil
	},
}

func printConfigRow(w io.Writer, key, value string) {
	if value == "" {
		fmt.Fprintf(w, "  %-22s %s\n", key, style.Muted("(not set)"))
		return
	}
	fmt.Fprintf(w, "  %-22s %s\n", key, style.Good(value))
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

// ask prints a prompt and returns the trimmed answer, or current when the
// answer is empty.
func ask(r *bufio.Reader, w io.Writer, prompt, current string) string {
	fmt.Fprintf(w, "%s %s %s: ", style.Good("?"), prompt, style.Muted("("+current+")"))
	input, _ := r.ReadString('\n')
	if input = strings.TrimSpace(input); input == "" {
		return current
	}
	return input
}

func runConfigWizard(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	w := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n\n", style.Heading("cvago setup"))

	// Step 1: backend
	for {
		url := ask(reader, w, "Backend URL", cfg.APIURL)
		if err := config.Validate("api_url", url); err != nil {
			fmt.Fprintf(w, "  %s\n", err)
			continue
		}
		if url != cfg.APIURL {
			if err := config.Set("api_url", url); err != nil {
				return err
			}
		}
		break
	}

	// Step 2: résumé language
	langs := []string{"es", "en"}
	current := 1
	if cfg.Language == "en" {
		current = 2
	}
	fmt.Fprintf(w, "%s Résumé language\n", style.Good("?"))
	for i, l := range langs {
		marker := "   "
		if i+1 == current {
			marker = "  " + style.Good("→")
		}
		fmt.Fprintf(w, "%s%d) %s\n", marker, i+1, l)
	}
	choice := ask(reader, w, "Choice", strconv.Itoa(current))
	if idx, err := strconv.Atoi(choice); err == nil && idx >= 1 && idx <= len(langs) && idx != current {
		if err := config.Set("language", langs[idx-1]); err != nil {
			return err
		}
	}

	// Step 3: download directory
	dir := ask(reader, w, "Download directory", cfg.DownloadDir)
	if dir != cfg.DownloadDir {
		if err := config.Set("download_dir", dir); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	if err := utils.EnsureStateDir(); err != nil {
		fmt.Fprintf(w, "  Warning: could not initialize %s/: %v\n", utils.StateDir, err)
	}

	fmt.Fprintf(w, "%s Try: %s\n\n", style.Good("Ready!"), style.Command("cvago doctor"))
	return nil
}
