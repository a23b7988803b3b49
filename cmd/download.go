package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/style"
)

var (
	downloadInline bool
	downloadDir    string
	downloadURL    bool
)

var downloadCmd = &cobra.Command{
	Use:     "download <filename>...",
	Aliases: []string{"dl"},
	Short:   "Download generated résumé files",
	Long: `Download files produced by "cvago generate" into the download directory
(the download_dir setting unless -o is given). --url only prints the links.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		out := cmd.OutOrStdout()
		if downloadURL {
			for _, name := range args {
				fmt.Fprintln(out, client.DownloadURL(name, downloadInline))
			}
			return nil
		}

		dir := downloadDir
		if dir == "" {
			dir = cfg.DownloadDir
		}
		for _, name := range args {
			path, n, err := client.DownloadTo(ctx, name, dir, downloadInline)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s%s %s\n", style.Success("Downloaded"), path, style.Muted(fmt.Sprintf("(%d bytes)", n)))
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadInline, "inline", false, "Request the inline (preview) variant")
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", "", "Directory to write to (default: download_dir)")
	downloadCmd.Flags().BoolVar(&downloadURL, "url", false, "Print the download links instead")
	rootCmd.AddCommand(downloadCmd)
}
