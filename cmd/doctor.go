package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/config"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/retry"
	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/utils"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the cvago setup",
	Long:  `Verify the configuration, the backend and the local state cvago needs.`,
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkLevel int

const (
	checkOK checkLevel = iota
	checkWarn
	checkFail
)

type checkResult struct {
	name   string
	level  checkLevel
	detail string
	hint   string
}

type check struct {
	name string
	run  func(ctx context.Context, cfg *config.Config) checkResult
}

var doctorChecks = []check{
	{"config", checkConfig},
	{"backend", checkBackend},
	{"profile", checkProfile},
	{"state", checkStateDir},
	{"downloads", checkDownloadDir},
	{"editor", checkEditor},
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s Checking cvago setup\n\n", style.Command("→"))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "%s config: %v\n", style.Bad("✗"), err)
		return fmt.Errorf("setup issues detected")
	}

	// Each check writes only its own slot.
	results := make([]checkResult, len(doctorChecks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range doctorChecks {
		i, c := i, c
		g.Go(func() error {
			r := c.run(gctx, cfg)
			r.name = c.name
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := false
	for _, r := range results {
		mark := style.Good("✓")
		switch r.level {
		case checkWarn:
			mark = style.Warn("⚠")
		case checkFail:
			mark = style.Bad("✗")
			failed = true
		}
		fmt.Fprintf(w, "%s %-10s %s\n", mark, r.name, r.detail)
		if r.hint != "" {
			fmt.Fprintf(w, "  %s\n", style.Muted(r.hint))
		}
	}
	fmt.Fprintln(w)

	if failed {
		return fmt.Errorf("setup issues detected")
	}
	fmt.Fprintf(w, "%s Setup OK\n", style.Good("✓"))
	return nil
}

func checkConfig(_ context.Context, cfg *config.Config) checkResult {
	values := map[string]string{
		"api_url":               cfg.APIURL,
		"language":              cfg.Language,
		"summary_timeout":       cfg.SummaryTimeout,
		"saved_indicator_delay": cfg.SavedIndicatorDelay,
		"request_timeout":       cfg.RequestTimeout,
	}
	var bad []string
	for _, k := range config.Keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := config.Validate(k, v); err != nil {
			bad = append(bad, err.Error())
		}
	}
	if len(bad) > 0 {
		return checkResult{level: checkFail, detail: strings.Join(bad, "; "), hint: "Fix with: cvago config set <key> <value>"}
	}
	return checkResult{detail: config.Path()}
}

func checkBackend(ctx context.Context, cfg *config.Config) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := api.New(cfg.APIURL, api.WithRetry(retry.None()), api.WithUserAgent("cvago/"+Version))
	_, err := client.GetProfile(ctx)
	switch {
	case err == nil, api.StatusOf(err) == 404:
		return checkResult{detail: cfg.APIURL + " reachable"}
	case errors.Is(err, api.ErrUnreachable), errors.Is(err, api.ErrTimeout):
		return checkResult{level: checkFail, detail: cfg.APIURL + " unreachable", hint: "Start the backend or run: cvago config set api_url <url>"}
	}
	return checkResult{level: checkWarn, detail: err.Error()}
}

func checkProfile(_ context.Context, _ *config.Config) checkResult {
	d, ok, err := loadDraft()
	if err != nil {
		return checkResult{level: checkFail, detail: err.Error(), hint: "Drop it with: cvago profile discard"}
	}
	if !ok {
		return checkResult{detail: "no local draft"}
	}
	issues := profile.Validate(d)
	if profile.HasErrors(issues) {
		return checkResult{level: checkWarn, detail: fmt.Sprintf("draft has %d issue(s)", len(issues)), hint: "See: cvago profile validate"}
	}
	return checkResult{detail: "draft is valid (not saved yet)"}
}

func checkStateDir(_ context.Context, _ *config.Config) checkResult {
	if err := utils.EnsureStateDir(); err != nil {
		return checkResult{level: checkFail, detail: err.Error()}
	}
	return checkResult{detail: utils.StateDir + "/ writable"}
}

func checkDownloadDir(_ context.Context, cfg *config.Config) checkResult {
	info, err := os.Stat(cfg.DownloadDir)
	switch {
	case os.IsNotExist(err):
		return checkResult{level: checkWarn, detail: cfg.DownloadDir + " does not exist yet (created on first download)"}
	case err != nil:
		return checkResult{level: checkFail, detail: err.Error()}
	case !info.IsDir():
		return checkResult{level: checkFail, detail: cfg.DownloadDir + " is not a directory", hint: "Run: cvago config set download_dir <dir>"}
	}
	return checkResult{detail: cfg.DownloadDir}
}

func checkEditor(_ context.Context, _ *config.Config) checkResult {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return checkResult{level: checkWarn, detail: "$EDITOR not set, profile edit uses vi"}
	}
	if _, err := exec.LookPath(strings.Fields(editor)[0]); err != nil {
		return checkResult{level: checkWarn, detail: editor + " not found in PATH"}
	}
	return checkResult{detail: editor}
}
