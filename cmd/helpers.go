package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/config"
	"github.com/xrsl/cvago/pkg/doc"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/utils"
	"github.com/xrsl/cvago/pkg/workflow"
)

// loadConfig reads the settings and applies --api-url.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		if err := config.Validate("api_url", apiURL); err != nil {
			return nil, err
		}
		cfg.APIURL = apiURL
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeoutDuration()),
		api.WithUserAgent("cvago/"+Version),
	)
}

func newOrchestrator(cfg *config.Config, server workflow.Server, store *profile.Store) *workflow.Orchestrator {
	return workflow.New(server, store, workflow.Options{
		SummaryTimeout:      cfg.SummaryTimeoutDuration(),
		SavedIndicatorDelay: cfg.SavedIndicatorDelayDuration(),
		Language:            cfg.Language,
	})
}

func draftPath() string {
	return utils.StatePath("draft.json")
}

// loadDraft reads the local draft kept between commands.
func loadDraft() (doc.Node, bool, error) {
	data, err := os.ReadFile(draftPath())
	if os.IsNotExist(err) {
		return doc.Node{}, false, nil
	}
	if err != nil {
		return doc.Node{}, false, err
	}
	d, err := doc.ParseJSON(data)
	if err != nil {
		return doc.Node{}, false, fmt.Errorf("draft %s is corrupt: %w (run cvago profile discard)", draftPath(), err)
	}
	return d, true, nil
}

func writeDraft(d doc.Node) error {
	if err := utils.EnsureStateDir(); err != nil {
		return err
	}
	data, err := doc.MarshalIndentJSON(d)
	if err != nil {
		return err
	}
	clog.Debug("draft written", "path", draftPath())
	return utils.WriteFile(draftPath(), string(data)+"\n")
}

func removeDraft() error {
	err := os.Remove(draftPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// fetchCommitted gets the stored profile into store. A missing profile
// (HTTP 404) is not an error.
func fetchCommitted(ctx context.Context, o *workflow.Orchestrator) (bool, error) {
	err := o.LoadProfile(ctx)
	if err == nil {
		return true, nil
	}
	if api.StatusOf(err) == 404 {
		clog.Debug("server has no profile yet")
		return false, nil
	}
	return false, err
}

// workingDraft returns the local draft, or starts one from the server's
// profile when there is none.
func workingDraft(ctx context.Context, client *api.Client) (doc.Node, error) {
	d, ok, err := loadDraft()
	if err != nil || ok {
		return d, err
	}
	p, err := client.GetProfile(ctx)
	if err != nil {
		if api.StatusOf(err) == 404 {
			return doc.NewMap(), nil
		}
		return doc.Node{}, fmt.Errorf("no local draft and the server profile could not be loaded: %w", err)
	}
	return profile.NormalizeMetrics(p), nil
}

// currentDocument is the draft when one exists, else the server profile.
func currentDocument(ctx context.Context, client *api.Client) (doc.Node, bool, error) {
	if d, ok, err := loadDraft(); err != nil || ok {
		return d, true, err
	}
	p, err := client.GetProfile(ctx)
	if err != nil {
		return doc.Node{}, false, err
	}
	return profile.NormalizeMetrics(p), false, nil
}

// readDocument reads a JSON or YAML profile file; "-" reads stdin.
func readDocument(path string, stdin io.Reader) (doc.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return doc.Node{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return doc.ParseYAML(data)
	case ".json":
		return doc.ParseJSON(data)
	}
	if d, err := doc.ParseJSON(data); err == nil {
		return d, nil
	}
	return doc.ParseYAML(data)
}

// readText returns the job description from a file, stdin ("-") or the
// joined arguments.
func readText(file string, args []string, stdin io.Reader) (string, error) {
	switch {
	case file == "-" || (file == "" && len(args) == 1 && args[0] == "-"):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		return utils.ReadFile(file)
	}
	return strings.Join(args, " "), nil
}

func writeOutput(w io.Writer, outPath string, data []byte) error {
	if outPath == "" || outPath == "-" {
		_, err := w.Write(data)
		return err
	}
	return utils.WriteFile(outPath, string(data))
}

func encodeDocument(d doc.Node, yamlOut bool) ([]byte, error) {
	if yamlOut {
		return marshalYAML(d)
	}
	data, err := doc.MarshalIndentJSON(d)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func issuesError(issues []profile.Issue) error {
	var msgs []string
	for _, is := range issues {
		if is.Severity == profile.SeverityError {
			msgs = append(msgs, is.String())
		}
	}
	return errors.New("profile is invalid:\n  " + strings.Join(msgs, "\n  "))
}

func marshalYAML(d doc.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
