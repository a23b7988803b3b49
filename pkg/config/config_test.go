package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	ResetForTest(t.TempDir())

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.APIURL != DefaultAPIURL {
		t.Errorf("Expected default api_url %q, got %q", DefaultAPIURL, c.APIURL)
	}
	if c.Language != "es" {
		t.Errorf("Expected default language 'es', got %q", c.Language)
	}
	if c.SummaryTimeoutDuration() != 60*time.Second {
		t.Errorf("Expected 60s summary timeout, got %s", c.SummaryTimeoutDuration())
	}
	if c.SavedIndicatorDelayDuration() != 3*time.Second {
		t.Errorf("Expected 3s saved indicator delay, got %s", c.SavedIndicatorDelayDuration())
	}
}

func TestSetAndGet(t *testing.T) {
	dir := t.TempDir()
	ResetForTest(dir)

	if err := Set("api_url", "https://cv.example.com/"); err != nil {
		t.Fatalf("Set api_url error: %v", err)
	}
	if err := Set("language", "en"); err != nil {
		t.Fatalf("Set language error: %v", err)
	}

	// Reset to force reload from file
	ResetForTest(dir)
	if err := Reload(); err != nil {
		t.Fatal(err)
	}

	got, err := Get("api_url")
	if err != nil {
		t.Fatalf("Get api_url error: %v", err)
	}
	if got != "https://cv.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %q", got)
	}
	if lang, _ := Get("language"); lang != "en" {
		t.Errorf("Expected language 'en', got %q", lang)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".cvago.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "summary_timeout") {
		t.Errorf("defaults written to the config file:\n%s", data)
	}
}

func TestSetValidation(t *testing.T) {
	ResetForTest(t.TempDir())

	tests := []struct {
		key, value string
		ok         bool
	}{
		{"api_url", "http://localhost:8000", true},
		{"api_url", "localhost:8000", false},
		{"api_url", "ftp://host", false},
		{"language", "en", true},
		{"language", "fr", false},
		{"summary_timeout", "90s", true},
		{"summary_timeout", "-1s", false},
		{"request_timeout", "soon", false},
		{"download_dir", "out", true},
		{"invalid_key", "value", false},
	}
	for _, tt := range tests {
		err := Set(tt.key, tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("Set(%q, %q) error = %v, want ok=%v", tt.key, tt.value, err, tt.ok)
		}
	}
}

func TestGetInvalidKey(t *testing.T) {
	ResetForTest(t.TempDir())

	if _, err := Get("invalid_key"); err == nil {
		t.Error("Expected error for invalid key, got nil")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CVAGO_API_URL", "http://backend:9000")
	ResetForTest(t.TempDir())

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.APIURL != "http://backend:9000" {
		t.Errorf("Expected env override, got %q", c.APIURL)
	}
}

func TestUnset(t *testing.T) {
	ResetForTest(t.TempDir())

	if err := Set("language", "en"); err != nil {
		t.Fatal(err)
	}
	if err := Unset("language"); err != nil {
		t.Fatal(err)
	}
	if lang, _ := Get("language"); lang != DefaultLanguage {
		t.Errorf("Expected default after unset, got %q", lang)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	c := &Config{SummaryTimeout: "nonsense", RequestTimeout: "0s"}
	if c.SummaryTimeoutDuration() != DefaultSummaryTimeout {
		t.Errorf("got %s", c.SummaryTimeoutDuration())
	}
	if c.RequestTimeoutDuration() != DefaultRequestTimeout {
		t.Errorf("got %s", c.RequestTimeoutDuration())
	}
}

func TestAllListsEveryKey(t *testing.T) {
	ResetForTest(t.TempDir())

	all, err := All()
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Keys {
		if _, ok := all[k]; !ok {
			t.Errorf("All() missing %s", k)
		}
	}
}

func TestConfigFileCreated(t *testing.T) {
	dir := t.TempDir()
	ResetForTest(dir)

	if err := Set("download_dir", "out"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, err := os.Stat(Path()); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}
