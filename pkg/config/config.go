package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL              = "http://localhost:8000"
	DefaultLanguage            = "es"
	DefaultSummaryTimeout      = 60 * time.Second
	DefaultSavedIndicatorDelay = 3 * time.Second
	DefaultRequestTimeout      = 120 * time.Second
	DefaultDownloadDir         = "."
)

// Config is the user configuration. Durations are kept as text so the file
// stays readable ("60s", "2m").
type Config struct {
	APIURL              string `mapstructure:"api_url" yaml:"api_url,omitempty"`
	Language            string `mapstructure:"language" yaml:"language,omitempty"`
	SummaryTimeout      string `mapstructure:"summary_timeout" yaml:"summary_timeout,omitempty"`
	SavedIndicatorDelay string `mapstructure:"saved_indicator_delay" yaml:"saved_indicator_delay,omitempty"`
	RequestTimeout      string `mapstructure:"request_timeout" yaml:"request_timeout,omitempty"`
	DownloadDir         string `mapstructure:"download_dir" yaml:"download_dir,omitempty"`
	ProfilePath         string `mapstructure:"profile_path" yaml:"profile_path,omitempty"`
}

// SummaryTimeoutDuration returns the summary timeout, falling back to the
// default when unset or invalid.
func (c *Config) SummaryTimeoutDuration() time.Duration {
	return duration(c.SummaryTimeout, DefaultSummaryTimeout)
}

func (c *Config) SavedIndicatorDelayDuration() time.Duration {
	return duration(c.SavedIndicatorDelay, DefaultSavedIndicatorDelay)
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return duration(c.RequestTimeout, DefaultRequestTimeout)
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Keys lists the settable keys.
var Keys = []string{
	"api_url",
	"language",
	"summary_timeout",
	"saved_indicator_delay",
	"request_timeout",
	"download_dir",
	"profile_path",
}

var (
	configFile = ".cvago.yaml"
	v          *viper.Viper
)

func init() {
	v = newViper()
	// Try to read config file (ignore if not exists)
	_ = v.ReadInConfig()
}

func newViper() *viper.Viper {
	nv := viper.New()
	nv.SetConfigFile(configFile)

	nv.SetDefault("api_url", DefaultAPIURL)
	nv.SetDefault("language", DefaultLanguage)
	nv.SetDefault("summary_timeout", DefaultSummaryTimeout.String())
	nv.SetDefault("saved_indicator_delay", DefaultSavedIndicatorDelay.String())
	nv.SetDefault("request_timeout", DefaultRequestTimeout.String())
	nv.SetDefault("download_dir", DefaultDownloadDir)
	nv.SetDefault("profile_path", "")

	// Environment variables
	nv.SetEnvPrefix("CVAGO")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()
	return nv
}

func Path() string {
	return configFile
}

// Reload rereads the config file, for when it changed on disk.
func Reload() error {
	v = newViper()
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configFile); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", configFile, err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func Get(key string) (string, error) {
	if !known(key) {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return v.GetString(key), nil
}

// Validate checks a value before it is stored under key.
func Validate(key, value string) error {
	switch key {
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api_url must be an http(s) URL, got %q", value)
		}
	case "language":
		if value != "es" && value != "en" {
			return fmt.Errorf("language must be es or en, got %q", value)
		}
	case "summary_timeout", "saved_indicator_delay", "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration such as 60s, got %q", key, value)
		}
	case "download_dir", "profile_path":
	default:
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Set validates value, stores it and writes only the keys the user set to
// the config file.
func Set(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	stored, err := readFile()
	if err != nil {
		return err
	}
	if key == "api_url" {
		value = strings.TrimRight(value, "/")
	}
	stored[key] = value

	v.Set(key, value) // keep viper in sync
	return writeConfig(stored)
}

// Unset removes key from the config file so the default applies again.
func Unset(key string) error {
	if !known(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}
	stored, err := readFile()
	if err != nil {
		return err
	}
	delete(stored, key)
	if err := writeConfig(stored); err != nil {
		return err
	}
	return Reload()
}

func readFile() (map[string]string, error) {
	stored := map[string]string{}
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return stored, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
	}
	return stored, nil
}

func writeConfig(stored map[string]string) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	keys := make([]string, 0, len(stored))
	for k := range stored {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: stored[k]},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	if dir := filepath.Dir(configFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(configFile, buf.Bytes(), 0o644)
}

func All() (map[string]string, error) {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		out[k] = v.GetString(k)
	}
	return out, nil
}

// ResetForTest resets viper for testing (only use in tests)
func ResetForTest(testPath string) {
	configFile = filepath.Join(testPath, ".cvago.yaml")
	v = newViper()
}
