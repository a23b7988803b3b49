// Package cache keeps the last position analyses on disk so a later
// command can generate against them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xrsl/cvago/pkg/utils"
	"github.com/xrsl/cvago/pkg/workflow"
)

var (
	ErrNoSession = errors.New("no analysis yet: run cvago analyze first")
	ErrAmbiguous = errors.New("more than one analysis matches")
)

// Key computes a deterministic SHA256 hash of an analysis input.
// Order is critical: server, job description.
func Key(server, jd string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimRight(server, "/")))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(jd)))
	return hex.EncodeToString(h.Sum(nil))
}

func dir() string {
	return utils.StatePath("analysis")
}

// Path returns the path to the session file for a given key.
func Path(key string) string {
	return filepath.Join(dir(), key+".json")
}

func latestPath() string {
	return filepath.Join(dir(), "latest")
}

// Read reads the session stored under key.
func Read(key string) (workflow.Session, error) {
	data, err := os.ReadFile(Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return workflow.Session{}, ErrNoSession
		}
		return workflow.Session{}, err
	}
	var s workflow.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return workflow.Session{}, fmt.Errorf("failed to parse cached analysis: %w", err)
	}
	return s, nil
}

// Write stores s under key and marks it as the latest analysis.
func Write(key string, s workflow.Session) error {
	if err := utils.EnsureStateDir(); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := utils.WriteFile(Path(key), string(data)); err != nil {
		return err
	}
	return utils.WriteFile(latestPath(), key+"\n")
}

// Latest returns the most recently written session and its key.
func Latest() (string, workflow.Session, error) {
	raw, err := os.ReadFile(latestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", workflow.Session{}, ErrNoSession
		}
		return "", workflow.Session{}, err
	}
	key := strings.TrimSpace(string(raw))
	s, err := Read(key)
	return key, s, err
}

// Exists checks if a session exists for a key.
func Exists(key string) bool {
	return utils.FileExists(Path(key))
}

// Entry is a stored analysis and its key.
type Entry struct {
	Key     string
	Session workflow.Session
	Latest  bool
}

// List returns every stored analysis, newest first. Unreadable files are
// skipped.
func List() ([]Entry, error) {
	files, err := filepath.Glob(filepath.Join(dir(), "*.json"))
	if err != nil {
		return nil, err
	}
	latest, _ := os.ReadFile(latestPath())
	var out []Entry
	for _, f := range files {
		key := strings.TrimSuffix(filepath.Base(f), ".json")
		s, err := Read(key)
		if err != nil {
			continue
		}
		out = append(out, Entry{Key: key, Session: s, Latest: key == strings.TrimSpace(string(latest))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Session.AnalyzedAt.After(out[j].Session.AnalyzedAt)
	})
	return out, nil
}

// Find returns the analysis whose key starts with prefix.
func Find(prefix string) (string, workflow.Session, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return Latest()
	}
	entries, err := List()
	if err != nil {
		return "", workflow.Session{}, err
	}
	var found []Entry
	for _, e := range entries {
		if strings.HasPrefix(e.Key, prefix) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return "", workflow.Session{}, fmt.Errorf("%w: %s", ErrNoSession, prefix)
	case 1:
		return found[0].Key, found[0].Session, nil
	}
	return "", workflow.Session{}, fmt.Errorf("%w: %s (use more characters)", ErrAmbiguous, prefix)
}

// Remove deletes the analysis stored under key. Removing the latest one
// leaves no latest analysis.
func Remove(key string) error {
	if err := os.Remove(Path(key)); err != nil {
		if os.IsNotExist(err) {
			return ErrNoSession
		}
		return err
	}
	if latest, err := os.ReadFile(latestPath()); err == nil && strings.TrimSpace(string(latest)) == key {
		return os.Remove(latestPath())
	}
	return nil
}

// Clear removes every stored analysis.
func Clear() error {
	return os.RemoveAll(dir())
}
