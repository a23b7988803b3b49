package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "draft.json")
	if err := WriteFile(path, "{}"); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil || got != "{}" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if FileExists(dir) {
		t.Error("directory reported as file")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported")
	}
}

func TestEnsureStateDir(t *testing.T) {
	old := StateDir
	StateDir = filepath.Join(t.TempDir(), ".cvago")
	t.Cleanup(func() { StateDir = old })

	if err := EnsureStateDir(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(StatePath(".gitignore"))
	if err != nil || string(data) != "*\n" {
		t.Errorf(".gitignore = %q, %v", data, err)
	}
	if err := EnsureStateDir(); err != nil {
		t.Errorf("second call: %v", err)
	}
}
