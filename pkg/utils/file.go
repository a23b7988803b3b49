package utils

import (
	"os"
	"path/filepath"
)

// StateDir holds local state between invocations.
var StateDir = ".cvago"

func ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// WriteFile writes content, creating parent directories. The file is
// written to a temporary sibling and renamed so readers never see a
// partial file.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// StatePath joins elem under StateDir.
func StatePath(elem ...string) string {
	return filepath.Join(append([]string{StateDir}, elem...)...)
}

// EnsureStateDir creates the state directory with a .gitignore that keeps
// it out of git.
func EnsureStateDir() error {
	gitignorePath := StatePath(".gitignore")

	// Skip if already exists
	if FileExists(gitignorePath) {
		return nil
	}

	if err := os.MkdirAll(StateDir, 0o755); err != nil {
		return err
	}

	// Create .gitignore that ignores everything
	return os.WriteFile(gitignorePath, []byte("*\n"), 0o644)
}
