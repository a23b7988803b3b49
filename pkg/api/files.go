package api

import (
	"context"
	"os"
	"path/filepath"

	"github.com/xrsl/cvago/pkg/log"
)

// DownloadTo stores a generated artifact as dir/filename and returns the
// path written. The file only appears once it is complete.
func (c *Client) DownloadTo(ctx context.Context, filename, dir string, inline bool) (string, int64, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	tmp, err := os.CreateTemp(dir, ".cvago-download-*")
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := c.Download(ctx, filename, inline, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", n, err
	}
	path := filepath.Join(dir, filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", n, err
	}
	log.Debug("downloaded", "file", filename, "bytes", n, "path", path)
	return path, n, nil
}
