package fonts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

const maxDownloadSize = 32 << 20

// download fetches DownloadURL into the cache directory and returns the
// local path. An existing file is reused without touching the network.
func (r *Registry) download(ctx context.Context) (string, error) {
	dir := r.cfg.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("locating cache dir: %w", err)
		}
		dir = filepath.Join(base, "rxscribe", "fonts")
	}
	dest := filepath.Join(dir, path.Base(r.cfg.DownloadURL))
	if fi, err := os.Stat(dest); err == nil && fi.Size() > 0 {
		return dest, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	r.log.Info("Downloading Arabic font", slog.String("url", r.cfg.DownloadURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.DownloadURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.cfg.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: %s", r.cfg.DownloadURL, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".font-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDownloadSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if n > maxDownloadSize {
		return "", fmt.Errorf("GET %s: response larger than %d bytes", r.cfg.DownloadURL, maxDownloadSize)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}
