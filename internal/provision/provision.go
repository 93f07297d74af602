// Package provision makes sure the model weights are on disk before the
// inference sidecar is asked to load them.
package provision

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrModelMissing = errors.New("model file missing and no download url configured")

// EnsureModel returns immediately when path exists. Otherwise it downloads url
// into a temporary file next to path and renames it into place, so a partial
// download is never seen at path.
func EnsureModel(ctx context.Context, client *http.Client, path, url string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "unable to stat %s", path)
	}

	if url == "" {
		return errors.Wrap(ErrModelMissing, path)
	}

	if client == nil {
		client = http.DefaultClient
	}

	slog.InfoContext(ctx, "downloading model", "url", url, "path", path)

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.part")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		release(tmp.Name())
	}()

	size, err := download(ctx, client, url, tmp)

	closeErr := tmp.Close()
	if err != nil {
		return err
	}

	if closeErr != nil {
		return errors.Wrap(closeErr, "unable to close temporary file")
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return errors.Wrapf(err, "unable to move model to %s", path)
	}

	committed = true

	slog.InfoContext(ctx, "model downloaded", "path", path, "bytes", size)

	return nil
}

func download(ctx context.Context, client *http.Client, url string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "unable to create request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("download %s failed with status %d", url, resp.StatusCode)
	}

	size, err := io.Copy(dst, resp.Body)
	if err != nil {
		return size, errors.Wrapf(err, "unable to read %s", url)
	}

	return size, nil
}

// release removes a temporary file. Failures are logged and never returned:
// the outcome of the caller does not depend on them.
func release(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("unable to remove temporary file", "path", path, "error", err)
	}
}
