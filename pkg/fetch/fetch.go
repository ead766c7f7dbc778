package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ErrDownload covers transport failures and non-2xx responses. There
// is deliberately no retry: the tool runs interactively and a failed
// download should surface immediately.
var ErrDownload = errors.New("download failed")

// Filename derives the local filename for an artifact URL from its
// final path segment.
func Filename(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", errors.Wrapf(err, "invalid artifact URL %q", rawurl)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("artifact URL %q has no filename", rawurl)
	}
	return name, nil
}

// Download fetches rawurl into destDir, preserving the remote
// filename, and returns the local path. The write goes through a
// temporary file in destDir so a cancelled or failed download never
// leaves a half-written artifact under the final name.
func Download(ctx context.Context, client *http.Client, rawurl, destDir string, progress bool) (string, error) {
	name, err := Filename(rawurl)
	if err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrDownload, "fetching %s: %v", rawurl, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrDownload, "fetching %s: unexpected status %d", rawurl, resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	// The bar renders control sequences, so it only appears when
	// stderr is an actual terminal; piped runs stay clean.
	var dst io.Writer = tmpFile
	if progress && resp.ContentLength > 0 && term.IsTerminal(int(os.Stderr.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading "+name)
		dst = io.MultiWriter(tmpFile, bar)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return "", errors.Wrapf(ErrDownload, "fetching %s: %v", rawurl, err)
	}
	if written == 0 {
		return "", errors.Wrapf(ErrDownload, "fetching %s: no content", rawurl)
	}

	if err := tmpFile.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", errors.Wrap(err, "failed to move downloaded file")
	}

	return destPath, nil
}
