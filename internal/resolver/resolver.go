// Package resolver turns a video reference (local path, bare name, or
// direct http(s) URL) into a locally decodable file. It never extracts
// from video platforms; links it cannot turn into a file fail with
// ErrUnresolvableSource.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnresolvableSource means the reference could not be turned into a
// decodable local handle.
var ErrUnresolvableSource = errors.New("source cannot be resolved to a video file")

var videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm"}

// Resolver resolves video references. The zero value is not usable; call
// New.
type Resolver struct {
	client  *http.Client
	tempDir string
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:  &http.Client{Timeout: 2 * time.Minute},
		tempDir: os.TempDir(),
		logger:  logger,
	}
}

// Resolve returns a local file path for ref plus a cleanup function that
// removes any temporary download. cleanup is never nil.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	if _, err := os.Stat(ref); err == nil {
		r.logger.Debug("using local video file", "path", ref)
		return ref, noop, nil
	}

	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if isPlatformLink(u.Host) {
			return "", noop, fmt.Errorf("%w: platform links are not supported: %s", ErrUnresolvableSource, ref)
		}
		path, err := r.download(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return path, func() { os.Remove(path) }, nil
	}

	// Bare name: probe common video extensions next to it.
	for _, ext := range videoExtensions {
		candidate := ref + ext
		if _, err := os.Stat(candidate); err == nil {
			r.logger.Debug("found video file by extension probe", "path", candidate)
			return candidate, noop, nil
		}
	}

	return "", noop, fmt.Errorf("%w: %s", ErrUnresolvableSource, ref)
}

// isPlatformLink rejects hosts that serve pages, not files.
func isPlatformLink(host string) bool {
	host = strings.ToLower(host)
	for _, h := range []string{"youtube.com", "www.youtube.com", "youtu.be", "vimeo.com"} {
		if host == h {
			return true
		}
	}
	return false
}

func (r *Resolver) download(ctx context.Context, rawURL string) (string, error) {
	r.logger.Info("downloading video", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvableSource, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvableSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: got status %d for %s", ErrUnresolvableSource, resp.StatusCode, rawURL)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !looksLikeVideo(rawURL, contentType) {
		return "", fmt.Errorf("%w: %s does not serve video content (%s)", ErrUnresolvableSource, rawURL, contentType)
	}

	f, err := os.CreateTemp(r.tempDir, "framesight_download_*"+extensionFor(rawURL))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil || closeErr != nil {
		os.Remove(f.Name())
		if err == nil {
			err = closeErr
		}
		return "", fmt.Errorf("%w: download failed: %v", ErrUnresolvableSource, err)
	}
	if n == 0 {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: downloaded file is empty", ErrUnresolvableSource)
	}

	r.logger.Info("video downloaded", "path", f.Name(), "bytes", n)
	return f.Name(), nil
}

func looksLikeVideo(rawURL, contentType string) bool {
	for _, t := range []string{"video", "mp4", "avi", "mov", "webm", "octet-stream"} {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	lower := strings.ToLower(rawURL)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func extensionFor(rawURL string) string {
	ext := strings.ToLower(filepath.Ext(rawURL))
	for _, known := range videoExtensions {
		if ext == known {
			return ext
		}
	}
	return ".mp4"
}
