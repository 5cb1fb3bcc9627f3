package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/stickerforge/sticker-api/internal/config"
	"github.com/stickerforge/sticker-api/internal/generation"
)

// Common errors returned by the storage package.
var (
	// ErrSourceUnreachable is returned when a remote image cannot be
	// downloaded.
	ErrSourceUnreachable = errors.New("image source unreachable")

	// ErrWriteFailed is returned when the image cannot be written to the
	// local store.
	ErrWriteFailed = errors.New("failed to write image")
)

// maxDownloadTries bounds the retry loop for transient download failures.
// Client errors (4xx) are permanent and abort immediately.
const maxDownloadTries = 3

// extensions maps the MIME types we accept to file extensions. Anything
// else falls back to .png, which is what the generation backends emit.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// LocalImageStore persists images under a local public directory and
// addresses them by the URL path prefix they are served from. It is the
// durable home for generated stickers and uploaded source photos.
type LocalImageStore struct {
	logger     *slog.Logger
	dir        string
	publicPath string
	client     *http.Client
}

// NewLocalImageStore creates the store and ensures the image directory
// exists.
func NewLocalImageStore(logger *slog.Logger, cfg config.StorageConfig) (*LocalImageStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.ImageDir == "" || cfg.PublicPath == "" {
		return nil, errors.New("image directory and public path are required")
	}

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", cfg.ImageDir, err)
	}

	return &LocalImageStore{
		logger:     logger,
		dir:        cfg.ImageDir,
		publicPath: cfg.PublicPath,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Persist stores a generated image locally and returns its stable public
// URL. Remote URLs are downloaded with bounded retries on transient
// failures; inline bytes are written directly.
func (s *LocalImageStore) Persist(ctx context.Context, img *generation.Image) (string, error) {
	if err := img.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	data := img.Data
	mimeType := img.MIMEType

	if img.URL != "" {
		var err error
		data, mimeType, err = s.download(ctx, img.URL)
		if err != nil {
			return "", err
		}
	}

	return s.write(data, extensionFor(mimeType))
}

// SaveUpload stores a caller-provided source photo and returns its public
// URL together with the generated filename.
func (s *LocalImageStore) SaveUpload(r io.Reader, ext string) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if ext == "" || ext[0] != '.' {
		ext = ".png"
	}

	url, err := s.write(data, ext)
	if err != nil {
		return "", "", err
	}

	return url, path.Base(url), nil
}

// download fetches the image bytes from a remote URL, retrying transient
// failures with exponential backoff.
func (s *LocalImageStore) download(ctx context.Context, url string) ([]byte, string, error) {
	op := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			err := fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		return resp, nil
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("retrying image download", "url", url, "error", err, "backoff", wait)
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxDownloadTries),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// write stores the bytes under a fresh uuid filename and returns the
// public URL.
func (s *LocalImageStore) write(data []byte, ext string) (string, error) {
	filename := uuid.New().String() + ext
	filePath := filepath.Join(s.dir, filename)

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	s.logger.Debug("stored image", "path", filePath, "bytes", len(data))

	return path.Join(s.publicPath, filename), nil
}

// extensionFor picks a file extension for the given MIME type.
func extensionFor(mimeType string) string {
	if ext, ok := extensions[mimeType]; ok {
		return ext
	}
	return ".png"
}
