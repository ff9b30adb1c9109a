package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned for content types outside the allow list.
	ErrUnsupportedType = errors.New("unsupported content type")

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// BlobConfig tunes the public upload area.
type BlobConfig struct {
	PublicBaseURL string
	MaxSizeBytes  int64
	AllowedTypes  []string
}

// BlobStore keeps uploaded media on disk and hands out public URLs for it. Objects are
// never deleted through the API.
type BlobStore struct {
	files   *LocalStorage
	cfg     BlobConfig
	allowed map[string]struct{}
}

// NewBlobStore wraps files with public URL generation and upload checks.
func NewBlobStore(files *LocalStorage, cfg BlobConfig) *BlobStore {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &BlobStore{files: files, cfg: cfg, allowed: allowed}
}

// Upload stores r under folder and returns the public URL of the new object.
func (b *BlobStore) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(b.allowed) > 0 {
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if _, ok := b.allowed[mediaType]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
		}
	}

	objectName := path.Join(SanitizeFilename(folder), uuid.NewString()+"_"+SanitizeFilename(filename))
	if _, err := b.files.SaveStream(objectName, r, b.cfg.MaxSizeBytes); err != nil {
		return "", err
	}
	return b.cfg.PublicBaseURL + "/" + objectName, nil
}

// Dir is the directory that should be served read-only at the public base URL.
func (b *BlobStore) Dir() string {
	return b.files.Root()
}

// SanitizeFilename reduces raw to a safe single path segment.
func SanitizeFilename(raw string) string {
	base := path.Base(strings.ReplaceAll(raw, "\\", "/"))
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "_"), "._")
	if cleaned == "" {
		return "file"
	}
	if len(cleaned) > 100 {
		cleaned = cleaned[len(cleaned)-100:]
	}
	return cleaned
}
