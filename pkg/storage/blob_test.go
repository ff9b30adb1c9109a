package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlobStore(t *testing.T, maxSize int64) *BlobStore {
	t.Helper()
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewBlobStore(files, BlobConfig{
		PublicBaseURL: "http://localhost:8080/files/",
		MaxSizeBytes:  maxSize,
		AllowedTypes:  []string{"image/png", "image/jpeg"},
	})
}

func TestBlobStoreUpload(t *testing.T) {
	store := newBlobStore(t, 1024)

	url, err := store.Upload(context.Background(), "profile_images", "../../me photo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/files/profile_images/"))
	assert.True(t, strings.HasSuffix(url, "_me_photo.png"))

	rel := strings.TrimPrefix(url, "http://localhost:8080/files/")
	data, err := os.ReadFile(filepath.Join(store.Dir(), rel))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestBlobStoreRejectsLargeAndUnknownFiles(t *testing.T) {
	store := newBlobStore(t, 4)

	_, err := store.Upload(context.Background(), "post_media", "a.png", "image/png", strings.NewReader("too long"))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Upload(context.Background(), "post_media", "a.exe", "application/octet-stream", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = files.Save("../outside.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideRoot)
	_, err = files.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = files.Save("nested/ok.txt", []byte("x"))
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report_final.pdf", SanitizeFilename("report final.pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file", SanitizeFilename("..."))
}
