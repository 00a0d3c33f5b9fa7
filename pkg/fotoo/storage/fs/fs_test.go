package fs_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
	"github.com/fotoo-app/fotoo/pkg/fotoo/storage/fs"
)

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestFSBackendRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	b, err := fs.New(fs.Config{BaseDir: baseDir})
	require.NoError(t, err)
	ctx := context.Background()

	key := "u1/2024/01/01/a.jpg"
	require.NoError(t, b.Upload(ctx, strings.NewReader("content"), fotoo.UploadParams{
		ObjectKey: key,
		MimeType:  "image/jpeg",
	}))

	// Nested key directories are created on the way.
	_, err = os.Stat(filepath.Join(baseDir, "u1", "2024", "01", "01", "a.jpg"))
	require.NoError(t, err)

	rc, err := b.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "content", string(data))

	meta, err := b.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("content")), meta.Size)

	require.NoError(t, b.Delete(ctx, key))
	_, err = b.Download(ctx, key)
	assert.Error(t, err)
}

func TestFSBackendURLs(t *testing.T) {
	b, err := fs.New(fs.Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost:8080/files"})
	require.NoError(t, err)
	ctx := context.Background()

	up, err := b.GetUploadURL(ctx, "k", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/upload/k", up)

	down, err := b.GetDownloadURL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/download/k", down)
}

func TestFSBackendNoURLPrefix(t *testing.T) {
	b, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = b.GetUploadURL(ctx, "k", "image/jpeg")
	require.Error(t, err)
	var se *fotoo.StorageError
	assert.True(t, errors.As(err, &se))

	_, err = b.GetDownloadURL(ctx, "k")
	assert.Error(t, err)
}
