package memory_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
	"github.com/fotoo-app/fotoo/pkg/fotoo/storage/memory"
)

func TestMemoryBackendRoundTrip(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	err := b.Upload(ctx, strings.NewReader("hello"), fotoo.UploadParams{
		ObjectKey: "u1/2024/01/01/a.jpg",
		MimeType:  "image/jpeg",
	})
	require.NoError(t, err)

	rc, err := b.Download(ctx, "u1/2024/01/01/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	meta, err := b.GetObjectMeta(ctx, "u1/2024/01/01/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "image/jpeg", meta.ContentType)

	url, err := b.GetDownloadURL(ctx, "u1/2024/01/01/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "memory://u1/2024/01/01/a.jpg", url)

	require.NoError(t, b.Delete(ctx, "u1/2024/01/01/a.jpg"))
	_, err = b.Download(ctx, "u1/2024/01/01/a.jpg")
	assert.Error(t, err)
}

func TestMemoryBackendMissingObject(t *testing.T) {
	b := memory.New()
	ctx := context.Background()

	_, err := b.Download(ctx, "nope")
	require.Error(t, err)

	var se *fotoo.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "memory", se.Backend)
	assert.Equal(t, "download", se.Op)

	assert.Error(t, b.Delete(ctx, "nope"))
	_, err = b.GetObjectMeta(ctx, "nope")
	assert.Error(t, err)
	_, err = b.GetDownloadURL(ctx, "nope")
	assert.Error(t, err)
}
