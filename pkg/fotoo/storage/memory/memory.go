package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

// Backend is an in-memory implementation of the fotoo.BlobStore interface,
// used by tests and local development.
type Backend struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	mimeTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:   make(map[string][]byte),
		mimeTypes: make(map[string]string),
	}
}

// GetUploadURL is unsupported; the memory backend only does direct I/O.
func (b *Backend) GetUploadURL(ctx context.Context, objectKey, mimeType string) (string, error) {
	// Direct uploads still work; presigning has no meaning in-process, so
	// return an opaque pseudo-URL that tests can assert on.
	return "memory://" + objectKey, nil
}

// GetDownloadURL returns an opaque pseudo-URL for the object.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.objects[objectKey]; !ok {
		return "", &fotoo.StorageError{Backend: "memory", Key: objectKey, Op: "presign", Err: errors.New("object not found")}
	}
	return "memory://" + objectKey, nil
}

// Upload writes an object from a reader
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params fotoo.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &fotoo.StorageError{Backend: "memory", Key: params.ObjectKey, Op: "upload", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[params.ObjectKey] = data
	if params.MimeType != "" {
		b.mimeTypes[params.ObjectKey] = params.MimeType
	} else {
		b.mimeTypes[params.ObjectKey] = "application/octet-stream"
	}
	return nil
}

// Download streams an object by key
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.objects[objectKey]
	if !ok {
		return nil, &fotoo.StorageError{Backend: "memory", Key: objectKey, Op: "download", Err: errors.New("object not found")}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete deletes an object
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[objectKey]; !ok {
		return &fotoo.StorageError{Backend: "memory", Key: objectKey, Op: "delete", Err: errors.New("object not found")}
	}
	delete(b.objects, objectKey)
	delete(b.mimeTypes, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*fotoo.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.objects[objectKey]
	if !ok {
		return nil, &fotoo.StorageError{Backend: "memory", Key: objectKey, Op: "head", Err: errors.New("object not found")}
	}
	return &fotoo.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.mimeTypes[objectKey],
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
