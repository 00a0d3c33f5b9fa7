package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

// Backend is a filesystem implementation of the fotoo.BlobStore interface.
// Suited to single-node deployments; MIME types are sniffed on read
// rather than stored.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download/upload URLs
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

func (b *Backend) path(objectKey string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
}

func (b *Backend) wrap(op, key string, err error) error {
	return &fotoo.StorageError{Backend: "fs", Key: key, Op: op, Err: err}
}

// GetUploadURL returns a URL for uploading an object
func (b *Backend) GetUploadURL(ctx context.Context, objectKey, mimeType string) (string, error) {
	if b.urlPrefix == "" {
		return "", b.wrap("presign", objectKey, errors.New("direct upload required for filesystem backend"))
	}
	return fmt.Sprintf("%s/upload/%s", b.urlPrefix, objectKey), nil
}

// GetDownloadURL returns a URL for downloading an object
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string) (string, error) {
	if b.urlPrefix == "" {
		return "", b.wrap("presign", objectKey, errors.New("direct download required for filesystem backend"))
	}
	return fmt.Sprintf("%s/download/%s", b.urlPrefix, objectKey), nil
}

// Upload writes an object from a reader
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params fotoo.UploadParams) error {
	filePath := b.path(params.ObjectKey)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return b.wrap("upload", params.ObjectKey, err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return b.wrap("upload", params.ObjectKey, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return b.wrap("upload", params.ObjectKey, err)
	}
	return nil
}

// Download streams an object by key
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(b.path(objectKey))
	if os.IsNotExist(err) {
		return nil, b.wrap("download", objectKey, errors.New("object not found"))
	}
	if err != nil {
		return nil, b.wrap("download", objectKey, err)
	}
	return file, nil
}

// Delete deletes an object
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	if err := os.Remove(b.path(objectKey)); err != nil {
		if os.IsNotExist(err) {
			return b.wrap("delete", objectKey, errors.New("object not found"))
		}
		return b.wrap("delete", objectKey, err)
	}
	return nil
}

// GetObjectMeta retrieves metadata for an object
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*fotoo.ObjectMeta, error) {
	filePath := b.path(objectKey)
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, b.wrap("head", objectKey, errors.New("object not found"))
	}
	if err != nil {
		return nil, b.wrap("head", objectKey, err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		buffer := make([]byte, 512)
		if n, rerr := file.Read(buffer); rerr == nil || rerr == io.EOF {
			contentType = http.DetectContentType(buffer[:n])
		}
		file.Close()
	}

	return &fotoo.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}
