package fotoo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// DownloadToFile materializes an object into dir and returns the local
// path. The file keeps the object's extension so downstream tools can
// sniff the container format from the name.
func DownloadToFile(ctx context.Context, store BlobStore, objectKey, dir string) (string, error) {
	rc, err := store.Download(ctx, objectKey)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	localPath := filepath.Join(dir, uuid.NewString()+path.Ext(objectKey))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(localPath)
		return "", &StorageError{Key: objectKey, Op: "download", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return localPath, nil
}

// uploadFile pushes a local file as an object and returns its size.
func uploadFile(ctx context.Context, store BlobStore, localPath string, params UploadParams) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", localPath, err)
	}

	if err := store.Upload(ctx, f, params); err != nil {
		return 0, err
	}
	return st.Size(), nil
}
