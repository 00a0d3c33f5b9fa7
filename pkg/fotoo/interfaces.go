package fotoo

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// GetUploadURL returns a URL for uploading an object
	GetUploadURL(ctx context.Context, objectKey, mimeType string) (string, error)

	// GetDownloadURL returns a URL for downloading an object
	GetDownloadURL(ctx context.Context, objectKey string) (string, error)

	// Upload writes an object from a reader
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download streams an object by key
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes an object
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// AssetRepository defines the interface for asset record persistence.
// The record store owns the Asset; the processing pipeline holds only a
// transient, job-local copy and writes each state transition back as a
// single update.
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	UpdateAsset(ctx context.Context, asset *Asset) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	ListAssets(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Asset, error)

	// UpdateAssetStatus persists a status transition without touching the
	// rest of the record. errText is stored verbatim; pass "" to clear.
	UpdateAssetStatus(ctx context.Context, id uuid.UUID, status AssetStatus, errText string) error
}

// CollectionDetacher removes an asset from any album that contains it.
// Album membership lives outside this module; deletion only needs the hook.
type CollectionDetacher interface {
	DetachAsset(ctx context.Context, assetID uuid.UUID) error
}

// NoopDetacher is a CollectionDetacher for deployments without albums.
type NoopDetacher struct{}

func (NoopDetacher) DetachAsset(ctx context.Context, assetID uuid.UUID) error { return nil }
