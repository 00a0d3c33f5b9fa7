package fotoo

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Enqueuer submits asset ids for background processing. Implemented by
// the queue package; enqueuing the same id repeatedly is safe because the
// processing guard deduplicates concurrent execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, assetID uuid.UUID) error
}

// Service defines the media library operations exposed to the API layer.
type Service interface {
	// CreateUploadSlot creates a pending asset record and a presigned
	// upload URL. Bytes do not exist in storage yet.
	CreateUploadSlot(ctx context.Context, req CreateUploadSlotRequest) (*UploadSlot, error)

	// EnqueueProcessing submits the asset for (re)processing. Called on
	// the first upload notification and on manual retry.
	EnqueueProcessing(ctx context.Context, assetID, requesterID uuid.UUID) error

	// GetAsset returns one asset owned by requester.
	GetAsset(ctx context.Context, assetID, requesterID uuid.UUID) (*Asset, error)

	// ListAssets returns the requester's assets, newest first.
	ListAssets(ctx context.Context, requesterID uuid.UUID, limit int) ([]*Asset, error)

	// GetDownloadURL returns a presigned URL for the processed derivative.
	GetDownloadURL(ctx context.Context, assetID, requesterID uuid.UUID) (string, error)

	// OpenThumbnail streams the stored thumbnail (or, for images without
	// one, the processed object). Returns the stream and its MIME type.
	OpenThumbnail(ctx context.Context, assetID, requesterID uuid.UUID) (io.ReadCloser, string, error)

	// DeleteAsset removes the record, detaches the asset from any albums,
	// and deletes the original and all derivative blobs.
	DeleteAsset(ctx context.Context, assetID, requesterID uuid.UUID) error
}
