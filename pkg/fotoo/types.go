package fotoo

import (
	"time"

	"github.com/google/uuid"
)

// AssetStatus is the domain type for the asset processing lifecycle.
type AssetStatus string

// Asset status constants (typed).
const (
	AssetStatusPending    AssetStatus = "pending"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusProcessed  AssetStatus = "processed"
	AssetStatusFailed     AssetStatus = "failed"
)

// Asset represents one uploaded media file and its processing lifecycle.
//
// Key holds the original object key; ProcessedKey and ThumbnailKey point at
// derived artifacts written by the processing pipeline. ThumbnailKey may be
// empty even for a processed asset: thumbnail derivation is best-effort.
type Asset struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	// Owner is the owner's login, used as the storage key prefix.
	Owner    string `json:"owner"`
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`

	ProcessedKey      string `json:"processed_key,omitempty"`
	ProcessedMimeType string `json:"processed_mime_type,omitempty"`
	ProcessedSize     int64  `json:"processed_size,omitempty"`

	ThumbnailKey      string `json:"thumbnail_key,omitempty"`
	ThumbnailMimeType string `json:"thumbnail_mime_type,omitempty"`
	ThumbnailSize     int64  `json:"thumbnail_size,omitempty"`

	Status AssetStatus `json:"status"`
	// Error is populated only when Status is failed, and is overwritten
	// (never appended) on each processing attempt.
	Error string `json:"error,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	CapturedAt *time.Time `json:"captured_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CaptureDate returns the timestamp used for date-partitioned keys:
// the capture timestamp when known, the record creation time otherwise.
func (a *Asset) CaptureDate() time.Time {
	if a.CapturedAt != nil && !a.CapturedAt.IsZero() {
		return *a.CapturedAt
	}
	return a.CreatedAt
}
