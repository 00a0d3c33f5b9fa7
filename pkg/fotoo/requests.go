package fotoo

import (
	"time"

	"github.com/google/uuid"
)

// CreateUploadSlotRequest contains parameters for reserving an upload slot.
type CreateUploadSlotRequest struct {
	OwnerID    uuid.UUID
	Owner      string
	Filename   string
	MimeType   string
	Size       int64
	CapturedAt *time.Time
}

// UploadSlot is a reserved destination for a client-side direct upload:
// a pending asset record plus a presigned PUT URL for the original bytes.
type UploadSlot struct {
	Asset     *Asset `json:"asset"`
	UploadURL string `json:"upload_url"`
}
