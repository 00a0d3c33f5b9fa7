package fotoo

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrAssetNotFound indicates an asset record was not found
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAlreadyProcessing indicates a processing attempt found the asset
	// already claimed by another worker (duplicate-delivery guard)
	ErrAlreadyProcessing = errors.New("asset is already being processed")

	// ErrForbidden indicates the requester does not own the asset
	ErrForbidden = errors.New("requester does not own asset")

	// ErrInvalidStatusTransition indicates a disallowed lifecycle transition
	ErrInvalidStatusTransition = errors.New("invalid asset status transition")

	// ErrAssetNotReady indicates derived artifacts were requested before
	// processing finished (or after it failed)
	ErrAssetNotReady = errors.New("asset not ready")
)

// UnsupportedFormatError indicates the classifier could not map the asset
// to a processable format. Terminal: the asset is marked failed.
type UnsupportedFormatError struct {
	MimeType string
	Key      string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported mime type for processing: %s", e.MimeType)
}

// AssetError wraps an error from an operation scoped to one asset.
type AssetError struct {
	AssetID uuid.UUID
	Op      string
	Err     error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset operation %s failed for asset %s: %v", e.Op, e.AssetID, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations.
// Storage failures are collaborator failures: they propagate to the job
// queue for backoff-and-retry instead of failing the asset.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsCollaboratorError reports whether err came from reaching a collaborator
// (blob storage or the record store) rather than from the media itself.
// Collaborator errors escape ProcessAsset so the queue retries the job.
func IsCollaboratorError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
