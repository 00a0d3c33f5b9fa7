package fotoo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repo     AssetRepository
	store    BlobStore
	queue    Enqueuer
	detacher CollectionDetacher
	bucket   string
	logger   *slog.Logger
}

// ServiceOption represents a functional option for configuring the service
type ServiceOption func(*service)

// WithAssetRepository sets the asset record store
func WithAssetRepository(repo AssetRepository) ServiceOption {
	return func(s *service) { s.repo = repo }
}

// WithStorage sets the blob storage backend
func WithStorage(store BlobStore) ServiceOption {
	return func(s *service) { s.store = store }
}

// WithQueue sets the processing job queue
func WithQueue(q Enqueuer) ServiceOption {
	return func(s *service) { s.queue = q }
}

// WithCollectionDetacher sets the album-membership collaborator
func WithCollectionDetacher(d CollectionDetacher) ServiceOption {
	return func(s *service) { s.detacher = d }
}

// WithBucket sets the bucket name recorded on new assets
func WithBucket(bucket string) ServiceOption {
	return func(s *service) { s.bucket = bucket }
}

// WithServiceLogger sets the logger
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) { s.logger = logger }
}

// NewService creates a media service instance with the given options
func NewService(options ...ServiceOption) (Service, error) {
	s := &service{
		detacher: NoopDetacher{},
	}
	for _, option := range options {
		option(s)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("asset repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("job queue is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *service) CreateUploadSlot(ctx context.Context, req CreateUploadSlotRequest) (*UploadSlot, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if req.Owner == "" {
		return nil, fmt.Errorf("owner is required")
	}

	now := time.Now().UTC()
	dateForKey := now
	if req.CapturedAt != nil && !req.CapturedAt.IsZero() {
		dateForKey = *req.CapturedAt
	}

	asset := &Asset{
		ID:         uuid.New(),
		OwnerID:    req.OwnerID,
		Owner:      req.Owner,
		Bucket:     s.bucket,
		Key:        BuildUploadKey(req.Owner, dateForKey, req.Filename),
		MimeType:   req.MimeType,
		Size:       req.Size,
		Status:     AssetStatusPending,
		CapturedAt: req.CapturedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, &AssetError{AssetID: asset.ID, Op: "create", Err: err}
	}

	uploadURL, err := s.store.GetUploadURL(ctx, asset.Key, asset.MimeType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("upload slot created", "asset_id", asset.ID, "key", asset.Key)
	return &UploadSlot{Asset: asset, UploadURL: uploadURL}, nil
}

func (s *service) EnqueueProcessing(ctx context.Context, assetID, requesterID uuid.UUID) error {
	asset, err := s.loadOwned(ctx, assetID, requesterID)
	if err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, asset.ID); err != nil {
		return &AssetError{AssetID: assetID, Op: "enqueue", Err: err}
	}
	s.logger.Info("processing enqueued", "asset_id", assetID)
	return nil
}

func (s *service) GetAsset(ctx context.Context, assetID, requesterID uuid.UUID) (*Asset, error) {
	return s.loadOwned(ctx, assetID, requesterID)
}

func (s *service) ListAssets(ctx context.Context, requesterID uuid.UUID, limit int) ([]*Asset, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListAssets(ctx, requesterID, limit)
}

func (s *service) GetDownloadURL(ctx context.Context, assetID, requesterID uuid.UUID) (string, error) {
	asset, err := s.loadOwned(ctx, assetID, requesterID)
	if err != nil {
		return "", err
	}
	if ok, err := canServeDerived(asset.Status); !ok {
		return "", err
	}
	// Clients only ever see the processed derivative; originals stay private.
	return s.store.GetDownloadURL(ctx, asset.ProcessedKey)
}

func (s *service) OpenThumbnail(ctx context.Context, assetID, requesterID uuid.UUID) (io.ReadCloser, string, error) {
	asset, err := s.loadOwned(ctx, assetID, requesterID)
	if err != nil {
		return nil, "", err
	}
	if ok, err := canServeDerived(asset.Status); !ok {
		return nil, "", err
	}

	if asset.ThumbnailKey != "" {
		rc, err := s.store.Download(ctx, asset.ThumbnailKey)
		if err != nil {
			return nil, "", err
		}
		mime := asset.ThumbnailMimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		return rc, mime, nil
	}

	// Thumbnails are best-effort; for images the processed object itself
	// is an acceptable fallback. Videos have no such fallback.
	if strings.HasPrefix(asset.ProcessedMimeType, "image/") && asset.ProcessedKey != "" {
		rc, err := s.store.Download(ctx, asset.ProcessedKey)
		if err != nil {
			return nil, "", err
		}
		return rc, asset.ProcessedMimeType, nil
	}
	return nil, "", fmt.Errorf("%w: no thumbnail stored", ErrAssetNotReady)
}

func (s *service) DeleteAsset(ctx context.Context, assetID, requesterID uuid.UUID) error {
	asset, err := s.loadOwned(ctx, assetID, requesterID)
	if err != nil {
		return err
	}

	if err := s.detacher.DetachAsset(ctx, assetID); err != nil {
		return &AssetError{AssetID: assetID, Op: "detach", Err: err}
	}

	for _, key := range []string{asset.Key, asset.ProcessedKey, asset.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			// Keep going; an orphaned blob beats a half-deleted record
			// that still references missing objects.
			s.logger.Warn("delete blob failed", "asset_id", assetID, "key", key, "err", err)
		}
	}

	if err := s.repo.DeleteAsset(ctx, assetID); err != nil {
		return &AssetError{AssetID: assetID, Op: "delete", Err: err}
	}
	s.logger.Info("asset deleted", "asset_id", assetID)
	return nil
}

func (s *service) loadOwned(ctx context.Context, assetID, requesterID uuid.UUID) (*Asset, error) {
	asset, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if requesterID != uuid.Nil && asset.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return asset, nil
}
