package fotoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fotoo-app/fotoo/pkg/fotoo/transcode"
)

// Processor orchestrates one asset's full conversion: download the
// original, classify it, convert or copy into a web-playable derivative,
// derive a thumbnail, upload the derivatives, and move the asset through
// the pending/processing/processed/failed state machine.
type Processor struct {
	repo       AssetRepository
	store      BlobStore
	transcoder transcode.Transcoder
	logger     *slog.Logger

	tempDir    string
	thumbWidth int
	thumbSeek  float64
}

// ProcessorOption represents a functional option for configuring the processor
type ProcessorOption func(*Processor)

// WithRepository sets the asset record store
func WithRepository(repo AssetRepository) ProcessorOption {
	return func(p *Processor) { p.repo = repo }
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) ProcessorOption {
	return func(p *Processor) { p.store = store }
}

// WithTranscoder sets the transcoder backend
func WithTranscoder(t transcode.Transcoder) ProcessorOption {
	return func(p *Processor) { p.transcoder = t }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// WithTempDir sets the directory for per-job scratch space
func WithTempDir(dir string) ProcessorOption {
	return func(p *Processor) { p.tempDir = dir }
}

// WithThumbnailWidth sets the target thumbnail width
func WithThumbnailWidth(width int) ProcessorOption {
	return func(p *Processor) { p.thumbWidth = width }
}

// WithThumbnailSeek sets the frame offset in seconds for video thumbnails
func WithThumbnailSeek(seconds float64) ProcessorOption {
	return func(p *Processor) { p.thumbSeek = seconds }
}

// NewProcessor creates a processing service with the given options
func NewProcessor(options ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		thumbWidth: transcode.DefaultThumbnailWidth,
		thumbSeek:  1,
	}
	for _, option := range options {
		option(p)
	}
	if p.repo == nil {
		return nil, fmt.Errorf("asset repository is required")
	}
	if p.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if p.transcoder == nil {
		return nil, fmt.Errorf("transcoder is required")
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tempDir == "" {
		p.tempDir = os.TempDir()
	}
	return p, nil
}

// derived collects the artifacts one conversion produced.
type derived struct {
	processedKey  string
	processedMime string
	processedSize int64

	thumbnailKey  string
	thumbnailMime string
	thumbnailSize int64
}

// ProcessAsset runs the full pipeline for one asset.
//
// A nil return acknowledges the job: either processing finished (the asset
// ended processed or failed), the asset no longer exists, or another worker
// already holds it. A non-nil return means a collaborator (blob storage or
// the record store) could not be reached; the asset keeps its pre-attempt
// status and the queue retries the job with backoff.
func (p *Processor) ProcessAsset(ctx context.Context, assetID uuid.UUID) error {
	logger := p.logger.With("asset_id", assetID)

	asset, err := p.repo.GetAsset(ctx, assetID)
	if errors.Is(err, ErrAssetNotFound) {
		// Stale job: the asset was deleted after being enqueued.
		logger.Info("asset gone, dropping job")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}

	prevStatus := asset.Status
	if ok, guardErr := canStartProcessing(asset.Status); !ok {
		// Duplicate delivery: another worker holds the asset.
		logger.Info("skipping job", "reason", guardErr)
		return nil
	}

	// Claim the asset before any slow I/O so duplicate jobs see the guard.
	if err := p.repo.UpdateAssetStatus(ctx, assetID, AssetStatusProcessing, ""); err != nil {
		return fmt.Errorf("claim asset: %w", err)
	}
	asset.Status = AssetStatusProcessing
	asset.Error = ""

	workDir, err := os.MkdirTemp(p.tempDir, "fotoo-job-")
	if err != nil {
		p.restoreStatus(ctx, logger, assetID, prevStatus)
		return fmt.Errorf("create work dir: %w", err)
	}
	// Cleanup is guaranteed and best-effort; some files may never exist.
	defer os.RemoveAll(workDir)

	res, err := p.convert(ctx, logger, asset, workDir)
	if err != nil {
		if IsCollaboratorError(err) {
			// The media may be fine; hand the job back to the queue and
			// release the guard so the retry can re-enter.
			p.restoreStatus(ctx, logger, assetID, prevStatus)
			return err
		}
		// Media failure: terminal for the asset, success for the queue.
		logger.Warn("processing failed", "err", err)
		if uerr := p.repo.UpdateAssetStatus(ctx, assetID, AssetStatusFailed, err.Error()); uerr != nil && !errors.Is(uerr, ErrAssetNotFound) {
			return fmt.Errorf("record failure: %w", uerr)
		}
		return nil
	}

	asset.ProcessedKey = res.processedKey
	asset.ProcessedMimeType = res.processedMime
	asset.ProcessedSize = res.processedSize
	asset.ThumbnailKey = res.thumbnailKey
	asset.ThumbnailMimeType = res.thumbnailMime
	asset.ThumbnailSize = res.thumbnailSize
	asset.Status = AssetStatusProcessed
	asset.Error = ""

	if err := p.repo.UpdateAsset(ctx, asset); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			// The asset was deleted mid-job; accepted race, drop the result.
			logger.Info("asset deleted during processing, dropping result")
			return nil
		}
		return fmt.Errorf("persist result: %w", err)
	}

	logger.Info("asset processed",
		"processed_key", asset.ProcessedKey,
		"thumbnail_key", asset.ThumbnailKey)
	return nil
}

// restoreStatus releases the processing guard after a collaborator failure.
// Failure to restore leaves the asset in processing until a lease mechanism
// or operator intervention unblocks it.
func (p *Processor) restoreStatus(ctx context.Context, logger *slog.Logger, assetID uuid.UUID, status AssetStatus) {
	if err := p.repo.UpdateAssetStatus(ctx, assetID, status, ""); err != nil && !errors.Is(err, ErrAssetNotFound) {
		logger.Error("restore status failed, asset stuck in processing", "err", err)
	}
}

// convert performs the download/classify/transcode/upload steps and
// returns the derived artifact descriptors.
func (p *Processor) convert(ctx context.Context, logger *slog.Logger, asset *Asset, workDir string) (*derived, error) {
	inputPath, err := DownloadToFile(ctx, p.store, asset.Key, workDir)
	if err != nil {
		return nil, err
	}

	format := Classify(asset.MimeType, asset.Key)
	logger.Info("classified asset", "format", format.String(), "mime_type", asset.MimeType)

	switch format {
	case FormatWebImage:
		return p.copyOriginal(ctx, logger, asset, inputPath, originalExt(asset.Key, "jpg"), asset.MimeType, false)
	case FormatMp4:
		return p.copyOriginal(ctx, logger, asset, inputPath, "mp4", "video/mp4", true)
	case FormatHeicLike:
		return p.convertOriginal(ctx, logger, asset, inputPath, workDir, "jpg", "image/jpeg", false)
	case FormatQuickTime:
		return p.convertOriginal(ctx, logger, asset, inputPath, workDir, "mp4", "video/mp4", true)
	default:
		return nil, &UnsupportedFormatError{MimeType: asset.MimeType, Key: asset.Key}
	}
}

// copyOriginal is the path for already-web-ready media: stream the original
// bytes unchanged under a fresh derived key, then derive a thumbnail from
// the local copy.
func (p *Processor) copyOriginal(ctx context.Context, logger *slog.Logger, asset *Asset, inputPath, ext, mime string, video bool) (*derived, error) {
	processedKey := BuildProcessedKey(asset.Owner, asset.CaptureDate(), asset.Key, ext)
	size, err := uploadFile(ctx, p.store, inputPath, UploadParams{ObjectKey: processedKey, MimeType: mime})
	if err != nil {
		return nil, err
	}

	res := &derived{
		processedKey:  processedKey,
		processedMime: mime,
		processedSize: size,
	}
	if err := p.deriveThumbnail(ctx, logger, asset, inputPath, video, res); err != nil {
		return nil, err
	}
	return res, nil
}

// convertOriginal is the path for media that needs re-encoding. The
// thumbnail is derived from the converted output, never from the original:
// the original may not be decodable (HEIC) or seekable (QuickTime) by the
// thumbnail tool.
func (p *Processor) convertOriginal(ctx context.Context, logger *slog.Logger, asset *Asset, inputPath, workDir, ext, mime string, video bool) (*derived, error) {
	outPath := filepath.Join(workDir, "out-"+uuid.NewString()+"."+ext)

	var err error
	if video {
		err = p.transcoder.ConvertMovToMp4(ctx, inputPath, outPath)
	} else {
		err = p.transcoder.ConvertHeicToJpeg(ctx, inputPath, outPath)
	}
	if err != nil {
		return nil, err
	}

	processedKey := BuildProcessedKey(asset.Owner, asset.CaptureDate(), asset.Key, ext)
	size, err := uploadFile(ctx, p.store, outPath, UploadParams{ObjectKey: processedKey, MimeType: mime})
	if err != nil {
		return nil, err
	}

	res := &derived{
		processedKey:  processedKey,
		processedMime: mime,
		processedSize: size,
	}
	if err := p.deriveThumbnail(ctx, logger, asset, outPath, video, res); err != nil {
		return nil, err
	}
	return res, nil
}

// deriveThumbnail extracts and uploads a JPEG thumbnail. Extraction is
// best-effort: a conversion failure only costs the thumbnail, since
// playback does not require one. Upload failures are still collaborator
// failures and propagate.
func (p *Processor) deriveThumbnail(ctx context.Context, logger *slog.Logger, asset *Asset, srcPath string, video bool, res *derived) error {
	thumbPath := filepath.Join(filepath.Dir(srcPath), "thumb-"+uuid.NewString()+".jpg")

	var err error
	if video {
		err = p.transcoder.ExtractVideoThumbnail(ctx, srcPath, thumbPath, p.thumbSeek, p.thumbWidth)
		if err != nil && p.thumbSeek > 0 {
			// Clips shorter than the seek offset have no frame there;
			// fall back to the first frame.
			err = p.transcoder.ExtractVideoThumbnail(ctx, srcPath, thumbPath, 0, p.thumbWidth)
		}
	} else {
		err = p.transcoder.ExtractImageThumbnail(ctx, srcPath, thumbPath, p.thumbWidth)
	}
	if err != nil {
		logger.Warn("thumbnail extraction failed, continuing without", "err", err)
		return nil
	}

	thumbKey := BuildProcessedKey(asset.Owner, asset.CaptureDate(), asset.Key, "jpg")
	size, err := uploadFile(ctx, p.store, thumbPath, UploadParams{ObjectKey: thumbKey, MimeType: "image/jpeg"})
	if err != nil {
		return err
	}

	res.thumbnailKey = thumbKey
	res.thumbnailMime = "image/jpeg"
	res.thumbnailSize = size
	return nil
}

// originalExt returns the lowercased extension of key, or fallback when
// the key has none.
func originalExt(key, fallback string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(key)), ".")
	if ext == "" {
		return fallback
	}
	return ext
}
