package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements fotoo.AssetRepository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("asset key already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fotoo.ErrAssetNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const assetColumns = `
	id, owner_id, owner, bucket, key, mime_type, size,
	processed_key, processed_mime_type, processed_size,
	thumbnail_key, thumbnail_mime_type, thumbnail_size,
	status, error, title, description,
	captured_at, created_at, updated_at`

func (r *Repository) CreateAsset(ctx context.Context, asset *fotoo.Asset) error {
	query := `
		INSERT INTO media_assets (` + assetColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.OwnerID, asset.Owner, asset.Bucket, asset.Key,
		asset.MimeType, asset.Size,
		nullable(asset.ProcessedKey), nullable(asset.ProcessedMimeType), asset.ProcessedSize,
		nullable(asset.ThumbnailKey), nullable(asset.ThumbnailMimeType), asset.ThumbnailSize,
		asset.Status, nullable(asset.Error), asset.Title, asset.Description,
		asset.CapturedAt, asset.CreatedAt, asset.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create asset", err)
	}
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*fotoo.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM media_assets WHERE id = $1`
	return r.scanAsset(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *fotoo.Asset) error {
	query := `
		UPDATE media_assets SET
			processed_key = $2, processed_mime_type = $3, processed_size = $4,
			thumbnail_key = $5, thumbnail_mime_type = $6, thumbnail_size = $7,
			status = $8, error = $9, title = $10, description = $11,
			captured_at = $12, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		asset.ID,
		nullable(asset.ProcessedKey), nullable(asset.ProcessedMimeType), asset.ProcessedSize,
		nullable(asset.ThumbnailKey), nullable(asset.ThumbnailMimeType), asset.ThumbnailSize,
		asset.Status, nullable(asset.Error), asset.Title, asset.Description,
		asset.CapturedAt)
	if err != nil {
		return r.handlePostgresError("update asset", err)
	}
	if tag.RowsAffected() == 0 {
		return fotoo.ErrAssetNotFound
	}
	return nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete asset", err)
	}
	if tag.RowsAffected() == 0 {
		return fotoo.ErrAssetNotFound
	}
	return nil
}

func (r *Repository) ListAssets(ctx context.Context, ownerID uuid.UUID, limit int) ([]*fotoo.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM media_assets
		WHERE owner_id = $1
		ORDER BY COALESCE(captured_at, created_at) DESC, created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	defer rows.Close()

	var assets []*fotoo.Asset
	for rows.Next() {
		asset, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	return assets, nil
}

func (r *Repository) UpdateAssetStatus(ctx context.Context, id uuid.UUID, status fotoo.AssetStatus, errText string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE media_assets SET status = $2, error = $3, updated_at = NOW() WHERE id = $1`,
		id, status, nullable(errText))
	if err != nil {
		return r.handlePostgresError("update asset status", err)
	}
	if tag.RowsAffected() == 0 {
		return fotoo.ErrAssetNotFound
	}
	return nil
}

func (r *Repository) scanAsset(row pgx.Row) (*fotoo.Asset, error) {
	var asset fotoo.Asset
	var processedKey, processedMime, thumbKey, thumbMime, errText *string
	var processedSize, thumbSize *int64

	err := row.Scan(
		&asset.ID, &asset.OwnerID, &asset.Owner, &asset.Bucket, &asset.Key,
		&asset.MimeType, &asset.Size,
		&processedKey, &processedMime, &processedSize,
		&thumbKey, &thumbMime, &thumbSize,
		&asset.Status, &errText, &asset.Title, &asset.Description,
		&asset.CapturedAt, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, r.handlePostgresError("get asset", err)
	}

	asset.ProcessedKey = deref(processedKey)
	asset.ProcessedMimeType = deref(processedMime)
	asset.ProcessedSize = derefInt(processedSize)
	asset.ThumbnailKey = deref(thumbKey)
	asset.ThumbnailMimeType = deref(thumbMime)
	asset.ThumbnailSize = derefInt(thumbSize)
	asset.Error = deref(errText)
	return &asset, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
