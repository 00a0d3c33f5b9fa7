package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

// Repository implements fotoo.AssetRepository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*fotoo.Asset
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		assets: make(map[uuid.UUID]*fotoo.Asset),
	}
}

func (r *Repository) CreateAsset(ctx context.Context, asset *fotoo.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	assetCopy := *asset
	r.assets[asset.ID] = &assetCopy
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*fotoo.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, fotoo.ErrAssetNotFound
	}
	// Return a copy to prevent external modifications
	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *fotoo.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[asset.ID]; !exists {
		return fotoo.ErrAssetNotFound
	}

	assetCopy := *asset
	assetCopy.UpdatedAt = time.Now().UTC()
	r.assets[asset.ID] = &assetCopy
	return nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[id]; !exists {
		return fotoo.ErrAssetNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *Repository) ListAssets(ctx context.Context, ownerID uuid.UUID, limit int) ([]*fotoo.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*fotoo.Asset
	for _, asset := range r.assets {
		if asset.OwnerID == ownerID {
			assetCopy := *asset
			result = append(result, &assetCopy)
		}
	}

	// Newest capture first, creation time as tiebreaker
	sort.Slice(result, func(i, j int) bool {
		ci, cj := result[i].CaptureDate(), result[j].CaptureDate()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Repository) UpdateAssetStatus(ctx context.Context, id uuid.UUID, status fotoo.AssetStatus, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, exists := r.assets[id]
	if !exists {
		return fotoo.ErrAssetNotFound
	}
	asset.Status = status
	asset.Error = errText
	asset.UpdatedAt = time.Now().UTC()
	return nil
}
