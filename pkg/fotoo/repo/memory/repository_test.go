package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
	"github.com/fotoo-app/fotoo/pkg/fotoo/repo/memory"
)

func newAsset(ownerID uuid.UUID, key string) *fotoo.Asset {
	now := time.Now().UTC()
	return &fotoo.Asset{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Owner:     "alice",
		Key:       key,
		MimeType:  "image/jpeg",
		Status:    fotoo.AssetStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAssetCRUD(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ownerID := uuid.New()

	asset := newAsset(ownerID, "alice/2024/01/01/a.jpg")
	require.NoError(t, repo.CreateAsset(ctx, asset))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetAsset(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, asset.Key, got.Key)
		assert.Equal(t, fotoo.AssetStatusPending, got.Status)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := repo.GetAsset(ctx, asset.ID)
		require.NoError(t, err)
		got.Key = "mutated"

		again, err := repo.GetAsset(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, asset.Key, again.Key)
	})

	t.Run("update", func(t *testing.T) {
		got, err := repo.GetAsset(ctx, asset.ID)
		require.NoError(t, err)
		got.ProcessedKey = "alice/processed/2024/01/01/tok_a.jpg"
		got.Status = fotoo.AssetStatusProcessed
		require.NoError(t, repo.UpdateAsset(ctx, got))

		again, err := repo.GetAsset(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, fotoo.AssetStatusProcessed, again.Status)
		assert.Equal(t, got.ProcessedKey, again.ProcessedKey)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteAsset(ctx, asset.ID))
		_, err := repo.GetAsset(ctx, asset.ID)
		assert.ErrorIs(t, err, fotoo.ErrAssetNotFound)
	})

	t.Run("operations on missing asset", func(t *testing.T) {
		missing := uuid.New()
		_, err := repo.GetAsset(ctx, missing)
		assert.ErrorIs(t, err, fotoo.ErrAssetNotFound)
		assert.ErrorIs(t, repo.DeleteAsset(ctx, missing), fotoo.ErrAssetNotFound)
		assert.ErrorIs(t, repo.UpdateAsset(ctx, newAsset(ownerID, "x")), fotoo.ErrAssetNotFound)
		assert.ErrorIs(t, repo.UpdateAssetStatus(ctx, missing, fotoo.AssetStatusFailed, "x"), fotoo.ErrAssetNotFound)
	})
}

func TestUpdateAssetStatus(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	asset := newAsset(uuid.New(), "alice/2024/01/01/a.jpg")
	require.NoError(t, repo.CreateAsset(ctx, asset))

	require.NoError(t, repo.UpdateAssetStatus(ctx, asset.ID, fotoo.AssetStatusFailed, "conversion failed"))
	got, err := repo.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, fotoo.AssetStatusFailed, got.Status)
	assert.Equal(t, "conversion failed", got.Error)

	// Error text is replaced, not appended.
	require.NoError(t, repo.UpdateAssetStatus(ctx, asset.ID, fotoo.AssetStatusProcessing, ""))
	got, err = repo.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, fotoo.AssetStatusProcessing, got.Status)
	assert.Empty(t, got.Error)
}

func TestListAssetsSortsByCaptureDate(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ownerID := uuid.New()

	capture := func(y int) *time.Time {
		t := time.Date(y, 6, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}

	a := newAsset(ownerID, "a")
	a.CapturedAt = capture(2020)
	b := newAsset(ownerID, "b")
	b.CapturedAt = capture(2024)
	// c has no capture date; its creation time (now) sorts it first.
	c := newAsset(ownerID, "c")

	other := newAsset(uuid.New(), "other")

	for _, asset := range []*fotoo.Asset{a, b, c, other} {
		require.NoError(t, repo.CreateAsset(ctx, asset))
	}

	assets, err := repo.ListAssets(ctx, ownerID, 10)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "c", assets[0].Key)
	assert.Equal(t, "b", assets[1].Key)
	assert.Equal(t, "a", assets[2].Key)

	t.Run("limit", func(t *testing.T) {
		assets, err := repo.ListAssets(ctx, ownerID, 2)
		require.NoError(t, err)
		assert.Len(t, assets, 2)
	})
}
