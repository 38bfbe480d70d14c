package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

func image(imageID string) gallerymodels.GalleryImage {
	return gallerymodels.GalleryImage{
		ID:        imageID,
		URL:       "https://img.example/" + imageID + ".png",
		ToolID:    "free-generation",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCacheAddPrependsBatch(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("a")}))
	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("b"), image("c")}))

	got, err := cache.GalleryImages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest batch first, batch order preserved inside it.
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)
}

func TestMemoryCacheDeleteGalleryImage(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("a"), image("b")}))

	require.NoError(t, cache.DeleteGalleryImage(ctx, "a"))

	got, err := cache.GalleryImages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	err = cache.DeleteGalleryImage(ctx, "a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryCacheReplaceGalleryImageKeepsPosition(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("a"), image("b"), image("c")}))

	replacement := image("b2")
	require.NoError(t, cache.ReplaceGalleryImage(ctx, "b", replacement))

	got, err := cache.GalleryImages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b2", got[1].ID)
	assert.Equal(t, "c", got[2].ID)

	err = cache.ReplaceGalleryImage(ctx, "missing", replacement)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryCacheReplaceAllOverwrites(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("stale")}))

	require.NoError(t, cache.ReplaceGalleryImages(ctx, []gallerymodels.GalleryImage{image("x"), image("y")}))

	got, err := cache.GalleryImages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].ID)
}

func TestMemoryCacheHistory(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	first := historymodels.Entry{ID: "h1", ToolID: "free-generation", Prompt: "a cat"}
	second := historymodels.Entry{ID: "h2", ToolID: "photo-restoration"}
	require.NoError(t, cache.AddHistoryEntry(ctx, first))
	require.NoError(t, cache.AddHistoryEntry(ctx, second))

	got, err := cache.HistoryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h2", got[0].ID)
	assert.Equal(t, "h1", got[1].ID)
}

func TestMemoryCacheDeviceID(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, err := cache.DeviceID(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	deviceID := id.NewDeviceID()
	require.NoError(t, cache.SaveDeviceID(ctx, deviceID))

	got, err := cache.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, deviceID, got)
}

func TestMemoryCacheMigrateLegacyData(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.AddGalleryImages(ctx, []gallerymodels.GalleryImage{image("current")}))
	cache.SeedLegacy(
		[]gallerymodels.GalleryImage{image("old"), image("current")},
		[]historymodels.Entry{{ID: "h-old"}},
	)

	require.NoError(t, cache.MigrateLegacyData(ctx))

	images, err := cache.GalleryImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "current", images[0].ID)
	assert.Equal(t, "old", images[1].ID)

	history, err := cache.HistoryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// Second run is a no-op.
	require.NoError(t, cache.MigrateLegacyData(ctx))
	images, err = cache.GalleryImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}
