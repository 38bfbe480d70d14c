// Package local implements the device-resident cache store.
package local

import (
	"context"
	"sync"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

// MemoryCache is an in-memory LocalCache. Suitable for tests and for hosts
// that keep cache state for a single session only; for persistence across
// restarts, use RedisCache instead.
type MemoryCache struct {
	mu       sync.RWMutex
	images   []gallerymodels.GalleryImage
	history  []historymodels.Entry
	deviceID id.DeviceID

	// Legacy buckets emulate data written under superseded layouts; they
	// are folded in by MigrateLegacyData and then cleared.
	legacyImages  []gallerymodels.GalleryImage
	legacyHistory []historymodels.Entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// SeedLegacy loads data into the superseded layout, for exercising
// MigrateLegacyData.
func (c *MemoryCache) SeedLegacy(images []gallerymodels.GalleryImage, history []historymodels.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.legacyImages = append(c.legacyImages, images...)
	c.legacyHistory = append(c.legacyHistory, history...)
}

// GalleryImages returns every cached image, newest first.
func (c *MemoryCache) GalleryImages(ctx context.Context) ([]gallerymodels.GalleryImage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]gallerymodels.GalleryImage, len(c.images))
	copy(out, c.images)
	return out, nil
}

// AddGalleryImages prepends a batch in one write, preserving batch order.
func (c *MemoryCache) AddGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error {
	if len(images) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]gallerymodels.GalleryImage, 0, len(images)+len(c.images))
	merged = append(merged, images...)
	merged = append(merged, c.images...)
	c.images = merged
	return nil
}

// ReplaceGalleryImages overwrites the entire cached set.
func (c *MemoryCache) ReplaceGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make([]gallerymodels.GalleryImage, len(images))
	copy(c.images, images)
	return nil
}

// DeleteGalleryImage removes one image by ID.
func (c *MemoryCache) DeleteGalleryImage(ctx context.Context, imageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, img := range c.images {
		if img.ID == imageID {
			c.images = append(c.images[:i], c.images[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// ReplaceGalleryImage swaps an image in place, keeping its position.
func (c *MemoryCache) ReplaceGalleryImage(ctx context.Context, imageID string, img gallerymodels.GalleryImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.images {
		if cur.ID == imageID {
			c.images[i] = img
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// HistoryEntries returns every cached generation record, newest first.
func (c *MemoryCache) HistoryEntries(ctx context.Context) ([]historymodels.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]historymodels.Entry, len(c.history))
	copy(out, c.history)
	return out, nil
}

// AddHistoryEntry prepends one generation record.
func (c *MemoryCache) AddHistoryEntry(ctx context.Context, entry historymodels.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append([]historymodels.Entry{entry}, c.history...)
	return nil
}

// DeviceID returns the persisted guest device identifier.
func (c *MemoryCache) DeviceID(ctx context.Context) (id.DeviceID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.deviceID == "" {
		return "", sentinel.ErrNotFound
	}
	return c.deviceID, nil
}

// SaveDeviceID persists the guest device identifier.
func (c *MemoryCache) SaveDeviceID(ctx context.Context, deviceID id.DeviceID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceID = deviceID
	return nil
}

// MigrateLegacyData folds superseded-layout data into the current layout.
// Current data wins on ID collision. Idempotent: legacy buckets are cleared
// once lifted.
func (c *MemoryCache) MigrateLegacyData(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.legacyImages) > 0 {
		seen := make(map[string]struct{}, len(c.images))
		for _, img := range c.images {
			seen[img.ID] = struct{}{}
		}
		for _, img := range c.legacyImages {
			if _, ok := seen[img.ID]; ok {
				continue
			}
			c.images = append(c.images, img)
		}
		c.legacyImages = nil
	}

	if len(c.legacyHistory) > 0 {
		seen := make(map[string]struct{}, len(c.history))
		for _, e := range c.history {
			seen[e.ID] = struct{}{}
		}
		for _, e := range c.legacyHistory {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			c.history = append(c.history, e)
		}
		c.legacyHistory = nil
	}

	return nil
}
