package local

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
)

const (
	galleryKey  = "atelier:cache:gallery"
	historyKey  = "atelier:cache:history"
	deviceIDKey = "atelier:cache:device_id"

	// Superseded flat keys from the first cache layout; MigrateLegacyData
	// lifts them into the keys above and deletes them.
	legacyGalleryKey = "gallery_images"
	legacyHistoryKey = "generation_history"
)

// RedisCache is a Redis-backed LocalCache that survives host restarts.
// Collections are stored as single JSON documents; the cache is
// device-resident so writes are serialized through one process.
type RedisCache struct {
	client *redis.Client
	mu     sync.Mutex
}

// NewRedisCache constructs a Redis-backed cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) readImages(ctx context.Context, key string) ([]gallerymodels.GalleryImage, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read cached gallery")
	}
	var images []gallerymodels.GalleryImage
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode cached gallery")
	}
	return images, nil
}

func (c *RedisCache) writeImages(ctx context.Context, key string, images []gallerymodels.GalleryImage) error {
	raw, err := json.Marshal(images)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode cached gallery")
	}
	if err := c.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write cached gallery")
	}
	return nil
}

// GalleryImages returns every cached image, newest first.
func (c *RedisCache) GalleryImages(ctx context.Context) ([]gallerymodels.GalleryImage, error) {
	return c.readImages(ctx, galleryKey)
}

// AddGalleryImages prepends a batch in one write, preserving batch order.
func (c *RedisCache) AddGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error {
	if len(images) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.readImages(ctx, galleryKey)
	if err != nil {
		return err
	}
	merged := make([]gallerymodels.GalleryImage, 0, len(images)+len(existing))
	merged = append(merged, images...)
	merged = append(merged, existing...)
	return c.writeImages(ctx, galleryKey, merged)
}

// ReplaceGalleryImages overwrites the entire cached set.
func (c *RedisCache) ReplaceGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeImages(ctx, galleryKey, images)
}

// DeleteGalleryImage removes one image by ID.
func (c *RedisCache) DeleteGalleryImage(ctx context.Context, imageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	images, err := c.readImages(ctx, galleryKey)
	if err != nil {
		return err
	}
	for i, img := range images {
		if img.ID == imageID {
			return c.writeImages(ctx, galleryKey, append(images[:i], images[i+1:]...))
		}
	}
	return sentinel.ErrNotFound
}

// ReplaceGalleryImage swaps an image in place, keeping its position.
func (c *RedisCache) ReplaceGalleryImage(ctx context.Context, imageID string, img gallerymodels.GalleryImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	images, err := c.readImages(ctx, galleryKey)
	if err != nil {
		return err
	}
	for i, cur := range images {
		if cur.ID == imageID {
			images[i] = img
			return c.writeImages(ctx, galleryKey, images)
		}
	}
	return sentinel.ErrNotFound
}

func (c *RedisCache) readHistory(ctx context.Context, key string) ([]historymodels.Entry, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read cached history")
	}
	var entries []historymodels.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode cached history")
	}
	return entries, nil
}

func (c *RedisCache) writeHistory(ctx context.Context, entries []historymodels.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode cached history")
	}
	if err := c.client.Set(ctx, historyKey, raw, 0).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write cached history")
	}
	return nil
}

// HistoryEntries returns every cached generation record, newest first.
func (c *RedisCache) HistoryEntries(ctx context.Context) ([]historymodels.Entry, error) {
	return c.readHistory(ctx, historyKey)
}

// AddHistoryEntry prepends one generation record.
func (c *RedisCache) AddHistoryEntry(ctx context.Context, entry historymodels.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.readHistory(ctx, historyKey)
	if err != nil {
		return err
	}
	return c.writeHistory(ctx, append([]historymodels.Entry{entry}, entries...))
}

// DeviceID returns the persisted guest device identifier.
func (c *RedisCache) DeviceID(ctx context.Context) (id.DeviceID, error) {
	raw, err := c.client.Get(ctx, deviceIDKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read device id")
	}
	deviceID, err := id.ParseDeviceID(raw)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "stored device id invalid")
	}
	return deviceID, nil
}

// SaveDeviceID persists the guest device identifier.
func (c *RedisCache) SaveDeviceID(ctx context.Context, deviceID id.DeviceID) error {
	if err := c.client.Set(ctx, deviceIDKey, deviceID.String(), 0).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write device id")
	}
	return nil
}

// MigrateLegacyData lifts data written under the superseded flat keys into
// the current layout, then deletes the flat keys. Current data wins on ID
// collision. Idempotent.
func (c *RedisCache) MigrateLegacyData(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	legacyImages, err := c.readImages(ctx, legacyGalleryKey)
	if err != nil {
		return err
	}
	if len(legacyImages) > 0 {
		current, err := c.readImages(ctx, galleryKey)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(current))
		for _, img := range current {
			seen[img.ID] = struct{}{}
		}
		for _, img := range legacyImages {
			if _, ok := seen[img.ID]; ok {
				continue
			}
			current = append(current, img)
		}
		if err := c.writeImages(ctx, galleryKey, current); err != nil {
			return err
		}
	}

	legacyHistory, err := c.readHistory(ctx, legacyHistoryKey)
	if err != nil {
		return err
	}
	if len(legacyHistory) > 0 {
		current, err := c.readHistory(ctx, historyKey)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(current))
		for _, e := range current {
			seen[e.ID] = struct{}{}
		}
		for _, e := range legacyHistory {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			current = append(current, e)
		}
		if err := c.writeHistory(ctx, current); err != nil {
			return err
		}
	}

	if err := c.client.Del(ctx, legacyGalleryKey, legacyHistoryKey).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "drop legacy cache keys")
	}
	return nil
}
