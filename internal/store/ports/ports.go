// Package ports defines the storage contracts of the coordinator.
// Interfaces are placed here when consumed by multiple services to avoid
// duplication; implementations live in internal/store/local and
// internal/store/remote.
package ports

import (
	"context"

	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	ledgermodels "atelier/internal/ledger/models"
	id "atelier/pkg/domain"
)

// LocalCache is the device-resident store: fast, always available, and the
// only store guests can rely on. Missing rows are reported with
// sentinel.ErrNotFound.
type LocalCache interface {
	// GalleryImages returns every cached image, newest first.
	GalleryImages(ctx context.Context) ([]gallerymodels.GalleryImage, error)

	// AddGalleryImages prepends a batch of images in one write.
	AddGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error

	// ReplaceGalleryImages overwrites the entire cached set.
	ReplaceGalleryImages(ctx context.Context, images []gallerymodels.GalleryImage) error

	// DeleteGalleryImage removes one image by ID.
	DeleteGalleryImage(ctx context.Context, imageID string) error

	// ReplaceGalleryImage swaps an image in place, keeping its position.
	ReplaceGalleryImage(ctx context.Context, imageID string, img gallerymodels.GalleryImage) error

	// HistoryEntries returns every cached generation record, newest first.
	HistoryEntries(ctx context.Context) ([]historymodels.Entry, error)

	// AddHistoryEntry appends one generation record.
	AddHistoryEntry(ctx context.Context, entry historymodels.Entry) error

	// DeviceID returns the persisted guest device identifier.
	DeviceID(ctx context.Context) (id.DeviceID, error)

	// SaveDeviceID persists the guest device identifier.
	SaveDeviceID(ctx context.Context, deviceID id.DeviceID) error

	// MigrateLegacyData lifts data written under superseded cache keys into
	// the current layout. Idempotent.
	MigrateLegacyData(ctx context.Context) error
}

// UserStore is the durable remote surface for authenticated users. Every
// call carries the caller's auth token via requestcontext.
type UserStore interface {
	// Credits returns the user's current balance.
	Credits(ctx context.Context, userID id.UserID) (int, error)

	// DeductCredits atomically checks and deducts. An insufficient balance
	// is an outcome, not an error; errors mean the verdict is unknown.
	DeductCredits(ctx context.Context, userID id.UserID, amount int) (ledgermodels.Deduction, error)

	// Gallery returns the user's full remote gallery, newest first.
	Gallery(ctx context.Context, userID id.UserID) ([]gallerymodels.GalleryImage, error)

	// AddGalleryImages persists a batch of images in one call.
	AddGalleryImages(ctx context.Context, userID id.UserID, images []gallerymodels.GalleryImage) error

	// RemoveGalleryImage deletes one image by ID.
	RemoveGalleryImage(ctx context.Context, userID id.UserID, imageID string) error

	// UploadImage stores raw image content and returns its durable URL.
	UploadImage(ctx context.Context, userID id.UserID, upload gallerymodels.ImageUpload) (string, error)

	// LogGeneration appends a generation record to the user's history.
	LogGeneration(ctx context.Context, userID id.UserID, entry historymodels.Entry) error
}

// GuestStore is the durable remote surface for anonymous devices. Balances
// are keyed by device ID; a device never seen before starts at the
// configured default.
type GuestStore interface {
	// Credits returns the device's balance, creating the row at the default
	// allowance on first sight.
	Credits(ctx context.Context, deviceID id.DeviceID) (int, error)

	// DeductCredits atomically checks and deducts, with the same outcome
	// semantics as UserStore.DeductCredits.
	DeductCredits(ctx context.Context, deviceID id.DeviceID, amount int) (ledgermodels.Deduction, error)

	// Gallery returns the device's remote gallery, newest first.
	Gallery(ctx context.Context, deviceID id.DeviceID) ([]gallerymodels.GalleryImage, error)

	// SaveGalleryBatch persists a batch of images for the device.
	SaveGalleryBatch(ctx context.Context, deviceID id.DeviceID, images []gallerymodels.GalleryImage) error

	// UploadImage stores raw image content and returns its durable URL.
	UploadImage(ctx context.Context, deviceID id.DeviceID, upload gallerymodels.ImageUpload) (string, error)
}

// HistorySink receives generation records emitted for downstream consumers.
type HistorySink interface {
	Publish(ctx context.Context, entry historymodels.Entry) error
	Close(ctx context.Context) error
}
