// Package gallery keeps the session's image list consistent across three
// tiers: the in-memory list driving the UI, the device-local cache, and the
// durable remote store. Writes are optimistic; the remote store wins on
// refresh.
package gallery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"atelier/internal/gallery/metrics"
	"atelier/internal/gallery/models"
	"atelier/internal/identity"
	"atelier/internal/notify"
	"atelier/internal/store/ports"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
)

const (
	tracerName = "gallery"

	// Concurrent durable uploads per batch.
	uploadConcurrency = 4
)

// PrincipalResolver yields the acting principal for a request.
type PrincipalResolver interface {
	Resolve(ctx context.Context) (identity.Principal, error)
}

// NewImage is one generation result headed for the gallery. When Upload is
// set, the content is pushed to durable storage first and the stored URL
// replaces Image.URL; otherwise Image.URL is persisted as-is.
type NewImage struct {
	Image  models.GalleryImage
	Upload *models.ImageUpload
}

// Service is the gallery reconciler.
type Service struct {
	resolver PrincipalResolver
	users    ports.UserStore
	guests   ports.GuestStore
	cache    ports.LocalCache
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu     sync.RWMutex
	images []models.GalleryImage
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for reconciliation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches gallery metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the gallery reconciler.
func NewService(resolver PrincipalResolver, users ports.UserStore, guests ports.GuestStore,
	cache ports.LocalCache, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		users:    users,
		guests:   guests,
		cache:    cache,
		notifier: notifier,
	}
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Images returns the current in-memory list, newest first.
func (s *Service) Images() []models.GalleryImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GalleryImage, len(s.images))
	copy(out, s.images)
	return out
}

func (s *Service) setImages(images []models.GalleryImage) {
	s.mu.Lock()
	s.images = images
	s.mu.Unlock()
}

func (s *Service) prepend(images []models.GalleryImage) {
	s.mu.Lock()
	merged := make([]models.GalleryImage, 0, len(images)+len(s.images))
	merged = append(merged, images...)
	merged = append(merged, s.images...)
	s.images = merged
	s.mu.Unlock()
}

// Refresh replaces the session list with the authoritative store's view:
// the remote gallery for users, the durable guest gallery for guests. The
// cache is bypassed on the read and rewritten from the result, so images
// saved durably in an earlier session come back even after the cache is
// cleared. The overwrite is unconditional; additions racing a refresh are
// reconciled on the next one.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gallery.Refresh")
	defer span.End()
	start := time.Now()

	principal, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	var images []models.GalleryImage
	switch p := principal.(type) {
	case identity.User:
		images, err = s.users.Gallery(ctx, p.UserID)
	case identity.Guest:
		images, err = s.guests.Gallery(ctx, p.DeviceID)
	default:
		err = dErrors.New(dErrors.CodeInternal, "unknown principal kind")
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RefreshFailures.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return err
	}

	s.setImages(images)

	// Mirror the authoritative view into the cache so the next offline
	// session starts from it.
	if cacheErr := s.cache.ReplaceGalleryImages(ctx, images); cacheErr != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to mirror gallery into cache", "error", cacheErr)
	}

	if s.metrics != nil {
		s.metrics.ObserveRefresh(start)
	}
	span.SetAttributes(attribute.Int("images", len(images)))
	return nil
}

// AddImages persists a batch of generation results and prepends them to the
// session list, returning the images that actually entered it (dedupe may
// shrink the batch, uploads rewrite URLs). The batch is deduplicated against
// the current list, uploaded concurrently when raw content is attached,
// deduplicated again by the durable URLs the uploads produced, then
// persisted. If any durable step fails, the WHOLE batch falls back to
// local-only persistence; no partial remote batches.
func (s *Service) AddImages(ctx context.Context, batch []NewImage) ([]models.GalleryImage, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gallery.AddImages",
		trace.WithAttributes(attribute.Int("batch", len(batch))))
	defer span.End()

	batch = s.dedupe(batch)
	if len(batch) == 0 {
		return nil, nil
	}

	principal, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	images, uploadErr := s.uploadBatch(ctx, principal, batch)

	var persistErr error
	if uploadErr == nil {
		// Uploads mint durable URLs the pre-upload pass could not see;
		// an identical re-upload resolves to a URL already in the list.
		images = s.dropKnownURLs(images)
		if len(images) == 0 {
			return nil, nil
		}
		switch p := principal.(type) {
		case identity.User:
			persistErr = s.users.AddGalleryImages(ctx, p.UserID, images)
		case identity.Guest:
			// Guests dual-write: the durable copy survives a cleared
			// cache, the cached copy works offline.
			persistErr = s.guests.SaveGalleryBatch(ctx, p.DeviceID, images)
		}
	}

	if uploadErr != nil || persistErr != nil {
		err := uploadErr
		if err == nil {
			err = persistErr
		}
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.LocalFallbacks.Inc()
			s.metrics.ImagesAdded.WithLabelValues("local").Add(float64(len(batch)))
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "durable gallery write failed, keeping batch local",
				"batch", len(batch), "error", err)
		}
		s.notifier.Notify(ctx, notify.Notice{
			Severity:   notify.SeverityWarning,
			MessageKey: "gallery.saved_locally",
		})

		// Fall back to the pre-upload images: durable URLs were never
		// obtained.
		images = make([]models.GalleryImage, len(batch))
		for i, n := range batch {
			images[i] = n.Image
		}
	} else if s.metrics != nil {
		s.metrics.ImagesAdded.WithLabelValues("durable").Add(float64(len(images)))
	}

	if cacheErr := s.cache.AddGalleryImages(ctx, images); cacheErr != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to cache gallery batch", "error", cacheErr)
	}

	s.prepend(images)
	return images, nil
}

// dedupe drops batch entries whose ID or URL is already in the session list,
// and resolves duplicates inside the batch itself. Empty IDs and URLs are
// not identity: images arriving without one (inline uploads, ID-less HTTP
// batches) never collide on the empty string.
func (s *Service) dedupe(batch []NewImage) []NewImage {
	s.mu.RLock()
	seenID := make(map[string]struct{}, len(s.images))
	seenURL := make(map[string]struct{}, len(s.images))
	for _, img := range s.images {
		if img.ID != "" {
			seenID[img.ID] = struct{}{}
		}
		if img.URL != "" {
			seenURL[img.URL] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := batch[:0:0]
	for _, n := range batch {
		if _, dup := seenID[n.Image.ID]; dup && n.Image.ID != "" {
			continue
		}
		if _, dup := seenURL[n.Image.URL]; dup && n.Image.URL != "" {
			continue
		}
		if n.Image.ID != "" {
			seenID[n.Image.ID] = struct{}{}
		}
		if n.Image.URL != "" {
			seenURL[n.Image.URL] = struct{}{}
		}
		out = append(out, n)
	}
	return out
}

// dropKnownURLs removes images whose final URL is already in the session
// list, or repeated within the batch itself.
func (s *Service) dropKnownURLs(images []models.GalleryImage) []models.GalleryImage {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.images))
	for _, img := range s.images {
		if img.URL != "" {
			seen[img.URL] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := images[:0:0]
	for _, img := range images {
		if img.URL != "" {
			if _, dup := seen[img.URL]; dup {
				continue
			}
			seen[img.URL] = struct{}{}
		}
		out = append(out, img)
	}
	return out
}

// uploadBatch pushes attached content to durable storage concurrently,
// returning the batch with durable URLs filled in. Order is preserved.
func (s *Service) uploadBatch(ctx context.Context, principal identity.Principal, batch []NewImage) ([]models.GalleryImage, error) {
	images := make([]models.GalleryImage, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, n := range batch {
		images[i] = n.Image
		if n.Upload == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			var (
				url string
				err error
			)
			switch p := principal.(type) {
			case identity.User:
				url, err = s.users.UploadImage(gctx, p.UserID, *n.Upload)
			case identity.Guest:
				url, err = s.guests.UploadImage(gctx, p.DeviceID, *n.Upload)
			default:
				return dErrors.New(dErrors.CodeInternal, "unknown principal kind")
			}
			if err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.ObserveUpload(start)
			}
			images[i].URL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// RemoveImage deletes one image everywhere it lives: the session list, the
// cache, and for users the remote store. Removal is by ID, so deleting
// several images is order-independent.
func (s *Service) RemoveImage(ctx context.Context, imageID string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gallery.RemoveImage")
	defer span.End()

	principal, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	if p, ok := principal.(identity.User); ok {
		if err := s.users.RemoveGalleryImage(ctx, p.UserID, imageID); err != nil && !errorsIsNotFound(err) {
			span.RecordError(err)
			return err
		}
	}

	if err := s.cache.DeleteGalleryImage(ctx, imageID); err != nil && !errorsIsNotFound(err) {
		span.RecordError(err)
		return err
	}

	s.mu.Lock()
	for i, img := range s.images {
		if img.ID == imageID {
			s.images = append(s.images[:i], s.images[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// ReplaceImage swaps an image in place, keeping its position in the list
// and the cache. Used when a result is re-generated or upscaled.
func (s *Service) ReplaceImage(ctx context.Context, imageID string, img models.GalleryImage) error {
	if err := s.cache.ReplaceGalleryImage(ctx, imageID, img); err != nil && !errorsIsNotFound(err) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.images {
		if cur.ID == imageID {
			s.images[i] = img
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}
