// Package handler exposes the gallery reconciler over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/gallery"
	"atelier/internal/gallery/models"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for gallery operations.
type Service interface {
	Images() []models.GalleryImage
	Refresh(ctx context.Context) error
	AddImages(ctx context.Context, batch []gallery.NewImage) ([]models.GalleryImage, error)
	RemoveImage(ctx context.Context, imageID string) error
	ReplaceImage(ctx context.Context, imageID string, img models.GalleryImage) error
}

// Handler wires gallery endpoints to the reconciler.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a gallery handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts gallery endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/gallery", h.HandleList)
	r.Post("/gallery/refresh", h.HandleRefresh)
	r.Post("/gallery/images", h.HandleAdd)
	r.Put("/gallery/images/{imageID}", h.HandleReplace)
	r.Delete("/gallery/images/{imageID}", h.HandleRemove)
}

// HandleList handles GET /gallery requests; it serves the session list
// without touching the stores.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Images: h.service.Images()})
}

// HandleRefresh handles POST /gallery/refresh requests.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Refresh(ctx); err != nil {
		h.logger.ErrorContext(ctx, "gallery refresh failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Images: h.service.Images()})
}

// HandleAdd handles POST /gallery/images requests. A durable-store failure
// is not surfaced as an error: the batch lands locally and the response says
// so via the session list.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[AddImagesRequest](w, r)
	if !ok {
		return
	}

	if _, err := h.service.AddImages(ctx, req.Batch()); err != nil {
		h.logger.ErrorContext(ctx, "gallery add failed",
			"request_id", requestcontext.RequestID(ctx),
			"count", len(req.Images),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ListResponse{Images: h.service.Images()})
}

// HandleReplace handles PUT /gallery/images/{imageID} requests.
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	imageID := chi.URLParam(r, "imageID")

	req, ok := httputil.Decode[ReplaceImageRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.ReplaceImage(ctx, imageID, req.Image(imageID)); err != nil {
		h.logger.ErrorContext(ctx, "gallery replace failed",
			"request_id", requestcontext.RequestID(ctx),
			"image_id", imageID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Images: h.service.Images()})
}

// HandleRemove handles DELETE /gallery/images/{imageID} requests.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	imageID := chi.URLParam(r, "imageID")

	if err := h.service.RemoveImage(ctx, imageID); err != nil {
		h.logger.ErrorContext(ctx, "gallery remove failed",
			"request_id", requestcontext.RequestID(ctx),
			"image_id", imageID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
