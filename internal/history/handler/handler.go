// Package handler exposes the generation history log over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/history/models"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for history operations.
type Service interface {
	Entries(ctx context.Context) ([]models.Entry, error)
	Record(ctx context.Context, entry models.Entry) (models.Entry, error)
}

// Handler wires history endpoints to the recorder.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a history handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts history endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/history", h.HandleList)
	r.Post("/history", h.HandleRecord)
}

// HandleList handles GET /history requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.Entries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "history read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Entries: entries})
}

// HandleRecord handles POST /history requests.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RecordRequest](w, r)
	if !ok {
		return
	}

	recorded, err := h.service.Record(ctx, req.Entry())
	if err != nil {
		h.logger.ErrorContext(ctx, "history record failed",
			"request_id", requestcontext.RequestID(ctx),
			"tool_id", req.ToolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recorded)
}
