// Package handler exposes the credit-gated generation runner over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"atelier/internal/generation"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for generation operations.
type Service interface {
	Cost(req generation.Request) (int, error)
	Run(ctx context.Context, req generation.Request) (*generation.Outcome, error)
}

// Handler wires generation endpoints to the runner.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a generation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts generation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/generate", h.HandleGenerate)
	r.Post("/generate/cost", h.HandleCost)
}

// HandleCost handles POST /generate/cost requests; it quotes the credit
// price without spending anything.
func (h *Handler) HandleCost(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[GenerateRequest](w, r)
	if !ok {
		return
	}

	cost, err := h.service.Cost(req.Domain())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CostResponse{Cost: cost})
}

// HandleGenerate handles POST /generate requests. A refused spend is a 402,
// not a server error: the ledger said no and the client must react.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[GenerateRequest](w, r)
	if !ok {
		return
	}

	outcome, err := h.service.Run(ctx, req.Domain())
	if err != nil {
		h.logger.ErrorContext(ctx, "generation failed",
			"request_id", requestcontext.RequestID(ctx),
			"tool_id", req.ToolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if !outcome.Proceeded {
		httputil.WriteJSON(w, http.StatusPaymentRequired, FromOutcome(outcome))
		return
	}

	h.logger.InfoContext(ctx, "generation completed",
		"request_id", requestcontext.RequestID(ctx),
		"tool_id", req.ToolID,
		"cost", outcome.Cost,
		"images", len(outcome.Images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}
