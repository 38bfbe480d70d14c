// Package handler exposes the credit ledger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	Balance() (int, bool)
	FetchBalance(ctx context.Context) (int, error)
	CheckAndDeduct(ctx context.Context, amount int) (bool, error)
	Invalidate()
}

// Handler wires credit endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts credit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/credits", h.HandleBalance)
	r.Post("/credits/deduct", h.HandleDeduct)
	r.Post("/credits/invalidate", h.HandleInvalidate)
}

// HandleBalance handles GET /credits requests. The cached balance is served
// when known; otherwise the durable ledger is consulted.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if balance, known := h.service.Balance(); known {
		httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
		return
	}

	balance, err := h.service.FetchBalance(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "balance fetch failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

// HandleDeduct handles POST /credits/deduct requests. A refused spend is a
// successful response with applied=false, not an error.
func (h *Handler) HandleDeduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[DeductRequest](w, r)
	if !ok {
		return
	}

	applied, err := h.service.CheckAndDeduct(ctx, req.Amount)
	if err != nil {
		h.logger.ErrorContext(ctx, "credit deduction failed",
			"request_id", requestcontext.RequestID(ctx),
			"amount", req.Amount,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := DeductResponse{Applied: applied}
	if balance, known := h.service.Balance(); known {
		resp.Balance = &balance
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleInvalidate handles POST /credits/invalidate requests; the host calls
// it on login and logout so the next principal never sees a stale balance.
func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.service.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
