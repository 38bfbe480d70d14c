// Package handler exposes the navigation stack over HTTP for the host shell.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/workspace/models"
	"atelier/internal/workspace/urlsync"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

// Workspace is the slice of the navigation stack the handler needs.
type Workspace interface {
	Current() models.ViewEntry
	Entries() []models.ViewEntry
	Pointer() int
	Back()
	Forward()
	ResetTo(v models.ViewID) error
}

// Navigator performs user-initiated navigation, keeping the address bar in
// step with the stack, and carries the page parameter for paginated views.
type Navigator interface {
	Navigate(ctx context.Context, target models.ViewID) error
	Page() (int, bool)
	SetPage(page int)
}

// Handler wires workspace endpoints to the navigation stack.
type Handler struct {
	workspace Workspace
	navigator Navigator
	logger    *slog.Logger
}

// New constructs a workspace handler with its dependencies.
func New(workspace Workspace, navigator Navigator, logger *slog.Logger) *Handler {
	return &Handler{
		workspace: workspace,
		navigator: navigator,
		logger:    logger,
	}
}

// Register mounts workspace endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workspace", h.HandleCurrent)
	r.Get("/workspace/history", h.HandleHistory)
	r.Post("/workspace/navigate", h.HandleNavigate)
	r.Post("/workspace/back", h.HandleBack)
	r.Post("/workspace/forward", h.HandleForward)
	r.Post("/workspace/reset", h.HandleReset)
}

// HandleCurrent handles GET /workspace requests.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.currentResponse())
}

// HandleHistory handles GET /workspace/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.workspace.Entries()
	views := make([]string, len(entries))
	for i, e := range entries {
		views[i] = string(e.View)
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		Views:   views,
		Pointer: h.workspace.Pointer(),
	})
}

// HandleNavigate handles POST /workspace/navigate requests.
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[NavigateRequest](w, r)
	if !ok {
		return
	}

	if err := h.navigator.Navigate(ctx, req.ParsedView()); err != nil {
		h.logger.ErrorContext(ctx, "navigation failed",
			"request_id", requestcontext.RequestID(ctx),
			"view", req.View,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	// Navigation clears any page parameter; re-apply the requested one for
	// paginated targets.
	if req.Page > 0 && req.ParsedView() == models.ViewGallery {
		h.navigator.SetPage(req.Page)
	}
	httputil.WriteJSON(w, http.StatusOK, h.currentResponse())
}

// HandleBack handles POST /workspace/back requests.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.workspace.Back()
	httputil.WriteJSON(w, http.StatusOK, h.currentResponse())
}

// HandleForward handles POST /workspace/forward requests.
func (h *Handler) HandleForward(w http.ResponseWriter, r *http.Request) {
	h.workspace.Forward()
	httputil.WriteJSON(w, http.StatusOK, h.currentResponse())
}

// HandleReset handles POST /workspace/reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[NavigateRequest](w, r)
	if !ok {
		return
	}

	if err := h.workspace.ResetTo(req.ParsedView()); err != nil {
		h.logger.ErrorContext(ctx, "workspace reset failed",
			"request_id", requestcontext.RequestID(ctx),
			"view", req.View,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.currentResponse())
}

func (h *Handler) currentResponse() CurrentResponse {
	current := h.workspace.Current()
	resp := CurrentResponse{
		View:    string(current.View),
		Path:    urlsync.PathFor(current.View),
		Pointer: h.workspace.Pointer(),
		Depth:   len(h.workspace.Entries()),
	}
	if current.View == models.ViewGallery {
		if page, ok := h.navigator.Page(); ok {
			resp.Page = page
		}
	}
	return resp
}
