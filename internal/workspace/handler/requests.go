package handler

import (
	"strings"

	"atelier/internal/workspace/models"
	dErrors "atelier/pkg/domain-errors"
)

// NavigateRequest is the HTTP request body for POST /workspace/navigate and
// POST /workspace/reset. Page applies only to paginated targets (gallery).
type NavigateRequest struct {
	View string `json:"view"`
	Page int    `json:"page"`

	parsedView models.ViewID
}

// Validate validates and parses the request.
func (r *NavigateRequest) Validate() error {
	r.View = strings.TrimSpace(r.View)
	if r.View == "" {
		return dErrors.New(dErrors.CodeValidation, "view is required")
	}
	if r.Page < 0 {
		return dErrors.New(dErrors.CodeValidation, "page must not be negative")
	}
	view, err := models.ParseViewID(r.View)
	if err != nil {
		return err
	}
	r.parsedView = view
	return nil
}

// ParsedView returns the validated view ID.
func (r *NavigateRequest) ParsedView() models.ViewID {
	return r.parsedView
}

// CurrentResponse describes the entry at the stack pointer. Page is set only
// for paginated views carrying a page parameter.
type CurrentResponse struct {
	View    string `json:"view"`
	Path    string `json:"path"`
	Pointer int    `json:"pointer"`
	Depth   int    `json:"depth"`
	Page    int    `json:"page,omitempty"`
}

// HistoryResponse lists the stack's views in order.
type HistoryResponse struct {
	Views   []string `json:"views"`
	Pointer int      `json:"pointer"`
}
