package handler

import (
	"strings"

	"atelier/internal/history/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	pstrings "atelier/pkg/platform/strings"
)

// RecordRequest is the HTTP request body for POST /history.
type RecordRequest struct {
	ToolID       string            `json:"toolId"`
	Prompt       string            `json:"prompt"`
	Params       map[string]string `json:"params"`
	ImageURLs    []string          `json:"imageUrls"`
	ThumbnailURL string            `json:"thumbnailUrl"`
	Model        string            `json:"model"`
	CreditsUsed  int               `json:"creditsUsed"`
}

// Validate validates the request.
func (r *RecordRequest) Validate() error {
	r.ToolID = strings.TrimSpace(r.ToolID)
	if r.ToolID == "" {
		return dErrors.New(dErrors.CodeValidation, "toolId is required")
	}
	if r.CreditsUsed < 0 {
		return dErrors.New(dErrors.CodeValidation, "creditsUsed must not be negative")
	}
	r.ImageURLs = pstrings.DedupeAndTrim(r.ImageURLs)
	return nil
}

// Entry converts the request into a history entry; the recorder assigns the
// ID and timestamp.
func (r *RecordRequest) Entry() models.Entry {
	return models.Entry{
		ToolID:       id.ToolID(r.ToolID),
		Prompt:       r.Prompt,
		Params:       r.Params,
		ImageURLs:    r.ImageURLs,
		ThumbnailURL: r.ThumbnailURL,
		Model:        r.Model,
		CreditsUsed:  r.CreditsUsed,
	}
}

// ListResponse is the HTTP response carrying history entries newest-first.
type ListResponse struct {
	Entries []models.Entry `json:"entries"`
}
