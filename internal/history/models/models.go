// Package models holds the generation-history module's data types.
package models

import (
	"time"

	id "atelier/pkg/domain"
)

// Entry records one generation attempt: which tool ran, with what prompt,
// and what it produced. Entries are append-only. Failed runs carry an
// ErrorMessage and no image URLs.
type Entry struct {
	ID           string            `json:"id"`
	ToolID       id.ToolID         `json:"toolId"`
	Prompt       string            `json:"prompt,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
	ImageURLs    []string          `json:"imageUrls,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
	Model        string            `json:"model,omitempty"`
	CreditsUsed  int               `json:"creditsUsed,omitempty"`
	DurationMS   int64             `json:"durationMs,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}
