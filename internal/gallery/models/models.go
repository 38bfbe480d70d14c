// Package models holds the gallery module's data types.
package models

import (
	"time"

	id "atelier/pkg/domain"
)

// GalleryImage is one stored generation result. ID is stable across the
// local cache and the durable store so reconciliation can match rows.
type GalleryImage struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	ToolID       id.ToolID `json:"toolId"`
	Prompt       string    `json:"prompt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ImageUpload is raw image content headed for durable object storage.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}
