package handler

import (
	"strings"

	"github.com/google/uuid"

	"atelier/internal/gallery"
	"atelier/internal/gallery/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// ImagePayload is one incoming gallery image. Either URL or Upload must be
// present; an upload's bytes arrive base64-encoded in the JSON body.
type ImagePayload struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	ToolID       string         `json:"toolId"`
	Prompt       string         `json:"prompt"`
	Upload       *UploadPayload `json:"upload,omitempty"`
}

// UploadPayload carries raw image content for durable storage.
type UploadPayload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// AddImagesRequest is the HTTP request body for POST /gallery/images.
type AddImagesRequest struct {
	Images []ImagePayload `json:"images"`
}

// Validate validates the request.
func (r *AddImagesRequest) Validate() error {
	if len(r.Images) == 0 {
		return dErrors.New(dErrors.CodeValidation, "images must not be empty")
	}
	for i := range r.Images {
		img := &r.Images[i]
		img.URL = strings.TrimSpace(img.URL)
		img.ToolID = strings.TrimSpace(img.ToolID)
		if img.ToolID == "" {
			return dErrors.New(dErrors.CodeValidation, "images[].toolId is required")
		}
		if img.URL == "" && img.Upload == nil {
			return dErrors.New(dErrors.CodeValidation, "images[] requires a url or an upload")
		}
		if img.Upload != nil && len(img.Upload.Data) == 0 {
			return dErrors.New(dErrors.CodeValidation, "images[].upload.data must not be empty")
		}
	}
	return nil
}

// Batch converts the request into the reconciler's input. Payloads arriving
// without an ID get one minted here so distinct images never share identity.
func (r *AddImagesRequest) Batch() []gallery.NewImage {
	batch := make([]gallery.NewImage, 0, len(r.Images))
	for _, img := range r.Images {
		imageID := img.ID
		if imageID == "" {
			imageID = uuid.NewString()
		}
		next := gallery.NewImage{
			Image: models.GalleryImage{
				ID:           imageID,
				URL:          img.URL,
				ThumbnailURL: img.ThumbnailURL,
				ToolID:       id.ToolID(img.ToolID),
				Prompt:       img.Prompt,
			},
		}
		if img.Upload != nil {
			next.Upload = &models.ImageUpload{
				Name:        img.Upload.Name,
				ContentType: img.Upload.ContentType,
				Data:        img.Upload.Data,
			}
		}
		batch = append(batch, next)
	}
	return batch
}

// ReplaceImageRequest is the HTTP request body for PUT /gallery/images/{imageID}.
type ReplaceImageRequest struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ToolID       string `json:"toolId"`
	Prompt       string `json:"prompt"`
}

// Validate validates the request.
func (r *ReplaceImageRequest) Validate() error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "url is required")
	}
	return nil
}

// Image builds the replacement image, keeping the path's ID authoritative.
func (r *ReplaceImageRequest) Image(imageID string) models.GalleryImage {
	return models.GalleryImage{
		ID:           imageID,
		URL:          r.URL,
		ThumbnailURL: r.ThumbnailURL,
		ToolID:       id.ToolID(r.ToolID),
		Prompt:       r.Prompt,
	}
}

// ListResponse is the HTTP response carrying the session gallery list.
type ListResponse struct {
	Images []models.GalleryImage `json:"images"`
}
