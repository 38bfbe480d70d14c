package handler

import (
	"strings"

	"atelier/internal/gallery/models"
	"atelier/internal/generation"
	historymodels "atelier/internal/history/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	pstrings "atelier/pkg/platform/strings"
)

const maxImagesPerRun = 8

// GenerateRequest is the HTTP request body for POST /generate and
// POST /generate/cost.
type GenerateRequest struct {
	ToolID         string            `json:"toolId"`
	Prompt         string            `json:"prompt"`
	Model          string            `json:"model"`
	NumberOfImages int               `json:"numberOfImages"`
	InputImages    []string          `json:"inputImages"`
	Params         map[string]string `json:"params"`
}

// Validate validates and normalizes the request.
func (r *GenerateRequest) Validate() error {
	r.ToolID = strings.TrimSpace(r.ToolID)
	if r.ToolID == "" {
		return dErrors.New(dErrors.CodeValidation, "toolId is required")
	}
	if r.NumberOfImages == 0 {
		r.NumberOfImages = 1
	}
	if r.NumberOfImages < 0 || r.NumberOfImages > maxImagesPerRun {
		return dErrors.New(dErrors.CodeValidation, "numberOfImages must be between 1 and 8")
	}
	r.InputImages = pstrings.DedupeAndTrim(r.InputImages)
	return nil
}

// Domain converts the request into the runner's input.
func (r *GenerateRequest) Domain() generation.Request {
	return generation.Request{
		ToolID:         id.ToolID(r.ToolID),
		Prompt:         r.Prompt,
		Model:          r.Model,
		NumberOfImages: r.NumberOfImages,
		InputImages:    r.InputImages,
		Params:         r.Params,
	}
}

// CostResponse is the HTTP response for POST /generate/cost.
type CostResponse struct {
	Cost int `json:"cost"`
}

// GenerateResponse is the HTTP response for POST /generate.
type GenerateResponse struct {
	Proceeded bool                  `json:"proceeded"`
	Cost      int                   `json:"cost"`
	Images    []models.GalleryImage `json:"images,omitempty"`
	History   *historymodels.Entry  `json:"history,omitempty"`
}

// FromOutcome converts a runner outcome to an HTTP response.
func FromOutcome(outcome *generation.Outcome) *GenerateResponse {
	resp := &GenerateResponse{
		Proceeded: outcome.Proceeded,
		Cost:      outcome.Cost,
		Images:    outcome.Images,
	}
	if outcome.Proceeded {
		entry := outcome.History
		resp.History = &entry
	}
	return resp
}
