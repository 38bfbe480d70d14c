// Package generation runs credit-gated image generations: resolve the
// tool's cost, spend the credits, invoke the generator, then fan the results
// out to the gallery and the history log.
package generation

//go:generate mockgen -source=runner.go -destination=mocks/mocks.go -package=mocks Generator,CreditGate,GalleryAppender,HistoryRecorder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	gallery "atelier/internal/gallery"
	gallerymodels "atelier/internal/gallery/models"
	historymodels "atelier/internal/history/models"
	"atelier/internal/registry"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/requestcontext"
)

// premiumModelMarker tags model names that cost double.
const premiumModelMarker = "v3"

// Request describes one generation.
type Request struct {
	ToolID         id.ToolID
	Prompt         string
	Model          string
	NumberOfImages int
	InputImages    []string
	Params         map[string]string
}

// Output is one produced image: either already hosted (URL) or raw content
// to be uploaded (Data).
type Output struct {
	URL         string
	Name        string
	ContentType string
	Data        []byte
}

// Result is what a Generator returns.
type Result struct {
	Outputs []Output
}

// Outcome reports what happened to a run. Proceeded is false when the
// ledger refused the spend; that is not an error.
type Outcome struct {
	Proceeded bool
	Cost      int
	Images    []gallerymodels.GalleryImage
	History   historymodels.Entry
}

// Generator produces images for a tool request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// CreditGate decides whether a spend may proceed.
type CreditGate interface {
	CheckAndDeduct(ctx context.Context, amount int) (bool, error)
}

// GalleryAppender accepts finished images and reports the ones that entered
// the gallery, with durable URLs filled in for uploaded content.
type GalleryAppender interface {
	AddImages(ctx context.Context, batch []gallery.NewImage) ([]gallerymodels.GalleryImage, error)
}

// HistoryRecorder appends a generation record.
type HistoryRecorder interface {
	Record(ctx context.Context, entry historymodels.Entry) (historymodels.Entry, error)
}

// Runner wires the generation pipeline together.
type Runner struct {
	registry  *registry.Registry
	gate      CreditGate
	gallery   GalleryAppender
	history   HistoryRecorder
	generator Generator
	logger    *slog.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger sets a logger for pipeline diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a Runner.
func NewRunner(reg *registry.Registry, gate CreditGate, g GalleryAppender,
	history HistoryRecorder, generator Generator, opts ...Option) *Runner {
	r := &Runner{
		registry:  reg,
		gate:      gate,
		gallery:   g,
		history:   history,
		generator: generator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Cost returns the credit price of a request: the tool's registered cost,
// doubled for premium models.
func (r *Runner) Cost(req Request) (int, error) {
	tool, ok := r.registry.Tool(req.ToolID)
	if !ok {
		return 0, dErrors.New(dErrors.CodeNotFound, "unknown tool: "+req.ToolID.String())
	}
	cost := tool.CreditCost
	if strings.Contains(req.Model, premiumModelMarker) {
		cost *= 2
	}
	return cost, nil
}

// Run executes one generation end to end. When the ledger refuses the
// spend, Run returns a non-proceeded Outcome and no error: the ledger has
// already raised the appropriate prompt or notice.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	cost, err := r.Cost(req)
	if err != nil {
		return nil, err
	}

	allowed, err := r.gate.CheckAndDeduct(ctx, cost)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &Outcome{Proceeded: false, Cost: cost}, nil
	}

	started := time.Now()
	result, err := r.generator.Generate(ctx, req)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		// Credits are spent before generation; a failed run does not
		// refund them, matching the store's one-way deduction.
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "generation failed after deduction",
				"tool", req.ToolID, "cost", cost, "error", err)
		}
		r.recordEntry(ctx, historymodels.Entry{
			ToolID:       req.ToolID,
			Prompt:       req.Prompt,
			Params:       req.Params,
			Model:        req.Model,
			CreditsUsed:  cost,
			DurationMS:   elapsed,
			ErrorMessage: err.Error(),
		})
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "run generation")
	}
	if len(result.Outputs) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "generator produced no outputs")
	}

	now := requestcontext.Now(ctx)
	batch := make([]gallery.NewImage, 0, len(result.Outputs))
	for _, out := range result.Outputs {
		img := gallerymodels.GalleryImage{
			ID:        uuid.NewString(),
			URL:       out.URL,
			ToolID:    req.ToolID,
			Prompt:    req.Prompt,
			CreatedAt: now,
		}
		n := gallery.NewImage{Image: img}
		if len(out.Data) > 0 {
			n.Upload = &gallerymodels.ImageUpload{
				Name:        out.Name,
				ContentType: out.ContentType,
				Data:        out.Data,
			}
		}
		batch = append(batch, n)
	}

	// The appender is the source of truth for what landed: dedupe may drop
	// entries and uploads mint the durable URLs the history record needs.
	images, err := r.gallery.AddImages(ctx, batch)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store generation results")
	}

	record := historymodels.Entry{
		ToolID:      req.ToolID,
		Prompt:      req.Prompt,
		Params:      req.Params,
		Model:       req.Model,
		CreditsUsed: cost,
		DurationMS:  elapsed,
	}
	for _, img := range images {
		if img.URL != "" {
			record.ImageURLs = append(record.ImageURLs, img.URL)
		}
	}
	for _, img := range images {
		if img.ThumbnailURL != "" {
			record.ThumbnailURL = img.ThumbnailURL
			break
		}
	}
	if record.ThumbnailURL == "" && len(record.ImageURLs) > 0 {
		record.ThumbnailURL = record.ImageURLs[0]
	}
	entry := r.recordEntry(ctx, record)

	return &Outcome{Proceeded: true, Cost: cost, Images: images, History: entry}, nil
}

// recordEntry logs the run to history best-effort. The images are already
// safe; a lost history row is not worth failing the run for.
func (r *Runner) recordEntry(ctx context.Context, e historymodels.Entry) historymodels.Entry {
	entry, err := r.history.Record(ctx, e)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "failed to record generation history",
				"tool", e.ToolID, "error", err)
		}
		return e
	}
	return entry
}
