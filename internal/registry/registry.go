// Package registry holds the configuration-loaded set of valid tool views.
//
// The registry is loaded asynchronously at startup; consumers that validate
// dynamic tool paths (the URL synchronizer) must wait for Ready or check
// Loaded before trusting a negative lookup.
package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

// Tool describes one registered tool view.
type Tool struct {
	ID         id.ToolID `json:"id"`
	TitleKey   string    `json:"titleKey"`
	CreditCost int       `json:"creditCost"`
}

// Registry answers "is this a valid tool view" once configuration has loaded.
type Registry struct {
	mu     sync.RWMutex
	tools  map[id.ToolID]Tool
	loaded bool
	ready  chan struct{}
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a logger for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New returns an empty, not-yet-loaded registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tools: make(map[id.ToolID]Tool),
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the tool list from a JSON configuration file and marks the
// registry ready. Safe to call again to pick up configuration changes.
func (r *Registry) Load(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read tool registry config")
	}
	return r.LoadBytes(ctx, raw)
}

// LoadBytes ingests raw registry JSON; split out so tests and embedded
// configurations can bypass the filesystem.
func (r *Registry) LoadBytes(ctx context.Context, raw []byte) error {
	var doc struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "parse tool registry config")
	}

	tools := make(map[id.ToolID]Tool, len(doc.Tools))
	for _, t := range doc.Tools {
		if t.ID == "" {
			return dErrors.New(dErrors.CodeValidation, "tool entry missing id")
		}
		if t.CreditCost <= 0 {
			t.CreditCost = 1
		}
		tools[t.ID] = t
	}

	r.mu.Lock()
	r.tools = tools
	first := !r.loaded
	r.loaded = true
	r.mu.Unlock()

	if first {
		close(r.ready)
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, "tool registry loaded", "tool_count", len(tools))
	}
	return nil
}

// Ready is closed once the first successful load completes.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// Loaded reports whether configuration has been ingested at least once.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// IsKnownTool reports whether the ID names a registered tool. Always false
// before the registry has loaded; callers gate on Loaded for that reason.
func (r *Registry) IsKnownTool(toolID id.ToolID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[toolID]
	return ok
}

// Tool returns a registered tool's descriptor.
func (r *Registry) Tool(toolID id.ToolID) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[toolID]
	return t, ok
}

// Tools returns all registered tools.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}
