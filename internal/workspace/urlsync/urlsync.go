// Package urlsync keeps the navigation stack's current entry consistent with
// the host address bar.
//
// Resolution is one-directional and authoritative from path to view: the
// current path is translated to a target view whenever the path changes or
// the tool registry finishes loading. The reverse direction (user-initiated
// navigation updating the address bar) goes through Navigate.
package urlsync

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"atelier/internal/registry"
	"atelier/internal/workspace/models"
	"atelier/internal/workspace/stack"
	id "atelier/pkg/domain"
)

const toolPathPrefix = "/tool/"

// Paths owned by other parts of the host; resolution ignores them entirely.
var skipPrefixes = []string{"/payment", "/admin"}

// Router is the host routing surface: the address bar and its history.
type Router interface {
	// CurrentPath returns the path portion of the address bar.
	CurrentPath() string

	// Push adds a new address-bar entry.
	Push(path string)

	// Replace rewrites the current address-bar entry without adding history.
	Replace(path string)

	// PageParam reads the page-number query parameter for paginated views.
	PageParam() (int, bool)

	// SetPageParam writes the page-number query parameter in place.
	SetPageParam(page int)
}

// Synchronizer applies path changes to the stack and stack navigation to the
// address bar.
type Synchronizer struct {
	stack    *stack.Stack
	registry *registry.Registry
	router   Router
	logger   *slog.Logger

	mu           sync.Mutex
	lastResolved models.ViewID
}

// Option configures the Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets a logger for resolution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// New wires the synchronizer to its collaborators.
func New(st *stack.Stack, reg *registry.Registry, router Router, opts ...Option) *Synchronizer {
	s := &Synchronizer{stack: st, registry: reg, router: router}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until the tool registry is ready, applies the initial path, and
// returns. Hosts call Sync directly on subsequent path changes.
func (s *Synchronizer) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-s.registry.Ready():
	}
	s.Sync(ctx)
}

// Sync resolves the current path to a view and pushes it onto the stack.
// A no-op until the registry has loaded: dynamic tool paths cannot be
// validated before then, and resolving system paths early would fight the
// same path being re-delivered once configuration arrives.
func (s *Synchronizer) Sync(ctx context.Context) {
	if !s.registry.Loaded() {
		return
	}

	path := s.router.CurrentPath()
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return
		}
	}

	target, known := s.resolve(path)
	if !known {
		// Unknown path: land on overview and rewrite the address bar.
		target = models.ViewOverview
		s.router.Replace("/")
		if s.logger != nil {
			s.logger.WarnContext(ctx, "unknown path redirected to overview", "path", path)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Redundant route events (re-renders, re-delivery after registry load)
	// must not clobber the current view's state.
	if target == s.lastResolved && target == s.stack.Current().View {
		return
	}
	if target == s.stack.Current().View {
		s.lastResolved = target
		return
	}

	if err := s.stack.NavigateTo(target); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to apply resolved view", "view", target, "error", err)
		}
		return
	}
	s.lastResolved = target
}

// resolve maps a path to a view. The second return is false when the path
// names nothing the coordinator knows.
func (s *Synchronizer) resolve(path string) (models.ViewID, bool) {
	switch {
	case path == "" || path == "/":
		return models.ViewOverview, true

	case path == "/tool":
		// The bare tool prefix is the generators grid.
		return models.ViewGenerators, true

	case strings.HasPrefix(path, toolPathPrefix):
		raw := strings.TrimPrefix(path, toolPathPrefix)
		v, err := models.ParseViewID(raw)
		if err != nil || !models.IsTool(v) {
			return "", false
		}
		if !s.registry.IsKnownTool(id.ToolID(raw)) {
			return "", false
		}
		return v, true

	default:
		raw := strings.TrimPrefix(path, "/")
		v, err := models.ParseViewID(raw)
		if err != nil || !models.IsSystem(v) {
			return "", false
		}
		return v, true
	}
}

// Navigate performs user-initiated navigation: push the view onto the stack
// and the matching path onto the address bar. Invalid tool targets land on
// overview, mirroring path resolution.
func (s *Synchronizer) Navigate(ctx context.Context, target models.ViewID) error {
	if models.IsTool(target) && !s.registry.IsKnownTool(id.ToolID(target)) {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "navigation to unregistered tool", "view", target)
		}
		target = models.ViewOverview
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stack.NavigateTo(target); err != nil {
		return err
	}
	s.lastResolved = target
	s.router.Push(PathFor(target))
	return nil
}

// Page reads the address bar's page parameter for paginated views.
func (s *Synchronizer) Page() (int, bool) {
	return s.router.PageParam()
}

// SetPage writes the page parameter in place, without a history entry.
// Navigation to another view drops it along with the rest of the query.
func (s *Synchronizer) SetPage(page int) {
	s.router.SetPageParam(page)
}

// PathFor returns the canonical path for a view.
func PathFor(v models.ViewID) string {
	switch {
	case v == models.ViewOverview:
		return "/"
	case v == models.ViewGenerators:
		return "/tool"
	case models.IsTool(v):
		return toolPathPrefix + string(v)
	default:
		return "/" + string(v)
	}
}
