// Package history records completed generations. Every record lands in the
// local cache; for signed-in users it is also logged to the durable store,
// and an optional sink streams records to downstream consumers. Only the
// cache write is load-bearing, the rest is best effort.
package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"atelier/internal/history/models"
	"atelier/internal/identity"
	"atelier/internal/store/ports"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/requestcontext"
)

// PrincipalResolver yields the acting principal for a request.
type PrincipalResolver interface {
	Resolve(ctx context.Context) (identity.Principal, error)
}

// Recorder appends generation records.
type Recorder struct {
	cache    ports.LocalCache
	users    ports.UserStore
	resolver PrincipalResolver
	sink     ports.HistorySink
	logger   *slog.Logger

	inbox chan models.Entry
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for best-effort failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithSink streams records to a downstream sink.
func WithSink(sink ports.HistorySink) Option {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// WithAsyncBuffer publishes to the sink from a background goroutine through
// a buffer of the given size. Close drains the buffer before returning.
func WithAsyncBuffer(size int) Option {
	return func(r *Recorder) {
		r.inbox = make(chan models.Entry, size)
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(cache ports.LocalCache, users ports.UserStore, resolver PrincipalResolver, opts ...Option) *Recorder {
	r := &Recorder{
		cache:    cache,
		users:    users,
		resolver: resolver,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.inbox != nil && r.sink != nil {
		r.wg.Add(1)
		go r.drain()
	}
	return r
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for entry := range r.inbox {
		if err := r.sink.Publish(context.Background(), entry); err != nil && r.logger != nil {
			r.logger.Warn("failed to publish history record", "entry_id", entry.ID, "error", err)
		}
	}
}

// Record appends one generation record. A zero ID or timestamp is filled in.
// Returns the stored entry.
func (r *Recorder) Record(ctx context.Context, entry models.Entry) (models.Entry, error) {
	if entry.ToolID == "" {
		return models.Entry{}, dErrors.New(dErrors.CodeInvalidInput, "history entry needs a tool id")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	if err := r.cache.AddHistoryEntry(ctx, entry); err != nil {
		return models.Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "cache history entry")
	}

	principal, err := r.resolver.Resolve(ctx)
	if err == nil {
		if user, ok := principal.(identity.User); ok {
			if err := r.users.LogGeneration(ctx, user.UserID, entry); err != nil && r.logger != nil {
				r.logger.WarnContext(ctx, "failed to log generation remotely",
					"entry_id", entry.ID, "error", err)
			}
		}
	} else if r.logger != nil {
		r.logger.WarnContext(ctx, "could not resolve principal for history record", "error", err)
	}

	r.publish(ctx, entry)
	return entry, nil
}

func (r *Recorder) publish(ctx context.Context, entry models.Entry) {
	if r.sink == nil {
		return
	}
	if r.inbox != nil {
		select {
		case r.inbox <- entry:
		default:
			// Full buffer: drop rather than stall a generation.
			if r.logger != nil {
				r.logger.WarnContext(ctx, "history sink buffer full, dropping record",
					"entry_id", entry.ID)
			}
		}
		return
	}
	if err := r.sink.Publish(ctx, entry); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to publish history record",
			"entry_id", entry.ID, "error", err)
	}
}

// Entries returns the cached history, newest first.
func (r *Recorder) Entries(ctx context.Context) ([]models.Entry, error) {
	return r.cache.HistoryEntries(ctx)
}

// Close drains any buffered records and closes the sink.
func (r *Recorder) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		if r.inbox != nil {
			close(r.inbox)
			r.wg.Wait()
		}
		if r.sink != nil {
			err = r.sink.Close(ctx)
		}
	})
	return err
}
