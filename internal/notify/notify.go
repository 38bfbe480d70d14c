// Package notify defines the outbound user-messaging surfaces of the
// coordinator. Implementations live in the host shell; the coordinator only
// decides when a message is warranted and which kind.
package notify

import (
	"context"
	"log/slog"
)

// Severity classifies an inline notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a transient inline message shown without interrupting the
// current view.
type Notice struct {
	Severity Severity
	// MessageKey names a localizable message; hosts resolve it to text.
	MessageKey string
}

// Notifier surfaces inline notices. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LoginPrompter raises the host's sign-in flow. Used when a guest runs out
// of credits: the remedy is an account, not a message.
type LoginPrompter interface {
	PromptLogin(ctx context.Context)
}

// NopNotifier discards notices.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}

// NopLoginPrompter ignores login prompts.
type NopLoginPrompter struct{}

func (NopLoginPrompter) PromptLogin(context.Context) {}

// LogNotifier writes notices and prompts to the structured log. The server
// deployment has no shell to raise them in, so they become log events the
// host can tail.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	l.Logger.InfoContext(ctx, "user notice",
		"severity", string(n.Severity),
		"message_key", n.MessageKey,
	)
}

func (l LogNotifier) PromptLogin(ctx context.Context) {
	l.Logger.InfoContext(ctx, "login prompt raised")
}

// Recorder captures notices and prompts for assertions in tests.
type Recorder struct {
	Notices []Notice
	Prompts int
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.Notices = append(r.Notices, n)
}

func (r *Recorder) PromptLogin(context.Context) {
	r.Prompts++
}
