package notification

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
)

const (
	// KindEmailConfirmation carries the one-time token that confirms a new identity's email.
	KindEmailConfirmation = "email_confirmation"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
	Token       string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger instead of an email gateway.
type LoggerNotifier struct {
	logger   *slog.Logger
	linkBase string
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// WithConfirmationLinks makes Send log a confirmation link built from base and
// the token. Only for development, where no mail gateway exists.
func (n *LoggerNotifier) WithConfirmationLinks(base string) *LoggerNotifier {
	n.linkBase = base
	return n
}

// Send writes the message to the structured logger. The token is only logged
// as part of a confirmation link when WithConfirmationLinks was set.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
		slog.Bool("has_token", message.Token != ""),
	}
	if n.linkBase != "" && message.Token != "" {
		attrs = append(attrs, slog.String("link", n.linkBase+url.QueryEscape(message.Token)))
	}
	n.logger.Info("notification", attrs...)
	return nil
}

// Recorder keeps every message it is handed. Used by tests and local tooling
// to read confirmation tokens back.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Last returns the most recent message of the given kind.
func (r *Recorder) Last(kind string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Kind == kind {
			return r.messages[i], true
		}
	}
	return Message{}, false
}
