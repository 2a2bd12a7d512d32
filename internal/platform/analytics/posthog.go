// Package analytics forwards API usage events to PostHog.
package analytics

import (
	"log/slog"

	"github.com/posthog/posthog-go"
)

// Tracker records product events attributed to an operator.
type Tracker interface {
	Enqueue(distinctID string, event string, properties map[string]any)
	Close()
}

// PosthogTracker wraps a posthog.Client.
type PosthogTracker struct {
	client posthog.Client
	logger *slog.Logger
}

// NewTracker returns a PostHog tracker, or Noop when apiKey is empty or the client cannot be built.
func NewTracker(apiKey, endpoint string, logger *slog.Logger) Tracker {
	if apiKey == "" {
		logger.Warn("PostHog API key is empty, analytics disabled")
		return Noop{}
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logger.Error("Failed to initialize PostHog client, analytics disabled", slog.String("error", err.Error()))
		return Noop{}
	}
	logger.Info("PostHog analytics enabled", slog.String("endpoint", endpoint))
	return NewPosthogTracker(client, logger)
}

// NewPosthogTracker wraps an existing client.
func NewPosthogTracker(client posthog.Client, logger *slog.Logger) *PosthogTracker {
	return &PosthogTracker{client: client, logger: logger}
}

func (t *PosthogTracker) Enqueue(distinctID string, event string, properties map[string]any) {
	if t.logger != nil {
		t.logger.Debug("Enqueueing analytics event", slog.String("distinct_id", distinctID), slog.String("event", event))
	}
	err := t.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	})
	if err != nil && t.logger != nil {
		t.logger.Warn("Failed to enqueue analytics event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// Close flushes pending events.
func (t *PosthogTracker) Close() {
	if err := t.client.Close(); err != nil && t.logger != nil {
		t.logger.Warn("Failed to close PostHog client", slog.String("error", err.Error()))
	}
}

// Noop drops every event.
type Noop struct{}

func (Noop) Enqueue(string, string, map[string]any) {}
func (Noop) Close()                                 {}
