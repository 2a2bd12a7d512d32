// Package auditlog persists audit events off the request path through a buffered worker.
package auditlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/google/uuid"
)

// Store persists audit events.
type Store interface {
	SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error
}

// Sink accepts events for asynchronous persistence. It never blocks.
type Sink interface {
	Log(event domain.AuditEvent)
}

type EventOption func(*domain.AuditEvent)

// WithBooking links the event to a booking.
func WithBooking(bookingID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.BookingID = &bookingID
	}
}

// WithData attaches a JSON payload. A value that cannot be marshalled is dropped.
func WithData(data any) EventOption {
	return func(e *domain.AuditEvent) {
		raw, err := json.Marshal(data)
		if err != nil {
			slog.Warn("dropping unmarshalable audit payload", slog.String("event_type", string(e.Type)), slog.String("error", err.Error()))
			return
		}
		e.Data = raw
	}
}

// WithActor records who drove the transition.
func WithActor(actor string) EventOption {
	return WithMetadata("actor", actor)
}

// WithMetadata sets one metadata key.
func WithMetadata(key, value string) EventOption {
	return func(e *domain.AuditEvent) {
		e.Metadata[key] = value
	}
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(eventType domain.AuditEventType, opts ...EventOption) domain.AuditEvent {
	e := domain.AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Discard drops every event. Used by the CLI, which has no long-lived worker.
type Discard struct{}

func (Discard) Log(domain.AuditEvent) {}
