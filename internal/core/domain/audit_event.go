package domain

import (
	"encoding/json"
	"time"
)

// AuditEventType names a committed lifecycle transition.
type AuditEventType string

const (
	AuditBookingCreated   AuditEventType = "booking.created"
	AuditBookingUpdated   AuditEventType = "booking.updated"
	AuditBookingDeleted   AuditEventType = "booking.deleted"
	AuditBookingSettled   AuditEventType = "booking.settled"
	AuditBookingUnsettled AuditEventType = "booking.unsettled"
	AuditRosterChanged    AuditEventType = "booking.roster_changed"
	AuditOverridesApplied AuditEventType = "booking.overrides_applied"
	AuditRecomputed       AuditEventType = "booking.recomputed"
	AuditProvisionalSet   AuditEventType = "booking.provisional_expense_set"
	AuditEntryCreated     AuditEventType = "entry.created"
	AuditEntryUpdated     AuditEventType = "entry.updated"
	AuditEntryDeleted     AuditEventType = "entry.deleted"
	AuditMemberDeleted    AuditEventType = "member.deleted"
)

// AuditEvent is a persisted record of a transition.
type AuditEvent struct {
	ID        string            `json:"id"`
	Type      AuditEventType    `json:"type"`
	BookingID *string           `json:"bookingID,omitempty"`
	Data      json.RawMessage   `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
