package models

import (
	"database/sql"
	"time"
)

// AuditEvent is a row of the audit_events table. Data and Metadata are jsonb.
type AuditEvent struct {
	ID        string         `db:"id"`
	Type      string         `db:"event_type"`
	BookingID sql.NullString `db:"booking_id"`
	Data      []byte         `db:"data"`
	Metadata  []byte         `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}
