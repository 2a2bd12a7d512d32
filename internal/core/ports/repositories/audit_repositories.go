package repositories

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
)

// AuditRepositoryFacade persists the audit trail of committed transitions.
type AuditRepositoryFacade interface {
	SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error
	ListAuditEventsByBooking(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error)
}
