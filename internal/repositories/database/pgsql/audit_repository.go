package pgsql

import (
	"context"
	"fmt"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/models"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	pool *pgxpool.Pool
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{pool: pool}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// SaveAuditEvent persists one event. Replays of the same event ID are ignored.
func (r *PgxAuditRepository) SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	m, err := mapping.ToModelAuditEvent(event)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_events (id, event_type, booking_id, data, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err = r.pool.Exec(ctx, query, m.ID, m.Type, m.BookingID, m.Data, m.Metadata, m.CreatedAt)
	return mapPgError(err, "save audit event "+m.ID)
}

// ListAuditEventsByBooking returns the booking's events, newest first.
func (r *PgxAuditRepository) ListAuditEventsByBooking(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, event_type, booking_id, data, metadata, created_at
		FROM audit_events
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, query, bookingID, pageSize(limit, 50))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events of booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var m models.AuditEvent
		if err := rows.Scan(&m.ID, &m.Type, &m.BookingID, &m.Data, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event row: %w", err)
		}
		event, err := mapping.ToDomainAuditEvent(m)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit event rows: %w", err)
	}
	return events, nil
}
