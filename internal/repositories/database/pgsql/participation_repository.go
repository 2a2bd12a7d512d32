package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/models"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxParticipationRepository struct {
	BaseRepository
}

// newPgxParticipationRepository creates a new repository for roster rows.
func newPgxParticipationRepository(pool *pgxpool.Pool) portsrepo.ParticipationRepositoryFacade {
	return &PgxParticipationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ParticipationRepositoryFacade = (*PgxParticipationRepository)(nil)

func (r *PgxParticipationRepository) listRoster(ctx context.Context, q querier, bookingID string) ([]domain.Participation, error) {
	query := `
		SELECT p.participation_id, p.booking_id, p.member_id, p.roster_paid, p.potential_credit, p.real_credit,
		       p.fixed_gain, p.created_at, p.created_by, p.last_updated_at, p.last_updated_by,
		       ` + prefixed("m", memberColumns) + `
		FROM participations p
		JOIN members m ON m.member_id = p.member_id
		WHERE p.booking_id = $1
		ORDER BY p.roster_seq;
	`
	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster of booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	roster := []domain.Participation{}
	for rows.Next() {
		var p models.Participation
		var m models.Member
		err := rows.Scan(
			&p.ParticipationID,
			&p.BookingID,
			&p.MemberID,
			&p.RosterPaid,
			&p.PotentialCredit,
			&p.RealCredit,
			&p.FixedGain,
			&p.CreatedAt,
			&p.CreatedBy,
			&p.LastUpdatedAt,
			&p.LastUpdatedBy,
			&m.MemberID,
			&m.Name,
			&m.Kind,
			&m.IsActive,
			&m.IsBonusRole,
			&m.IsStructureRole,
			&m.IsPaymentMethod,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		participation := mapping.ToDomainParticipation(p)
		member := mapping.ToDomainMember(m)
		participation.Member = &member
		roster = append(roster, participation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}
	return roster, nil
}

// ListRoster returns the booking's roster in insertion order, members attached.
func (r *PgxParticipationRepository) ListRoster(ctx context.Context, bookingID string) ([]domain.Participation, error) {
	return r.listRoster(ctx, r.Pool, bookingID)
}

// ListRosterInTx returns the roster as seen by the transaction.
func (r *PgxParticipationRepository) ListRosterInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.Participation, error) {
	return r.listRoster(ctx, tx, bookingID)
}

// SumCreditsByMember totals real and potential credits per member.
func (r *PgxParticipationRepository) SumCreditsByMember(ctx context.Context) (map[string]domain.MemberCredits, error) {
	query := `
		SELECT member_id, SUM(real_credit), SUM(potential_credit)
		FROM participations
		GROUP BY member_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sum credits: %w", err)
	}
	defer rows.Close()

	credits := map[string]domain.MemberCredits{}
	for rows.Next() {
		var memberID string
		var c domain.MemberCredits
		if err := rows.Scan(&memberID, &c.Real, &c.Potential); err != nil {
			return nil, fmt.Errorf("failed to scan credit totals: %w", err)
		}
		credits[memberID] = c
	}
	return credits, rows.Err()
}

// AddParticipationInTx inserts a roster row.
func (r *PgxParticipationRepository) AddParticipationInTx(ctx context.Context, tx pgx.Tx, participation domain.Participation) error {
	p := mapping.ToModelParticipation(participation)
	query := `
		INSERT INTO participations (participation_id, booking_id, member_id, roster_paid, potential_credit, real_credit,
		                            fixed_gain, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		p.ParticipationID,
		p.BookingID,
		p.MemberID,
		p.RosterPaid,
		p.PotentialCredit,
		p.RealCredit,
		p.FixedGain,
		p.CreatedAt,
		p.CreatedBy,
		p.LastUpdatedAt,
		p.LastUpdatedBy,
	)
	return mapPgError(err, fmt.Sprintf("add member %s to booking %s", p.MemberID, p.BookingID))
}

// DeleteParticipationInTx removes one roster row of the booking.
func (r *PgxParticipationRepository) DeleteParticipationInTx(ctx context.Context, tx pgx.Tx, bookingID, participationID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM participations WHERE booking_id = $1 AND participation_id = $2;`, bookingID, participationID)
	if err != nil {
		return mapPgError(err, "delete participation "+participationID)
	}
	return expectRows(tag, "participation", participationID)
}

// WriteCreditsInTx stores the computed credits of the roster in a single batch.
func (r *PgxParticipationRepository) WriteCreditsInTx(ctx context.Context, tx pgx.Tx, bookingID string, credits map[string]domain.CreditUpdate, actor string, now time.Time) error {
	query := `
		UPDATE participations
		SET potential_credit = $1, real_credit = $2, last_updated_at = $3, last_updated_by = $4
		WHERE booking_id = $5 AND participation_id = $6;
	`
	batch := &pgx.Batch{}
	for participationID, c := range credits {
		batch.Queue(query, c.Potential, c.Real, now, actor, bookingID, participationID)
	}
	return r.sendUpdates(ctx, tx, batch, "write credits of booking "+bookingID)
}

// SetFixedGainsInTx stores or clears pins in a single batch.
func (r *PgxParticipationRepository) SetFixedGainsInTx(ctx context.Context, tx pgx.Tx, bookingID string, gains map[string]decimal.NullDecimal, actor string, now time.Time) error {
	query := `
		UPDATE participations
		SET fixed_gain = $1, last_updated_at = $2, last_updated_by = $3
		WHERE booking_id = $4 AND participation_id = $5;
	`
	batch := &pgx.Batch{}
	for participationID, gain := range gains {
		batch.Queue(query, gain, now, actor, bookingID, participationID)
	}
	return r.sendUpdates(ctx, tx, batch, "set fixed gains of booking "+bookingID)
}

// sendUpdates runs a batch of single-row updates and fails if any of them matched nothing.
func (r *PgxParticipationRepository) sendUpdates(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return mapPgError(err, what)
		}
		if tag.RowsAffected() == 0 {
			_ = br.Close()
			return fmt.Errorf("%w: participation missing during %s", apperrors.ErrNotFound, what)
		}
	}
	if err := br.Close(); err != nil {
		return mapPgError(err, what)
	}
	return nil
}

// ListBookingIDsForMemberInTx returns the bookings the member sits on.
func (r *PgxParticipationRepository) ListBookingIDsForMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT booking_id FROM participations WHERE member_id = $1 ORDER BY booking_id;`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings of member %s: %w", memberID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect bookings of member %s: %w", memberID, err)
	}
	return ids, nil
}

// SetRosterPaid flips the per-member fee flag.
func (r *PgxParticipationRepository) SetRosterPaid(ctx context.Context, bookingID, participationID string, paid bool, actor string, now time.Time) error {
	query := `
		UPDATE participations
		SET roster_paid = $1, last_updated_at = $2, last_updated_by = $3
		WHERE booking_id = $4 AND participation_id = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, paid, now, actor, bookingID, participationID)
	if err != nil {
		return mapPgError(err, "set roster paid of "+participationID)
	}
	return expectRows(tag, "participation", participationID)
}
