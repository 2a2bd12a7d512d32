package repositories

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ParticipationReader defines read operations for roster rows.
type ParticipationReader interface {
	// ListRoster returns the booking's roster with Member populated, in insertion order.
	ListRoster(ctx context.Context, bookingID string) ([]domain.Participation, error)

	// SumCreditsByMember totals real and potential credits per member across all bookings.
	SumCreditsByMember(ctx context.Context) (map[string]domain.MemberCredits, error)
}

// ParticipationWriter defines write operations for roster rows.
type ParticipationWriter interface {
	// ListRosterInTx is ListRoster inside a lifecycle transaction.
	ListRosterInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.Participation, error)

	// AddParticipationInTx inserts a roster row. ErrDuplicate when the member is already on it.
	AddParticipationInTx(ctx context.Context, tx pgx.Tx, participation domain.Participation) error

	// DeleteParticipationInTx removes one roster row of the booking. ErrNotFound if absent.
	DeleteParticipationInTx(ctx context.Context, tx pgx.Tx, bookingID, participationID string) error

	// WriteCreditsInTx stores both computed credit fields of each listed participation.
	WriteCreditsInTx(ctx context.Context, tx pgx.Tx, bookingID string, credits map[string]domain.CreditUpdate, actor string, now time.Time) error

	// SetFixedGainsInTx stores or clears (null) the pinned amount of each listed participation.
	SetFixedGainsInTx(ctx context.Context, tx pgx.Tx, bookingID string, gains map[string]decimal.NullDecimal, actor string, now time.Time) error

	// ListBookingIDsForMemberInTx returns the bookings the member sits on.
	ListBookingIDsForMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) ([]string, error)

	// SetRosterPaid flips the per-member fee flag. ErrNotFound if the row is not on the booking.
	SetRosterPaid(ctx context.Context, bookingID, participationID string, paid bool, actor string, now time.Time) error
}

// ParticipationRepositoryFacade combines all participation-related repository interfaces.
type ParticipationRepositoryFacade interface {
	ParticipationReader
	ParticipationWriter
}
