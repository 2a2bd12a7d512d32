package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// recomputeOutcome is what recomputeInTx wrote.
type recomputeOutcome struct {
	roster           []domain.Participation
	alloc            allocation.Allocation
	final            map[string]decimal.Decimal
	overridesIgnored bool
}

// lockBooking loads a booking and holds its row lock for the rest of the transaction,
// which serialises transitions on the same booking.
func (s *BaseService) lockBooking(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindBookingForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NewNotFoundError("booking", bookingID)
	}
	return booking, nil
}

// ensureStructureInTx puts the structure member on the roster when it exists and is missing,
// so its reserved share always lands on a real participation. It also returns the current
// structure's member ID, empty when no active member holds the role.
func (s *BaseService) ensureStructureInTx(ctx context.Context, tx pgx.Tx, bookingID string, roster []domain.Participation, actor string, now time.Time) ([]domain.Participation, string, error) {
	structure, err := s.memberRepo.FindMemberByRoleInTx(ctx, tx, domain.RoleStructure)
	if err != nil {
		return nil, "", err
	}
	if structure == nil || !structure.IsActive {
		return roster, "", nil
	}
	for _, p := range roster {
		if p.MemberID == structure.MemberID {
			return roster, structure.MemberID, nil
		}
	}

	p := domain.Participation{
		ParticipationID: uuid.NewString(),
		BookingID:       bookingID,
		MemberID:        structure.MemberID,
		PotentialCredit: decimal.Zero,
		RealCredit:      decimal.Zero,
		AuditFields:     newAuditFields(actor, now),
		Member:          structure,
	}
	if err := s.rosterRepo.AddParticipationInTx(ctx, tx, p); err != nil {
		return nil, "", fmt.Errorf("auto-join structure: %w", err)
	}
	s.GetLogger(ctx).Debug("Structure auto-joined roster", slog.String("booking_id", bookingID), slog.String("member_id", structure.MemberID))
	return append(roster, p), structure.MemberID, nil
}

// recomputeInTx is the single recompute path: auto-join the structure, compute the base
// allocation from the booking's current basis, apply stored pins, and write the result into
// the active credit field while zeroing the other one.
func (s *BaseService) recomputeInTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking, actor string) (*recomputeOutcome, error) {
	logger := s.GetLogger(ctx).With(slog.String("booking_id", booking.BookingID))
	now := s.clock()

	roster, err := s.rosterRepo.ListRosterInTx(ctx, tx, booking.BookingID)
	if err != nil {
		return nil, err
	}
	roster, structureID, err := s.ensureStructureInTx(ctx, tx, booking.BookingID, roster, actor, now)
	if err != nil {
		return nil, err
	}

	entries := allocation.RosterFromParticipations(roster, structureID)
	alloc := allocation.ComputeAllocation(allocation.BasisOf(*booking), entries)
	final := alloc.Keyed()
	ignored := false

	if alloc.Skipped {
		logger.Debug("Allocation skipped, no proceeds to share", slog.Bool("settled", booking.Settled))
	} else if pins := allocation.StoredPins(entries); len(pins) > 0 {
		overridden, err := allocation.ApplyOverrides(final, pins)
		switch {
		case err == nil:
			final = overridden
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Stored fixed gains no longer fit the total, using base allocation", slog.String("error", err.Error()))
			ignored = true
		default:
			return nil, err
		}
	}

	credits := make(map[string]domain.CreditUpdate, len(roster))
	for i, entry := range entries {
		amount := accounting.RoundMoney(final[entry.Key()])
		update := domain.CreditUpdate{Potential: decimal.Zero, Real: decimal.Zero}
		if booking.Settled {
			update.Real = amount
		} else {
			update.Potential = amount
		}
		credits[entry.ParticipationID] = update
		roster[i].PotentialCredit = update.Potential
		roster[i].RealCredit = update.Real
	}
	if len(credits) > 0 {
		if err := s.rosterRepo.WriteCreditsInTx(ctx, tx, booking.BookingID, credits, actor, now); err != nil {
			return nil, err
		}
	}

	return &recomputeOutcome{roster: roster, alloc: alloc, final: final, overridesIgnored: ignored}, nil
}

// recomputeBooking recomputes one booking in its own transaction.
func (s *BaseService) recomputeBooking(ctx context.Context, bookingID, actor string) (*dto.TransitionResult, error) {
	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		outcome, err := s.recomputeInTx(ctx, tx, booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(booking, outcome)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute booking %s: %w", bookingID, err)
	}
	return result, nil
}

// recomputeExpensesInTx derives the booking's confirmed and provisional expenses from its
// entries, stores them and recomputes credits.
func (s *BaseService) recomputeExpensesInTx(ctx context.Context, tx pgx.Tx, booking *domain.Booking, actor string) (*recomputeOutcome, error) {
	entries, err := s.entryRepo.ListEntriesByBookingInTx(ctx, tx, booking.BookingID)
	if err != nil {
		return nil, err
	}
	booking.Expenses = accounting.RoundMoney(accounting.ExpenseTotal(entries, false))
	if booking.Settled {
		booking.ProvisionalExpenses = decimal.NullDecimal{}
	} else {
		booking.ProvisionalExpenses = accounting.NullIfZero(accounting.RoundMoney(accounting.ExpenseTotal(entries, true)))
	}
	touch(&booking.AuditFields, actor, s.clock())
	if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, *booking); err != nil {
		return nil, err
	}
	return s.recomputeInTx(ctx, tx, booking, actor)
}

// resolvePaymentMethod picks the requested payment method, else the booking's, else the first
// active one. A requested member must be an active payment-method structure.
func (s *BaseService) resolvePaymentMethod(ctx context.Context, requested, current *string) (string, error) {
	if requested != nil && *requested != "" {
		member, err := s.memberRepo.FindMemberByID(ctx, *requested)
		if err != nil {
			return "", err
		}
		if !member.IsPaymentMethod || !member.IsActive {
			return "", fmt.Errorf("%w: member %s is not an active payment method", apperrors.ErrValidation, member.MemberID)
		}
		return member.MemberID, nil
	}
	if current != nil && *current != "" {
		return *current, nil
	}
	methods, err := s.memberRepo.ListPaymentMethods(ctx)
	if err != nil {
		return "", err
	}
	if len(methods) == 0 {
		return "", fmt.Errorf("%w: no payment method is configured", apperrors.ErrValidation)
	}
	return methods[0].MemberID, nil
}

// validateMoney checks an input amount is non-negative with at most two decimals.
func validateMoney(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, field)
	}
	if !accounting.HasMoneyPrecision(amount) {
		return fmt.Errorf("%w: %s has more than %d decimal places", apperrors.ErrValidation, field, accounting.MoneyPlaces)
	}
	return nil
}

func newTransitionResult(booking *domain.Booking, outcome *recomputeOutcome) *dto.TransitionResult {
	return &dto.TransitionResult{
		Booking:          *booking,
		Roster:           outcome.roster,
		Allocation:       outcome.alloc,
		Final:            outcome.final,
		Skipped:          outcome.alloc.Skipped,
		OverridesIgnored: outcome.overridesIgnored,
	}
}
