package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// lifecycleService moves bookings between unsettled and settled and keeps credits in step.
type lifecycleService struct {
	*BaseService
}

// NewLifecycleService creates a new LifecycleSvcFacade.
func NewLifecycleService(base *BaseService) portssvc.LifecycleSvcFacade {
	return &lifecycleService{BaseService: base}
}

var _ portssvc.LifecycleSvcFacade = (*lifecycleService)(nil)

// SettleBooking implements portssvc.LifecycleSvcFacade.
func (s *lifecycleService) SettleBooking(ctx context.Context, bookingID string, params dto.SettleParams, actor string) (*dto.TransitionResult, error) {
	logger := s.GetLogger(ctx).With(slog.String("booking_id", bookingID))

	if params.Amount != nil {
		if err := validateMoney("amount", *params.Amount); err != nil {
			return nil, err
		}
	}

	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		proceeds := settlementProceeds(booking, params.Amount)
		paymentMethodID, err := s.resolvePaymentMethod(ctx, params.PaymentMethodID, booking.PaymentMethodID)
		if err != nil {
			return err
		}
		entryDate := booking.Date
		if params.Date != nil {
			entryDate = domain.DateOnly(params.Date.Time)
		}
		now := s.clock()

		booking.Settled = true
		booking.ActualProceeds = decimal.NewNullDecimal(proceeds)
		booking.ExpectedProceeds = decimal.NullDecimal{}
		booking.PaymentMethodID = &paymentMethodID

		var settlementEntryID *string
		deleted := 0
		if proceeds.IsPositive() {
			entry, err := s.entryRepo.UpsertSettlementEntryInTx(ctx, tx, domain.LedgerEntry{
				EntryID:     uuid.NewString(),
				MemberID:    paymentMethodID,
				Direction:   domain.EntryCredit,
				Motive:      domain.MotiveProceeds,
				Details:     booking.Venue,
				Amount:      proceeds,
				EntryDate:   entryDate,
				BookingID:   &booking.BookingID,
				Source:      domain.SourceSettlement,
				AuditFields: newAuditFields(actor, now),
			})
			if err != nil {
				return err
			}
			settlementEntryID = &entry.EntryID
		} else {
			// nothing was received, so no entry may claim otherwise
			if deleted, err = s.entryRepo.DeleteSettlementEntriesInTx(ctx, tx, booking.BookingID); err != nil {
				return err
			}
			logger.Info("Booking settled without proceeds, no settlement entry kept")
		}

		purged, err := s.entryRepo.PurgeProvisionalEntriesInTx(ctx, tx, booking.BookingID)
		if err != nil {
			return err
		}
		booking.ProvisionalExpenses = decimal.NullDecimal{}

		touch(&booking.AuditFields, actor, now)
		if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, *booking); err != nil {
			return err
		}

		outcome, err := s.recomputeInTx(ctx, tx, booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(booking, outcome)
		result.SettlementEntryID = settlementEntryID
		result.DeletedSettlementEntries = deleted
		result.PurgedProvisionalEntries = purged
		return nil
	})
	if err != nil {
		s.logTransitionFailure(ctx, "settle", bookingID, err)
		return nil, fmt.Errorf("settle booking %s: %w", bookingID, err)
	}

	logger.Info("Booking settled",
		slog.String("proceeds", result.Booking.ActualProceeds.Decimal.StringFixed(accounting.MoneyPlaces)),
		slog.Int("purged_provisional_entries", result.PurgedProvisionalEntries))
	s.committed(ctx, auditlog.NewEvent(domain.AuditBookingSettled,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]any{
			"proceeds":                 result.Booking.ActualProceeds,
			"paymentMethodID":          result.Booking.PaymentMethodID,
			"purgedProvisionalEntries": result.PurgedProvisionalEntries,
		}),
	))
	return result, nil
}

// settlementProceeds picks the first of the explicit amount, expected, existing actual, zero.
func settlementProceeds(booking *domain.Booking, amount *decimal.Decimal) decimal.Decimal {
	switch {
	case amount != nil:
		return accounting.RoundMoney(*amount)
	case booking.ExpectedProceeds.Valid:
		return accounting.RoundMoney(booking.ExpectedProceeds.Decimal)
	case booking.ActualProceeds.Valid:
		return accounting.RoundMoney(booking.ActualProceeds.Decimal)
	}
	return decimal.Zero
}

// UnsettleBooking implements portssvc.LifecycleSvcFacade.
func (s *lifecycleService) UnsettleBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error) {
	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if !booking.ExpectedProceeds.Valid && booking.ActualProceeds.Valid {
			booking.ExpectedProceeds = booking.ActualProceeds
		}
		deleted, err := s.entryRepo.DeleteSettlementEntriesInTx(ctx, tx, booking.BookingID)
		if err != nil {
			return err
		}
		booking.Settled = false
		booking.ActualProceeds = decimal.NullDecimal{}

		touch(&booking.AuditFields, actor, s.clock())
		if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, *booking); err != nil {
			return err
		}

		outcome, err := s.recomputeInTx(ctx, tx, booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(booking, outcome)
		result.DeletedSettlementEntries = deleted
		return nil
	})
	if err != nil {
		s.logTransitionFailure(ctx, "unsettle", bookingID, err)
		return nil, fmt.Errorf("unsettle booking %s: %w", bookingID, err)
	}

	s.GetLogger(ctx).Info("Booking unsettled", slog.String("booking_id", bookingID), slog.Int("deleted_settlement_entries", result.DeletedSettlementEntries))
	s.committed(ctx, auditlog.NewEvent(domain.AuditBookingUnsettled,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]any{
			"expectedProceeds":         result.Booking.ExpectedProceeds,
			"deletedSettlementEntries": result.DeletedSettlementEntries,
		}),
	))
	return result, nil
}

// RecomputeForBooking implements portssvc.LifecycleSvcFacade.
func (s *lifecycleService) RecomputeForBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error) {
	result, err := s.recomputeBooking(ctx, bookingID, actor)
	if err != nil {
		s.logTransitionFailure(ctx, "recompute", bookingID, err)
		return nil, err
	}
	s.committed(ctx, auditlog.NewEvent(domain.AuditRecomputed, auditlog.WithBooking(bookingID), auditlog.WithActor(actor)))
	return result, nil
}

// ApplyOverrides implements portssvc.LifecycleSvcFacade. Pins are checked against the current
// basis together with the pins already stored; nothing is written if they do not fit.
func (s *lifecycleService) ApplyOverrides(ctx context.Context, bookingID string, pins map[string]decimal.NullDecimal, actor string) (*dto.TransitionResult, error) {
	logger := s.GetLogger(ctx).With(slog.String("booking_id", bookingID))

	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.clock()

		roster, err := s.rosterRepo.ListRosterInTx(ctx, tx, booking.BookingID)
		if err != nil {
			return err
		}
		roster, structureID, err := s.ensureStructureInTx(ctx, tx, booking.BookingID, roster, actor, now)
		if err != nil {
			return err
		}
		entries := allocation.RosterFromParticipations(roster, structureID)

		if _, _, err := allocation.ResolvePins(entries, pins); err != nil {
			return err
		}

		gains := make(map[string]decimal.NullDecimal, len(pins))
		setsPin := false
		for i := range entries {
			pin, ok := pins[entries[i].ParticipationID]
			if !ok {
				continue
			}
			if pin.Valid {
				pin = decimal.NewNullDecimal(accounting.RoundMoney(pin.Decimal))
				setsPin = true
			}
			entries[i].FixedGain = pin
			gains[entries[i].ParticipationID] = pin
		}

		// Clearing pins is always allowed, even when the remaining ones no longer fit.
		if setsPin {
			base := allocation.ComputeAllocation(allocation.BasisOf(*booking), entries)
			if _, err := allocation.ApplyOverrides(base.Keyed(), allocation.StoredPins(entries)); err != nil {
				return err
			}
		}

		if err := s.rosterRepo.SetFixedGainsInTx(ctx, tx, booking.BookingID, gains, actor, now); err != nil {
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
		if isValidation(err) {
			logger.Warn("Overrides rejected", slog.String("error", err.Error()))
		} else {
			s.logTransitionFailure(ctx, "apply overrides", bookingID, err)
		}
		return nil, fmt.Errorf("apply overrides to booking %s: %w", bookingID, err)
	}

	logger.Info("Overrides applied", slog.Int("pins", len(pins)))
	s.committed(ctx, auditlog.NewEvent(domain.AuditOverridesApplied,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]any{"pins": pins}),
	))
	return result, nil
}

// logTransitionFailure logs at Error unless the caller sent something invalid.
func (s *BaseService) logTransitionFailure(ctx context.Context, op, bookingID string, err error) {
	if isValidation(err) || isNotFound(err) {
		s.GetLogger(ctx).Warn("Transition refused", slog.String("op", op), slog.String("booking_id", bookingID), slog.String("error", err.Error()))
		return
	}
	s.LogError(ctx, err, "Transition failed, rolled back", slog.String("op", op), slog.String("booking_id", bookingID))
}

func isValidation(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrDuplicate)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
