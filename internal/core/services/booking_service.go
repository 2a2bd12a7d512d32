package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const defaultBookingPageSize = 20

// bookingService manages bookings and their rosters.
type bookingService struct {
	*BaseService
}

// NewBookingService creates a new BookingSvcFacade.
func NewBookingService(base *BaseService) portssvc.BookingSvcFacade {
	return &bookingService{BaseService: base}
}

var _ portssvc.BookingSvcFacade = (*bookingService)(nil)

// GetBookingByID implements portssvc.BookingReaderSvc.
func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	return booking, nil
}

// ListBookings implements portssvc.BookingReaderSvc.
func (s *bookingService) ListBookings(ctx context.Context, params dto.ListBookingsParams) (*dto.ListBookingsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultBookingPageSize
	}
	bookings, next, err := s.bookingRepo.ListBookings(ctx, portsrepo.ListBookingsParams{
		Settled:   params.Settled,
		Limit:     limit,
		NextToken: params.NextToken,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	resp := dto.ToListBookingsResponse(bookings, next)
	return &resp, nil
}

// GetAllocationView implements portssvc.BookingReaderSvc.
func (s *bookingService) GetAllocationView(ctx context.Context, bookingID string) (*dto.AllocationView, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	roster, err := s.rosterRepo.ListRoster(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list roster of booking %s: %w", bookingID, err)
	}

	structure, err := s.memberRepo.FindMemberByRole(ctx, domain.RoleStructure)
	if err != nil {
		return nil, fmt.Errorf("find structure member: %w", err)
	}
	structureID := ""
	if structure != nil {
		structureID = structure.MemberID
	}

	entries := allocation.RosterFromParticipations(roster, structureID)
	alloc := allocation.ComputeAllocation(allocation.BasisOf(*booking), entries)
	base := alloc.Keyed()

	view := &dto.AllocationView{
		BookingID:  booking.BookingID,
		Settled:    booking.Settled,
		Allocation: alloc,
		Rows:       make([]dto.AllocationRow, len(roster)),
	}
	for i, p := range roster {
		row := dto.AllocationRow{
			ParticipationID: p.ParticipationID,
			MemberID:        p.MemberID,
			RosterPaid:      p.RosterPaid,
			BaseShare:       base[entries[i].Key()],
			FixedGain:       p.FixedGain,
			PotentialCredit: p.PotentialCredit,
			RealCredit:      p.RealCredit,
		}
		if p.Member != nil {
			row.Name = p.Member.Name
			row.Kind = p.Member.Kind
			row.IsBonusRole = p.Member.IsBonusRole
			row.IsStructureRole = p.Member.IsStructureRole
		}
		view.Rows[i] = row
	}
	return view, nil
}

// ListAuditEvents implements portssvc.BookingReaderSvc.
func (s *bookingService) ListAuditEvents(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := s.auditRepo.ListAuditEventsByBooking(ctx, bookingID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events of booking %s: %w", bookingID, err)
	}
	return events, nil
}

// CreateBooking implements portssvc.BookingWriterSvc. The bonus member joins every new roster
// when one is configured.
func (s *bookingService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest, actor string) (*dto.TransitionResult, error) {
	venue := strings.TrimSpace(req.Venue)
	if venue == "" {
		return nil, fmt.Errorf("%w: venue is required", apperrors.ErrValidation)
	}
	if req.Date == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if req.ExpectedProceeds != nil {
		if err := validateMoney("expectedProceeds", *req.ExpectedProceeds); err != nil {
			return nil, err
		}
	}
	expenses := decimal.Zero
	if req.Expenses != nil {
		if err := validateMoney("expenses", *req.Expenses); err != nil {
			return nil, err
		}
		expenses = *req.Expenses
	}

	var paymentMethodID *string
	if req.PaymentMethodID != nil || expenses.IsPositive() {
		id, err := s.resolvePaymentMethod(ctx, req.PaymentMethodID, nil)
		if err != nil {
			return nil, err
		}
		paymentMethodID = &id
	}

	members, err := s.activeMembers(ctx, req.MemberIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	booking := domain.Booking{
		BookingID:       uuid.NewString(),
		Date:            domain.DateOnly(req.Date.Time),
		Venue:           venue,
		Expenses:        expenses,
		PaymentMethodID: paymentMethodID,
		AuditFields:     newAuditFields(actor, now),
	}
	if req.ExpectedProceeds != nil {
		booking.ExpectedProceeds = decimal.NewNullDecimal(*req.ExpectedProceeds)
	}

	var result *dto.TransitionResult
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.bookingRepo.InsertBookingInTx(ctx, tx, booking); err != nil {
			return err
		}

		bonus, err := s.memberRepo.FindMemberByRoleInTx(ctx, tx, domain.RoleBonus)
		if err != nil {
			return err
		}
		if bonus != nil && bonus.IsActive {
			members = appendMissing(members, *bonus)
		}
		for _, m := range members {
			if err := s.rosterRepo.AddParticipationInTx(ctx, tx, newParticipation(booking.BookingID, m.MemberID, actor, now)); err != nil {
				return err
			}
		}

		if expenses.IsPositive() {
			entry := domain.LedgerEntry{
				EntryID:     uuid.NewString(),
				MemberID:    *paymentMethodID,
				Direction:   domain.EntryDebit,
				Motive:      domain.MotiveExpenses,
				Details:     venue,
				Amount:      expenses,
				EntryDate:   booking.Date,
				BookingID:   &booking.BookingID,
				Source:      domain.SourceManual,
				AuditFields: newAuditFields(actor, now),
			}
			if err := s.entryRepo.SaveEntriesInTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		outcome, err := s.recomputeInTx(ctx, tx, &booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(&booking, outcome)
		return nil
	})
	if err != nil {
		s.logTransitionFailure(ctx, "create", booking.BookingID, err)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.GetLogger(ctx).Info("Booking created", slog.String("booking_id", booking.BookingID), slog.Int("roster_size", len(result.Roster)))
	s.committed(ctx, auditlog.NewEvent(domain.AuditBookingCreated,
		auditlog.WithBooking(booking.BookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(dto.ToBookingResponse(&booking)),
	))
	return result, nil
}

// UpdateBooking implements portssvc.BookingWriterSvc.
func (s *bookingService) UpdateBooking(ctx context.Context, bookingID string, req dto.UpdateBookingRequest, actor string) (*dto.TransitionResult, error) {
	if req.ExpectedProceeds != nil {
		if err := validateMoney("expectedProceeds", *req.ExpectedProceeds); err != nil {
			return nil, err
		}
	}
	if req.Venue != nil && strings.TrimSpace(*req.Venue) == "" {
		return nil, fmt.Errorf("%w: venue must not be empty", apperrors.ErrValidation)
	}
	var paymentMethodID string
	if req.PaymentMethodID != nil {
		id, err := s.resolvePaymentMethod(ctx, req.PaymentMethodID, nil)
		if err != nil {
			return nil, err
		}
		paymentMethodID = id
	}

	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.clock()

		if req.ExpectedProceeds != nil {
			if booking.Settled {
				return fmt.Errorf("%w: expected proceeds cannot change once the booking is settled", apperrors.ErrValidation)
			}
			booking.ExpectedProceeds = decimal.NewNullDecimal(*req.ExpectedProceeds)
		}
		if req.Date != nil {
			booking.Date = domain.DateOnly(req.Date.Time)
		}
		if req.Venue != nil {
			booking.Venue = strings.TrimSpace(*req.Venue)
		}

		if req.PaymentMethodID != nil {
			booking.PaymentMethodID = &paymentMethodID
		}

		// The settlement entry mirrors the booking's payment method, date and venue.
		hasSettlement := booking.Settled && booking.ActualProceeds.Valid && booking.ActualProceeds.Decimal.IsPositive()
		if hasSettlement && booking.PaymentMethodID != nil && (req.PaymentMethodID != nil || req.Date != nil || req.Venue != nil) {
			if _, err := s.entryRepo.UpsertSettlementEntryInTx(ctx, tx, domain.LedgerEntry{
				EntryID:     uuid.NewString(),
				MemberID:    *booking.PaymentMethodID,
				Direction:   domain.EntryCredit,
				Motive:      domain.MotiveProceeds,
				Details:     booking.Venue,
				Amount:      booking.ActualProceeds.Decimal,
				EntryDate:   booking.Date,
				BookingID:   &booking.BookingID,
				Source:      domain.SourceSettlement,
				AuditFields: newAuditFields(actor, now),
			}); err != nil {
				return err
			}
		}

		touch(&booking.AuditFields, actor, now)
		if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, *booking); err != nil {
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
		s.logTransitionFailure(ctx, "update", bookingID, err)
		return nil, fmt.Errorf("update booking %s: %w", bookingID, err)
	}

	s.committed(ctx, auditlog.NewEvent(domain.AuditBookingUpdated,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(req),
	))
	return result, nil
}

// ReplaceRoster implements portssvc.BookingWriterSvc. The bonus member and the structure stay on
// the roster whatever the request says.
func (s *bookingService) ReplaceRoster(ctx context.Context, bookingID string, memberIDs []string, actor string) (*dto.TransitionResult, error) {
	members, err := s.activeMembers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	var added, removed []string
	var result *dto.TransitionResult
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		now := s.clock()

		bonus, err := s.memberRepo.FindMemberByRoleInTx(ctx, tx, domain.RoleBonus)
		if err != nil {
			return err
		}
		if bonus != nil && bonus.IsActive {
			members = appendMissing(members, *bonus)
		}
		wanted := make(map[string]bool, len(members))
		for _, m := range members {
			wanted[m.MemberID] = true
		}

		roster, err := s.rosterRepo.ListRosterInTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		present := make(map[string]bool, len(roster))
		for _, p := range roster {
			present[p.MemberID] = true
			if wanted[p.MemberID] || (p.Member != nil && p.Member.IsStructureRole) {
				continue
			}
			if err := s.rosterRepo.DeleteParticipationInTx(ctx, tx, bookingID, p.ParticipationID); err != nil {
				return err
			}
			removed = append(removed, p.MemberID)
		}
		for _, m := range members {
			if present[m.MemberID] {
				continue
			}
			if err := s.rosterRepo.AddParticipationInTx(ctx, tx, newParticipation(bookingID, m.MemberID, actor, now)); err != nil {
				return err
			}
			added = append(added, m.MemberID)
		}

		outcome, err := s.recomputeInTx(ctx, tx, booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(booking, outcome)
		return nil
	})
	if err != nil {
		s.logTransitionFailure(ctx, "replace roster", bookingID, err)
		return nil, fmt.Errorf("replace roster of booking %s: %w", bookingID, err)
	}

	s.GetLogger(ctx).Info("Roster replaced", slog.String("booking_id", bookingID), slog.Int("added", len(added)), slog.Int("removed", len(removed)))
	s.committed(ctx, auditlog.NewEvent(domain.AuditRosterChanged,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string][]string{"added": added, "removed": removed}),
	))
	return result, nil
}

// AddParticipant implements portssvc.BookingWriterSvc.
func (s *bookingService) AddParticipant(ctx context.Context, bookingID string, memberID string, actor string) (*dto.TransitionResult, error) {
	if _, err := s.activeMembers(ctx, []string{memberID}); err != nil {
		return nil, err
	}

	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := s.rosterRepo.AddParticipationInTx(ctx, tx, newParticipation(bookingID, memberID, actor, s.clock())); err != nil {
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
		s.logTransitionFailure(ctx, "add participant", bookingID, err)
		return nil, fmt.Errorf("add member %s to booking %s: %w", memberID, bookingID, err)
	}

	s.committed(ctx, auditlog.NewEvent(domain.AuditRosterChanged,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string][]string{"added": {memberID}}),
	))
	return result, nil
}

// RemoveParticipant implements portssvc.BookingWriterSvc. The structure cannot be removed.
func (s *bookingService) RemoveParticipant(ctx context.Context, bookingID string, participationID string, actor string) (*dto.TransitionResult, error) {
	var removedMember string
	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		roster, err := s.rosterRepo.ListRosterInTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		var target *domain.Participation
		for i := range roster {
			if roster[i].ParticipationID == participationID {
				target = &roster[i]
				break
			}
		}
		if target == nil {
			return apperrors.NewNotFoundError("participation", participationID)
		}
		if target.Member != nil && target.Member.IsStructureRole {
			return fmt.Errorf("%w: the structure always keeps its share and cannot leave the roster", apperrors.ErrValidation)
		}
		removedMember = target.MemberID

		if err := s.rosterRepo.DeleteParticipationInTx(ctx, tx, bookingID, participationID); err != nil {
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
		s.logTransitionFailure(ctx, "remove participant", bookingID, err)
		return nil, fmt.Errorf("remove participation %s from booking %s: %w", participationID, bookingID, err)
	}

	s.committed(ctx, auditlog.NewEvent(domain.AuditRosterChanged,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string][]string{"removed": {removedMember}}),
	))
	return result, nil
}

// SetParticipantPaid implements portssvc.BookingWriterSvc.
func (s *bookingService) SetParticipantPaid(ctx context.Context, bookingID string, participationID string, paid bool, actor string) error {
	if err := s.rosterRepo.SetRosterPaid(ctx, bookingID, participationID, paid, actor, s.clock()); err != nil {
		return fmt.Errorf("set roster paid on participation %s: %w", participationID, err)
	}
	return nil
}

// SetProvisionalExpense implements portssvc.BookingWriterSvc.
func (s *bookingService) SetProvisionalExpense(ctx context.Context, bookingID string, amount decimal.Decimal, actor string) (*dto.TransitionResult, error) {
	if err := validateMoney("amount", amount); err != nil {
		return nil, err
	}

	var result *dto.TransitionResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		booking, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.Settled {
			return fmt.Errorf("%w: provisional expenses only apply to unsettled bookings", apperrors.ErrValidation)
		}

		if amount.IsZero() {
			if _, err := s.entryRepo.PurgeProvisionalEntriesInTx(ctx, tx, bookingID); err != nil {
				return err
			}
		} else {
			paymentMethodID, err := s.resolvePaymentMethod(ctx, nil, booking.PaymentMethodID)
			if err != nil {
				return err
			}
			if _, err := s.entryRepo.UpsertProvisionalExpenseInTx(ctx, tx, domain.LedgerEntry{
				EntryID:     uuid.NewString(),
				MemberID:    paymentMethodID,
				Direction:   domain.EntryDebit,
				Motive:      domain.MotiveExpenses,
				Details:     booking.Venue,
				Amount:      amount,
				EntryDate:   booking.Date,
				BookingID:   &booking.BookingID,
				Provisional: true,
				Source:      domain.SourceProvisionalExpense,
				AuditFields: newAuditFields(actor, s.clock()),
			}); err != nil {
				return err
			}
		}

		outcome, err := s.recomputeExpensesInTx(ctx, tx, booking, actor)
		if err != nil {
			return err
		}
		result = newTransitionResult(booking, outcome)
		return nil
	})
	if err != nil {
		s.logTransitionFailure(ctx, "set provisional expense", bookingID, err)
		return nil, fmt.Errorf("set provisional expense of booking %s: %w", bookingID, err)
	}

	s.committed(ctx, auditlog.NewEvent(domain.AuditProvisionalSet,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]string{"amount": amount.StringFixed(accounting.MoneyPlaces)}),
	))
	return result, nil
}

// DeleteBooking implements portssvc.BookingWriterSvc.
func (s *bookingService) DeleteBooking(ctx context.Context, bookingID string, actor string) error {
	var deletedEntries int
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.lockBooking(ctx, tx, bookingID); err != nil {
			return err
		}
		n, err := s.entryRepo.DeleteEntriesForBookingInTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		deletedEntries = n
		return s.bookingRepo.DeleteBookingInTx(ctx, tx, bookingID)
	})
	if err != nil {
		s.logTransitionFailure(ctx, "delete", bookingID, err)
		return fmt.Errorf("delete booking %s: %w", bookingID, err)
	}

	s.GetLogger(ctx).Info("Booking deleted", slog.String("booking_id", bookingID), slog.Int("deleted_entries", deletedEntries))
	s.committed(ctx, auditlog.NewEvent(domain.AuditBookingDeleted,
		auditlog.WithBooking(bookingID),
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]int{"deletedEntries": deletedEntries}),
	))
	return nil
}

// RecomputeAll implements portssvc.BookingMaintenanceSvc.
func (s *bookingService) RecomputeAll(ctx context.Context) (*dto.RecomputeAllResult, error) {
	logger := s.GetLogger(ctx)
	ids, err := s.bookingRepo.ListBookingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings to recompute: %w", err)
	}

	result := &dto.RecomputeAllResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.recomputeBooking(ctx, id, domain.SystemActor); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			logger.Error("Recompute failed, continuing", slog.String("booking_id", id), slog.String("error", err.Error()))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Processed++
	}

	logger.Info("Recomputed all bookings", slog.Int("processed", result.Processed), slog.Int("failed", result.Failed))
	if result.Processed > 0 {
		s.committed(ctx, auditlog.NewEvent(domain.AuditRecomputed,
			auditlog.WithActor(domain.SystemActor),
			auditlog.WithData(result),
		))
	}
	return result, nil
}

// activeMembers loads the given members, deduplicated in request order. Unknown IDs are
// NotFound and inactive members are refused.
func (s *bookingService) activeMembers(ctx context.Context, memberIDs []string) ([]domain.Member, error) {
	ids := make([]string, 0, len(memberIDs))
	seen := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.memberRepo.FindMembersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		m, ok := found[id]
		if !ok {
			return nil, apperrors.NewNotFoundError("member", id)
		}
		if !m.IsActive {
			return nil, fmt.Errorf("%w: member %s is inactive", apperrors.ErrValidation, id)
		}
		members = append(members, m)
	}
	return members, nil
}

func appendMissing(members []domain.Member, m domain.Member) []domain.Member {
	for _, existing := range members {
		if existing.MemberID == m.MemberID {
			return members
		}
	}
	return append(members, m)
}

func newParticipation(bookingID, memberID, actor string, now time.Time) domain.Participation {
	return domain.Participation{
		ParticipationID: uuid.NewString(),
		BookingID:       bookingID,
		MemberID:        memberID,
		PotentialCredit: decimal.Zero,
		RealCredit:      decimal.Zero,
		AuditFields:     newAuditFields(actor, now),
	}
}
