package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultEntryPageSize = 50

// entryService implements the LedgerEntrySvcFacade interface.
type entryService struct {
	*BaseService
}

// NewLedgerEntryService creates a new LedgerEntrySvcFacade.
func NewLedgerEntryService(base *BaseService) portssvc.LedgerEntrySvcFacade {
	return &entryService{BaseService: base}
}

var _ portssvc.LedgerEntrySvcFacade = (*entryService)(nil)

// CreateEntry implements portssvc.LedgerEntrySvcFacade.
func (s *entryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor string) ([]domain.LedgerEntry, error) {
	logger := s.GetLogger(ctx)

	if req.Date == nil {
		return nil, fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	motive, err := normalizeMotive(req.Motive)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	primary := domain.LedgerEntry{
		EntryID:     uuid.NewString(),
		MemberID:    req.MemberID,
		Direction:   req.Direction,
		Motive:      motive,
		Details:     strings.TrimSpace(req.Details),
		Amount:      req.Amount,
		EntryDate:   domain.DateOnly(req.Date.Time),
		BookingID:   nonEmpty(req.BookingID),
		Source:      domain.SourceManual,
		AuditFields: newAuditFields(actor, now),
	}
	if err := accounting.ValidateEntry(primary); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	memberIDs := []string{primary.MemberID}
	offsetID := nonEmpty(req.OffsetMemberID)
	if offsetID != nil {
		if *offsetID == primary.MemberID {
			return nil, fmt.Errorf("%w: an entry cannot offset against its own member", apperrors.ErrValidation)
		}
		memberIDs = append(memberIDs, *offsetID)
	}
	if err := s.requireMembers(ctx, memberIDs...); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	entries := []domain.LedgerEntry{primary}
	if offsetID != nil {
		// Only the primary entry is linked to the booking, so the pair never nets its expenses out.
		pair := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			MemberID:      *offsetID,
			Direction:     primary.Direction.Opposite(),
			Motive:        primary.Motive,
			Details:       primary.Details,
			Amount:        primary.Amount,
			EntryDate:     primary.EntryDate,
			PairedEntryID: &primary.EntryID,
			Source:        domain.SourceOffset,
			AuditFields:   primary.AuditFields,
		}
		entries[0].PairedEntryID = &pair.EntryID
		entries = append(entries, pair)
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var booking *domain.Booking
		if primary.BookingID != nil {
			b, err := s.lockBooking(ctx, tx, *primary.BookingID)
			if err != nil {
				return err
			}
			booking = b
		}
		if err := s.entryRepo.SaveEntriesInTx(ctx, tx, entries...); err != nil {
			return err
		}
		if booking != nil && accounting.IsExpenseMotive(primary.Motive) {
			if _, err := s.recomputeExpensesInTx(ctx, tx, booking, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPersistence) {
			s.LogError(ctx, err, "Failed to create ledger entry", slog.String("member_id", primary.MemberID))
		}
		return nil, fmt.Errorf("create entry: %w", err)
	}

	logger.Info("Ledger entry created", slog.String("entry_id", primary.EntryID), slog.String("member_id", primary.MemberID), slog.Bool("paired", offsetID != nil))
	opts := []auditlog.EventOption{auditlog.WithActor(actor), auditlog.WithData(dto.ToEntryResponses(entries))}
	if primary.BookingID != nil {
		opts = append(opts, auditlog.WithBooking(*primary.BookingID))
	}
	s.committed(ctx, auditlog.NewEvent(domain.AuditEntryCreated, opts...))
	return entries, nil
}

// UpdateEntry implements portssvc.LedgerEntrySvcFacade. Date, amount, motive, details and
// direction are mirrored onto the pair; the member and the booking belong to one side only.
func (s *entryService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, actor string) ([]domain.LedgerEntry, error) {
	var updated []domain.LedgerEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.findEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if entry.IsSystemManaged() {
			return fmt.Errorf("%w: %s entries are managed by their booking", apperrors.ErrValidation, entry.Source)
		}
		before := []domain.LedgerEntry{*entry}
		var pair *domain.LedgerEntry
		if entry.PairedEntryID != nil {
			if pair, err = s.findEntryForUpdate(ctx, tx, *entry.PairedEntryID); err != nil {
				return err
			}
			before = append(before, *pair)
		}

		edited := *entry
		if err := applyEntryUpdate(&edited, req); err != nil {
			return err
		}
		if req.MemberID != nil && edited.MemberID != entry.MemberID {
			if pair != nil && pair.MemberID == edited.MemberID {
				return fmt.Errorf("%w: an entry cannot offset against its own member", apperrors.ErrValidation)
			}
			if err := s.requireMembers(ctx, edited.MemberID); err != nil {
				return err
			}
		}
		if req.BookingID != nil {
			if entry.Source == domain.SourceOffset {
				return fmt.Errorf("%w: only the primary entry of a pair is linked to a booking", apperrors.ErrValidation)
			}
			edited.BookingID = nonEmpty(req.BookingID)
		}
		if err := accounting.ValidateEntry(edited); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}

		now := s.clock()
		touch(&edited.AuditFields, actor, now)
		updated = []domain.LedgerEntry{edited}
		if pair != nil {
			mirrored := *pair
			mirrored.Direction = edited.Direction.Opposite()
			mirrored.Motive = edited.Motive
			mirrored.Details = edited.Details
			mirrored.Amount = edited.Amount
			mirrored.EntryDate = edited.EntryDate
			touch(&mirrored.AuditFields, actor, now)
			updated = append(updated, mirrored)
		}

		// Lock every booking whose expenses move, old link and new, before rewriting rows.
		var bookings []*domain.Booking
		for _, id := range expenseBookingIDs(append(before, updated...)) {
			b, err := s.lockBooking(ctx, tx, id)
			if err != nil {
				return err
			}
			bookings = append(bookings, b)
		}
		if edited.BookingID != nil && !slices.Contains(expenseBookingIDs(updated), *edited.BookingID) {
			if _, err := s.lockBooking(ctx, tx, *edited.BookingID); err != nil {
				return err
			}
		}
		if err := s.entryRepo.UpdateEntriesInTx(ctx, tx, updated...); err != nil {
			return err
		}
		for _, b := range bookings {
			if _, err := s.recomputeExpensesInTx(ctx, tx, b, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPersistence) {
			s.LogError(ctx, err, "Failed to update ledger entry", slog.String("entry_id", entryID))
		}
		return nil, fmt.Errorf("update entry %s: %w", entryID, err)
	}

	s.GetLogger(ctx).Info("Ledger entry updated", slog.String("entry_id", entryID), slog.Int("rows", len(updated)))
	opts := []auditlog.EventOption{auditlog.WithActor(actor), auditlog.WithData(dto.ToEntryResponses(updated))}
	if updated[0].BookingID != nil {
		opts = append(opts, auditlog.WithBooking(*updated[0].BookingID))
	}
	s.committed(ctx, auditlog.NewEvent(domain.AuditEntryUpdated, opts...))
	return updated, nil
}

// DeleteEntry implements portssvc.LedgerEntrySvcFacade.
func (s *entryService) DeleteEntry(ctx context.Context, entryID string, actor string) error {
	var deleted []domain.LedgerEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.findEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if entry.IsSystemManaged() {
			return fmt.Errorf("%w: %s entries are managed by their booking", apperrors.ErrValidation, entry.Source)
		}
		deleted = append(deleted, *entry)
		if entry.PairedEntryID != nil {
			pair, err := s.findEntryForUpdate(ctx, tx, *entry.PairedEntryID)
			if err != nil {
				return err
			}
			deleted = append(deleted, *pair)
		}

		// Lock the affected bookings before the rows go.
		var bookings []*domain.Booking
		for _, e := range deleted {
			if e.BookingID == nil || !accounting.IsExpenseMotive(e.Motive) {
				continue
			}
			b, err := s.lockBooking(ctx, tx, *e.BookingID)
			if err != nil {
				return err
			}
			bookings = append(bookings, b)
		}

		ids := make([]string, len(deleted))
		for i, e := range deleted {
			ids[i] = e.EntryID
		}
		if err := s.entryRepo.DeleteEntriesInTx(ctx, tx, ids...); err != nil {
			return err
		}
		for _, b := range bookings {
			if _, err := s.recomputeExpensesInTx(ctx, tx, b, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPersistence) {
			s.LogError(ctx, err, "Failed to delete ledger entry", slog.String("entry_id", entryID))
		}
		return fmt.Errorf("delete entry %s: %w", entryID, err)
	}

	s.GetLogger(ctx).Info("Ledger entry deleted", slog.String("entry_id", entryID), slog.Int("rows", len(deleted)))
	opts := []auditlog.EventOption{auditlog.WithActor(actor), auditlog.WithData(dto.ToEntryResponses(deleted))}
	if deleted[0].BookingID != nil {
		opts = append(opts, auditlog.WithBooking(*deleted[0].BookingID))
	}
	s.committed(ctx, auditlog.NewEvent(domain.AuditEntryDeleted, opts...))
	return nil
}

// GetEntryByID implements portssvc.LedgerEntrySvcFacade.
func (s *entryService) GetEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", entryID, err)
	}
	return entry, nil
}

// ListEntriesByMember implements portssvc.LedgerEntrySvcFacade.
func (s *entryService) ListEntriesByMember(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntryPageSize
	}
	if _, err := s.memberRepo.FindMemberByID(ctx, params.MemberID); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries, next, err := s.entryRepo.ListEntriesByMember(ctx, params.MemberID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("list entries of member %s: %w", params.MemberID, err)
	}
	return &dto.ListEntriesResponse{Entries: dto.ToEntryResponses(entries), NextToken: next}, nil
}

func (s *entryService) findEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	entry, err := s.entryRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NewNotFoundError("ledger entry", entryID)
	}
	return entry, nil
}

// applyEntryUpdate copies the fields present in req onto e.
func applyEntryUpdate(e *domain.LedgerEntry, req dto.UpdateEntryRequest) error {
	if req.MemberID != nil {
		e.MemberID = strings.TrimSpace(*req.MemberID)
	}
	if req.Direction != nil {
		e.Direction = *req.Direction
	}
	if req.Motive != nil {
		motive, err := normalizeMotive(*req.Motive)
		if err != nil {
			return err
		}
		e.Motive = motive
	}
	if req.Details != nil {
		e.Details = strings.TrimSpace(*req.Details)
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Date != nil {
		e.EntryDate = domain.DateOnly(req.Date.Time)
	}
	return nil
}

// normalizeMotive trims a motive and spells every expense motive the same way.
func normalizeMotive(motive string) (string, error) {
	motive = strings.TrimSpace(motive)
	if motive == "" {
		return "", fmt.Errorf("%w: motive is required", apperrors.ErrValidation)
	}
	if accounting.IsExpenseMotive(motive) {
		return domain.MotiveExpenses, nil
	}
	return motive, nil
}

// expenseBookingIDs lists, sorted and once each, the bookings whose expenses the entries count towards.
func expenseBookingIDs(entries []domain.LedgerEntry) []string {
	seen := map[string]bool{}
	var ids []string
	for _, e := range entries {
		if e.BookingID == nil || !accounting.IsExpenseMotive(e.Motive) || seen[*e.BookingID] {
			continue
		}
		seen[*e.BookingID] = true
		ids = append(ids, *e.BookingID)
	}
	sort.Strings(ids)
	return ids
}

func (s *entryService) requireMembers(ctx context.Context, memberIDs ...string) error {
	found, err := s.memberRepo.FindMembersByIDs(ctx, memberIDs)
	if err != nil {
		return err
	}
	for _, id := range memberIDs {
		if _, ok := found[id]; !ok {
			return apperrors.NewNotFoundError("member", id)
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
