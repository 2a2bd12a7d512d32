package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memberService implements the MemberSvcFacade interface.
type memberService struct {
	*BaseService
}

// NewMemberService creates a new MemberSvcFacade.
func NewMemberService(base *BaseService) portssvc.MemberSvcFacade {
	return &memberService{BaseService: base}
}

var _ portssvc.MemberSvcFacade = (*memberService)(nil)

// GetMemberByID implements portssvc.MemberReaderSvc.
func (s *memberService) GetMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := s.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", memberID, err)
	}
	return member, nil
}

// ListMembers implements portssvc.MemberReaderSvc.
func (s *memberService) ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error) {
	members, err := s.memberRepo.ListMembers(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// CreateMember implements portssvc.MemberWriterSvc.
func (s *memberService) CreateMember(ctx context.Context, req dto.CreateMemberRequest, actor string) (*domain.Member, error) {
	logger := s.GetLogger(ctx)

	now := s.clock()
	member := domain.Member{
		MemberID:        uuid.NewString(),
		Name:            domain.NormalizeMemberName(req.Name),
		Kind:            req.Kind,
		IsActive:        true,
		IsBonusRole:     req.IsBonusRole,
		IsStructureRole: req.IsStructureRole,
		IsPaymentMethod: req.IsPaymentMethod,
		AuditFields:     newAuditFields(actor, now),
	}
	if err := validateMember(member); err != nil {
		return nil, err
	}
	if err := s.checkRolesFree(ctx, member); err != nil {
		return nil, err
	}

	if err := s.memberRepo.SaveMember(ctx, member); err != nil {
		s.LogError(ctx, err, "Failed to save member", slog.String("name", member.Name))
		return nil, fmt.Errorf("create member %q: %w", member.Name, err)
	}

	logger.Info("Member created", slog.String("member_id", member.MemberID), slog.String("kind", string(member.Kind)))
	s.committed(ctx)
	return &member, nil
}

// UpdateMember implements portssvc.MemberWriterSvc. Role and activity changes move shares
// around, so the bookings the member sits on are recomputed in the same transaction.
func (s *memberService) UpdateMember(ctx context.Context, memberID string, req dto.UpdateMemberRequest, actor string) (*domain.Member, error) {
	member, err := s.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("update member %s: %w", memberID, err)
	}
	before := *member

	if req.Name != nil {
		member.Name = domain.NormalizeMemberName(*req.Name)
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.IsBonusRole != nil {
		member.IsBonusRole = *req.IsBonusRole
	}
	if req.IsStructureRole != nil {
		member.IsStructureRole = *req.IsStructureRole
	}
	if req.IsPaymentMethod != nil {
		member.IsPaymentMethod = *req.IsPaymentMethod
	}
	if err := validateMember(*member); err != nil {
		return nil, err
	}
	if err := s.checkRolesFree(ctx, *member); err != nil {
		return nil, err
	}

	affectsShares := before.IsActive != member.IsActive ||
		before.IsBonusRole != member.IsBonusRole ||
		before.IsStructureRole != member.IsStructureRole

	var recomputed []string
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		touch(&member.AuditFields, actor, s.clock())
		if err := s.memberRepo.UpdateMemberInTx(ctx, tx, *member); err != nil {
			return err
		}
		if !affectsShares {
			return nil
		}
		ids, err := s.recomputeMemberBookingsInTx(ctx, tx, memberID, actor)
		recomputed = ids
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update member", slog.String("member_id", memberID))
		return nil, fmt.Errorf("update member %s: %w", memberID, err)
	}

	s.GetLogger(ctx).Info("Member updated", slog.String("member_id", memberID), slog.Int("recomputed_bookings", len(recomputed)))
	s.committed(ctx)
	return member, nil
}

// DeleteMember implements portssvc.MemberWriterSvc.
func (s *memberService) DeleteMember(ctx context.Context, memberID string, actor string) error {
	member, err := s.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", memberID, err)
	}

	var recomputed []string
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		ids, err := s.rosterRepo.ListBookingIDsForMemberInTx(ctx, tx, memberID)
		if err != nil {
			return err
		}
		sort.Strings(ids)
		// Lock first so no transition sees the roster half gone.
		bookings := make([]*domain.Booking, 0, len(ids))
		for _, id := range ids {
			b, err := s.lockBooking(ctx, tx, id)
			if err != nil {
				return err
			}
			bookings = append(bookings, b)
		}

		if err := s.memberRepo.DeleteMemberInTx(ctx, tx, memberID); err != nil {
			return err
		}
		for _, b := range bookings {
			if _, err := s.recomputeExpensesInTx(ctx, tx, b, actor); err != nil {
				return err
			}
			recomputed = append(recomputed, b.BookingID)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete member", slog.String("member_id", memberID))
		return fmt.Errorf("delete member %s: %w", memberID, err)
	}

	s.GetLogger(ctx).Info("Member deleted", slog.String("member_id", memberID), slog.Int("recomputed_bookings", len(recomputed)))
	s.committed(ctx, auditlog.NewEvent(domain.AuditMemberDeleted,
		auditlog.WithActor(actor),
		auditlog.WithData(map[string]any{"member": dto.ToMemberResponse(member), "recomputedBookings": recomputed}),
	))
	return nil
}

// SetCarryover implements portssvc.MemberWriterSvc. Negative amounts are debts.
func (s *memberService) SetCarryover(ctx context.Context, memberID string, amount decimal.Decimal, actor string) error {
	if !accounting.HasMoneyPrecision(amount) {
		return fmt.Errorf("%w: amount has more than %d decimal places", apperrors.ErrValidation, accounting.MoneyPlaces)
	}
	if _, err := s.memberRepo.FindMemberByID(ctx, memberID); err != nil {
		return fmt.Errorf("set carryover of member %s: %w", memberID, err)
	}

	carryover := domain.CarryoverBalance{
		MemberID:    memberID,
		Amount:      amount,
		AuditFields: newAuditFields(actor, s.clock()),
	}
	if err := s.carryoverRepo.SetCarryover(ctx, carryover); err != nil {
		s.LogError(ctx, err, "Failed to set carryover", slog.String("member_id", memberID))
		return fmt.Errorf("set carryover of member %s: %w", memberID, err)
	}
	s.committed(ctx)
	return nil
}

func (s *memberService) recomputeMemberBookingsInTx(ctx context.Context, tx pgx.Tx, memberID, actor string) ([]string, error) {
	ids, err := s.rosterRepo.ListBookingIDsForMemberInTx(ctx, tx, memberID)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	for _, id := range ids {
		booking, err := s.lockBooking(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.recomputeInTx(ctx, tx, booking, actor); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// checkRolesFree refuses a role flag already held by another active member.
func (s *memberService) checkRolesFree(ctx context.Context, m domain.Member) error {
	if !m.IsActive {
		return nil
	}
	for _, role := range []domain.MemberRole{domain.RoleBonus, domain.RoleStructure} {
		if !m.HasRole(role) {
			continue
		}
		holder, err := s.memberRepo.FindMemberByRole(ctx, role)
		if err != nil {
			return fmt.Errorf("check %s role: %w", role, err)
		}
		if holder != nil && holder.MemberID != m.MemberID {
			return fmt.Errorf("%w: %s role is already held by %s", apperrors.ErrDuplicate, role, holder.Name)
		}
	}
	return nil
}

func validateMember(m domain.Member) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if !domain.ValidKind(m.Kind) {
		return fmt.Errorf("%w: unknown member kind '%s'", apperrors.ErrValidation, m.Kind)
	}
	if m.IsBonusRole && m.IsStructure() {
		return fmt.Errorf("%w: the bonus role belongs to a person", apperrors.ErrValidation)
	}
	if m.IsStructureRole && !m.IsStructure() {
		return fmt.Errorf("%w: the structure role needs a member of kind structure", apperrors.ErrValidation)
	}
	if m.IsPaymentMethod && !m.IsStructure() {
		return fmt.Errorf("%w: payment methods are structures", apperrors.ErrValidation)
	}
	return nil
}
