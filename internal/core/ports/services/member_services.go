package services

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// MemberReaderSvc defines read operations for members.
type MemberReaderSvc interface {
	GetMemberByID(ctx context.Context, memberID string) (*domain.Member, error)
	ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error)
}

// MemberWriterSvc defines write operations for members.
type MemberWriterSvc interface {
	// CreateMember fails with ErrDuplicate if a role flag is already held by an active member.
	CreateMember(ctx context.Context, req dto.CreateMemberRequest, actor string) (*domain.Member, error)
	UpdateMember(ctx context.Context, memberID string, req dto.UpdateMemberRequest, actor string) (*domain.Member, error)

	// DeleteMember removes the member with its entries, carryover and roster rows, then recomputes
	// the bookings it sat on.
	DeleteMember(ctx context.Context, memberID string, actor string) error

	SetCarryover(ctx context.Context, memberID string, amount decimal.Decimal, actor string) error
}

// MemberSvcFacade combines all member-related service interfaces.
type MemberSvcFacade interface {
	MemberReaderSvc
	MemberWriterSvc
}
