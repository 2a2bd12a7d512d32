package repositories

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// MemberReader defines read operations for members.
type MemberReader interface {
	// FindMemberByID returns ErrNotFound when no member has the id.
	FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error)

	// FindMembersByIDs returns the members found, keyed by ID. Missing IDs are simply absent.
	FindMembersByIDs(ctx context.Context, memberIDs []string) (map[string]domain.Member, error)

	// FindMemberByRole returns the active member holding a role flag, or nil when nobody does.
	FindMemberByRole(ctx context.Context, role domain.MemberRole) (*domain.Member, error)

	// ListMembers lists members ordered by kind then name.
	ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error)

	// ListPaymentMethods lists active structures flagged as payment methods, by name.
	ListPaymentMethods(ctx context.Context) ([]domain.Member, error)
}

// MemberWriter defines write operations for members.
type MemberWriter interface {
	SaveMember(ctx context.Context, member domain.Member) error

	// UpdateMemberInTx stores every mutable field of the member.
	UpdateMemberInTx(ctx context.Context, tx pgx.Tx, member domain.Member) error

	// FindMemberByRoleInTx is FindMemberByRole inside a lifecycle transaction.
	FindMemberByRoleInTx(ctx context.Context, tx pgx.Tx, role domain.MemberRole) (*domain.Member, error)

	// DeleteMemberInTx removes the member's ledger entries (with their paired entries), carryover,
	// participations and finally the member row.
	DeleteMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) error
}

// MemberRepositoryFacade combines all member-related repository interfaces.
type MemberRepositoryFacade interface {
	MemberReader
	MemberWriter
}
