package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/models"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberColumns = `member_id, name, kind, is_active, is_bonus_role, is_structure_role, is_payment_method,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxMemberRepository struct {
	BaseRepository
}

// newPgxMemberRepository creates a new repository for members.
func newPgxMemberRepository(pool *pgxpool.Pool) portsrepo.MemberRepositoryFacade {
	return &PgxMemberRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MemberRepositoryFacade = (*PgxMemberRepository)(nil)

func scanMember(row pgx.Row) (models.Member, error) {
	var m models.Member
	err := row.Scan(
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
	return m, err
}

func collectMembers(rows pgx.Rows) ([]domain.Member, error) {
	defer rows.Close()
	modelMembers := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		modelMembers = append(modelMembers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return mapping.ToDomainMemberSlice(modelMembers), nil
}

// SaveMember inserts a new member.
func (r *PgxMemberRepository) SaveMember(ctx context.Context, member domain.Member) error {
	m := mapping.ToModelMember(member)
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.MemberID,
		m.Name,
		m.Kind,
		m.IsActive,
		m.IsBonusRole,
		m.IsStructureRole,
		m.IsPaymentMethod,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return mapPgError(err, "save member "+m.MemberID)
}

// FindMemberByID retrieves a member by its ID.
func (r *PgxMemberRepository) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE member_id = $1;`
	m, err := scanMember(r.Pool.QueryRow(ctx, query, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("member", memberID)
		}
		return nil, fmt.Errorf("failed to find member by ID %s: %w", memberID, err)
	}
	member := mapping.ToDomainMember(m)
	return &member, nil
}

// FindMembersByIDs retrieves the listed members in one round trip.
func (r *PgxMemberRepository) FindMembersByIDs(ctx context.Context, memberIDs []string) (map[string]domain.Member, error) {
	result := make(map[string]domain.Member, len(memberIDs))
	if len(memberIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE member_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query members by IDs: %w", err)
	}
	members, err := collectMembers(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		result[m.MemberID] = m
	}
	return result, nil
}

func (r *PgxMemberRepository) findMemberByRole(ctx context.Context, q querier, role domain.MemberRole) (*domain.Member, error) {
	var column string
	switch role {
	case domain.RoleBonus:
		column = "is_bonus_role"
	case domain.RoleStructure:
		column = "is_structure_role"
	default:
		return nil, fmt.Errorf("%w: unknown role '%s'", apperrors.ErrValidation, role)
	}
	query := `SELECT ` + memberColumns + ` FROM members WHERE ` + column + ` AND is_active LIMIT 1;`
	m, err := scanMember(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s role holder: %w", role, err)
	}
	member := mapping.ToDomainMember(m)
	return &member, nil
}

// FindMemberByRole returns the active holder of a role, or nil.
func (r *PgxMemberRepository) FindMemberByRole(ctx context.Context, role domain.MemberRole) (*domain.Member, error) {
	return r.findMemberByRole(ctx, r.Pool, role)
}

// FindMemberByRoleInTx returns the active holder of a role, or nil.
func (r *PgxMemberRepository) FindMemberByRoleInTx(ctx context.Context, tx pgx.Tx, role domain.MemberRole) (*domain.Member, error) {
	return r.findMemberByRole(ctx, tx, role)
}

// ListMembers lists members by kind then name.
func (r *PgxMemberRepository) ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE is_active OR $1
		ORDER BY kind, name, member_id;
	`
	rows, err := r.Pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

// ListPaymentMethods lists the active payment-method structures by name.
func (r *PgxMemberRepository) ListPaymentMethods(ctx context.Context) ([]domain.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE is_payment_method AND is_active
		ORDER BY name, member_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	return collectMembers(rows)
}

// UpdateMemberInTx stores the mutable fields of a member.
func (r *PgxMemberRepository) UpdateMemberInTx(ctx context.Context, tx pgx.Tx, member domain.Member) error {
	m := mapping.ToModelMember(member)
	query := `
		UPDATE members
		SET name = $1, is_active = $2, is_bonus_role = $3, is_structure_role = $4, is_payment_method = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE member_id = $8;
	`
	tag, err := tx.Exec(ctx, query,
		m.Name,
		m.IsActive,
		m.IsBonusRole,
		m.IsStructureRole,
		m.IsPaymentMethod,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.MemberID,
	)
	if err != nil {
		return mapPgError(err, "update member "+m.MemberID)
	}
	return expectRows(tag, "member", m.MemberID)
}

// DeleteMemberInTx removes a member and everything that points at it.
func (r *PgxMemberRepository) DeleteMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) error {
	statements := []struct {
		what  string
		query string
	}{
		{"delete entries of member", `
			DELETE FROM ledger_entries
			WHERE member_id = $1
			   OR entry_id IN (SELECT paired_entry_id FROM ledger_entries WHERE member_id = $1 AND paired_entry_id IS NOT NULL)
			   OR paired_entry_id IN (SELECT entry_id FROM ledger_entries WHERE member_id = $1);`},
		{"delete carryover of member", `DELETE FROM carryover_balances WHERE member_id = $1;`},
		{"delete participations of member", `DELETE FROM participations WHERE member_id = $1;`},
	}
	for _, st := range statements {
		if _, err := tx.Exec(ctx, st.query, memberID); err != nil {
			return mapPgError(err, st.what+" "+memberID)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM members WHERE member_id = $1;`, memberID)
	if err != nil {
		return mapPgError(err, "delete member "+memberID)
	}
	return expectRows(tag, "member", memberID)
}
