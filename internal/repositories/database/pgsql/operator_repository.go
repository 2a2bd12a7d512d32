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

const operatorColumns = `operator_id, username, email, password_hash, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxOperatorRepository struct {
	db *pgxpool.Pool
}

func newPgxOperatorRepository(db *pgxpool.Pool) portsrepo.OperatorRepositoryFacade {
	return &PgxOperatorRepository{db: db}
}

// Ensure PgxOperatorRepository implements portsrepo.OperatorRepositoryFacade
var _ portsrepo.OperatorRepositoryFacade = (*PgxOperatorRepository)(nil)

func (r *PgxOperatorRepository) SaveOperator(ctx context.Context, operator domain.Operator) error {
	m := mapping.ToModelOperator(operator)
	query := `
		INSERT INTO operators (` + operatorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		m.OperatorID,
		m.Username,
		m.Email,
		m.PasswordHash,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return mapPgError(err, "save operator "+m.Username)
}

func (r *PgxOperatorRepository) findOne(ctx context.Context, column, value string) (*domain.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE ` + column + ` = $1;`
	var m models.Operator
	err := r.db.QueryRow(ctx, query, value).Scan(
		&m.OperatorID,
		&m.Username,
		&m.Email,
		&m.PasswordHash,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("operator", value)
		}
		return nil, fmt.Errorf("failed to find operator by %s: %w", column, err)
	}
	operator := mapping.ToDomainOperator(m)
	return &operator, nil
}

func (r *PgxOperatorRepository) FindOperatorByID(ctx context.Context, operatorID string) (*domain.Operator, error) {
	return r.findOne(ctx, "operator_id", operatorID)
}

func (r *PgxOperatorRepository) FindOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	return r.findOne(ctx, "username", username)
}

func (r *PgxOperatorRepository) FindOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	return r.findOne(ctx, "email", email)
}
