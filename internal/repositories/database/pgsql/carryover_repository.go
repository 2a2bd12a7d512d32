package pgsql

import (
	"context"
	"fmt"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxCarryoverRepository struct {
	pool *pgxpool.Pool
}

func newPgxCarryoverRepository(pool *pgxpool.Pool) portsrepo.CarryoverRepositoryFacade {
	return &PgxCarryoverRepository{pool: pool}
}

var _ portsrepo.CarryoverRepositoryFacade = (*PgxCarryoverRepository)(nil)

// SetCarryover upserts the member's starting balance.
func (r *PgxCarryoverRepository) SetCarryover(ctx context.Context, carryover domain.CarryoverBalance) error {
	c := mapping.ToModelCarryover(carryover)
	query := `
		INSERT INTO carryover_balances (member_id, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.pool.Exec(ctx, query,
		c.MemberID,
		c.Amount,
		c.CreatedAt,
		c.CreatedBy,
		c.LastUpdatedAt,
		c.LastUpdatedBy,
	)
	return mapPgError(err, "set carryover of member "+c.MemberID)
}

// ListCarryovers returns every carryover keyed by member ID.
func (r *PgxCarryoverRepository) ListCarryovers(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT member_id, amount FROM carryover_balances;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query carryovers: %w", err)
	}
	defer rows.Close()

	carryovers := map[string]decimal.Decimal{}
	for rows.Next() {
		var memberID string
		var amount decimal.Decimal
		if err := rows.Scan(&memberID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan carryover row: %w", err)
		}
		carryovers[memberID] = amount
	}
	return carryovers, rows.Err()
}
