package repositories

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CarryoverRepositoryFacade persists per-member starting balances.
type CarryoverRepositoryFacade interface {
	// SetCarryover upserts the member's carryover.
	SetCarryover(ctx context.Context, carryover domain.CarryoverBalance) error

	// ListCarryovers returns every carryover keyed by member ID.
	ListCarryovers(ctx context.Context) (map[string]decimal.Decimal, error)
}
