package repositories

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
)

// OperatorRepositoryFacade persists the people allowed to use the API.
type OperatorRepositoryFacade interface {
	SaveOperator(ctx context.Context, operator domain.Operator) error
	FindOperatorByID(ctx context.Context, operatorID string) (*domain.Operator, error)
	FindOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error)
	FindOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error)
}
