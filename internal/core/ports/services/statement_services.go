package services

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
)

// StatementSvcFacade builds the account statement.
type StatementSvcFacade interface {
	// GetStatement returns every active member's standing as of the given calendar date.
	GetStatement(ctx context.Context, asOf time.Time) (*domain.Statement, error)
}
