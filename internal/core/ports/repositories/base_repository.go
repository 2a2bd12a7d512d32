package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager opens and finishes the database transaction a booking transition runs in.
// Every repository shares one pool, so a tx begun by any of them can be passed to the InTx
// methods of all the others.
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction; it is a no-op after Commit
	Rollback(ctx context.Context, tx pgx.Tx) error
}
