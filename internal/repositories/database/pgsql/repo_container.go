package pgsql

import (
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every PostgreSQL repository over one pool, so a transaction begun
// by the TxManager can be handed to the InTx methods of all of them.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:         &BaseRepository{Pool: dbPool},
		MemberRepo:        newPgxMemberRepository(dbPool),
		BookingRepo:       newPgxBookingRepository(dbPool),
		ParticipationRepo: newPgxParticipationRepository(dbPool),
		LedgerEntryRepo:   newPgxLedgerEntryRepository(dbPool),
		CarryoverRepo:     newPgxCarryoverRepository(dbPool),
		OperatorRepo:      newPgxOperatorRepository(dbPool),
		AuditRepo:         newPgxAuditRepository(dbPool),
	}
}
