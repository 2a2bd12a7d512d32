package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager         TransactionManager
	MemberRepo        MemberRepositoryFacade
	BookingRepo       BookingRepositoryFacade
	ParticipationRepo ParticipationRepositoryFacade
	LedgerEntryRepo   LedgerEntryRepositoryFacade
	CarryoverRepo     CarryoverRepositoryFacade
	OperatorRepo      OperatorRepositoryFacade
	AuditRepo         AuditRepositoryFacade
}
