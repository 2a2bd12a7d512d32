package services

import (
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Every ledger service shares one BaseService so they agree on the cache, audit sink and clock.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...BaseServiceOption) *portssvc.ServiceContainer {
	base := NewBaseService(repos, opts...)

	return &portssvc.ServiceContainer{
		Lifecycle:          NewLifecycleService(base),
		Booking:            NewBookingService(base),
		Member:             NewMemberService(base),
		Entry:              NewLedgerEntryService(base),
		Statement:          NewStatementService(base, cfg.StatementCacheTTL),
		Operator:           NewOperatorService(repos.OperatorRepo),
		TokenService:       NewTokenService(cfg),
		GoogleOAuthHandler: NewGoogleOAuthHandlerService(cfg),
	}
}
