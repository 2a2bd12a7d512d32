package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/platform/cache"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// TreasuryName labels the statement row that sums the payment methods.
const TreasuryName = "Treasury"

// statementService builds account statements through the read-through cache.
type statementService struct {
	*BaseService
	ttl time.Duration
}

// NewStatementService creates a new StatementSvcFacade. Statements stay cached for ttl, or until
// the next committed transition.
func NewStatementService(base *BaseService, ttl time.Duration) portssvc.StatementSvcFacade {
	return &statementService{BaseService: base, ttl: ttl}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// GetStatement implements portssvc.StatementSvcFacade. A zero asOf means today.
func (s *statementService) GetStatement(ctx context.Context, asOf time.Time) (*domain.Statement, error) {
	if asOf.IsZero() {
		asOf = s.clock()
	}
	asOf = domain.DateOnly(asOf)
	key := statementCachePrefix + asOf.Format(time.DateOnly)

	statement, err := cache.GetOrSet(ctx, s.cache, key, s.ttl, func() (domain.Statement, error) {
		return s.buildStatement(ctx, asOf)
	})
	if err != nil {
		return nil, fmt.Errorf("build statement as of %s: %w", asOf.Format(time.DateOnly), err)
	}
	return &statement, nil
}

func (s *statementService) buildStatement(ctx context.Context, asOf time.Time) (domain.Statement, error) {
	s.GetLogger(ctx).Debug("Building statement", slog.String("as_of", asOf.Format(time.DateOnly)))

	members, err := s.memberRepo.ListMembers(ctx, false)
	if err != nil {
		return domain.Statement{}, err
	}
	credits, err := s.rosterRepo.SumCreditsByMember(ctx)
	if err != nil {
		return domain.Statement{}, err
	}
	carryovers, err := s.carryoverRepo.ListCarryovers(ctx)
	if err != nil {
		return domain.Statement{}, err
	}
	entryTotals, err := s.entryRepo.SumEntriesByMember(ctx, asOf)
	if err != nil {
		return domain.Statement{}, err
	}
	expected, err := s.bookingRepo.SumExpectedProceedsByPaymentMethod(ctx)
	if err != nil {
		return domain.Statement{}, err
	}

	return assembleStatement(asOf, members, credits, carryovers, entryTotals, expected), nil
}

// assembleStatement applies the statement formulas:
//
//	current  = real credits + carryover + signed entries dated on or before asOf
//	upcoming = potential credits + later or provisional signed entries
//	           (+ expected proceeds routed to a payment method)
//	potential = current + upcoming
func assembleStatement(
	asOf time.Time,
	members []domain.Member,
	credits map[string]domain.MemberCredits,
	carryovers map[string]decimal.Decimal,
	entryTotals map[string]domain.MemberEntryTotals,
	expected map[string]decimal.Decimal,
) domain.Statement {
	statement := domain.Statement{
		AsOf:       asOf,
		Members:    []domain.StatementRow{},
		Structures: []domain.StatementRow{},
		Treasury: domain.StatementRow{
			Name:            TreasuryName,
			Kind:            domain.MemberKindStructure,
			IsPaymentMethod: true,
			CurrentCredit:   decimal.Zero,
			UpcomingGains:   decimal.Zero,
			PotentialCredit: decimal.Zero,
		},
	}

	var payments []domain.StatementRow
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		c := credits[m.MemberID]
		totals := entryTotals[m.MemberID]

		current := accounting.Sum(c.Real, carryovers[m.MemberID], totals.Past)
		upcoming := accounting.Sum(c.Potential, totals.Upcoming)
		if m.IsPaymentMethod {
			upcoming = upcoming.Add(expected[m.MemberID])
		}
		row := domain.StatementRow{
			MemberID:        m.MemberID,
			Name:            m.Name,
			Kind:            m.Kind,
			IsPaymentMethod: m.IsPaymentMethod,
			CurrentCredit:   accounting.RoundMoney(current),
			UpcomingGains:   accounting.RoundMoney(upcoming),
		}
		row.PotentialCredit = row.CurrentCredit.Add(row.UpcomingGains)

		switch {
		case !m.IsStructure():
			statement.Members = append(statement.Members, row)
		case m.IsPaymentMethod:
			payments = append(payments, row)
			statement.Treasury.CurrentCredit = statement.Treasury.CurrentCredit.Add(row.CurrentCredit)
			statement.Treasury.UpcomingGains = statement.Treasury.UpcomingGains.Add(row.UpcomingGains)
			statement.Treasury.PotentialCredit = statement.Treasury.PotentialCredit.Add(row.PotentialCredit)
		default:
			statement.Structures = append(statement.Structures, row)
		}
	}

	byName := func(rows []domain.StatementRow) {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	}
	byName(statement.Members)
	byName(statement.Structures)
	byName(payments)
	statement.Structures = append(statement.Structures, payments...)
	return statement
}
