package services_test

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/core/services"
	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const actor = "op-1"

var (
	fixedNow    = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	concertDate = time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// ledgerSuite wires every ledger service over one fake store. SetupTest seeds the roster used
// throughout: Alice and Bob, Charlie holding the bonus role, the ASSO7 structure and the Bank
// payment method, plus booking b-1 at Le Trianon expecting 300.00 with Alice, Bob and Charlie.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	store *fakeStore
	sink  *recordingSink
	cache *countingCache
	svc   *portssvc.ServiceContainer
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newFakeStore()
	s.sink = &recordingSink{}
	s.cache = newCountingCache()

	cfg := &config.Config{StatementCacheTTL: time.Minute, JWTSecret: "test-secret", JWTIssuer: "concert-ledger", JWTExpiryDuration: time.Hour}
	s.svc = services.NewServiceContainer(cfg, s.store.provider(),
		services.WithAuditSink(s.sink),
		services.WithCache(s.cache),
		services.WithClock(func() time.Time { return fixedNow }),
	)

	s.addMember(domain.Member{MemberID: "alice", Name: "Alice", Kind: domain.MemberKindPerson})
	s.addMember(domain.Member{MemberID: "bob", Name: "Bob", Kind: domain.MemberKindPerson})
	s.addMember(domain.Member{MemberID: "charlie", Name: "Charlie", Kind: domain.MemberKindPerson, IsBonusRole: true})
	s.addMember(domain.Member{MemberID: "asso", Name: "ASSO7", Kind: domain.MemberKindStructure, IsStructureRole: true})
	s.addMember(domain.Member{MemberID: "bank", Name: "Bank", Kind: domain.MemberKindStructure, IsPaymentMethod: true})

	s.addBooking(domain.Booking{BookingID: "b-1", Venue: "Le Trianon", ExpectedProceeds: nullDec("300")}, "alice", "bob", "charlie")
}

func (s *ledgerSuite) addMember(m domain.Member) {
	m.IsActive = true
	s.store.members[m.MemberID] = m
}

// addBooking stores a booking and a roster row "p-<member>" for each member.
func (s *ledgerSuite) addBooking(b domain.Booking, memberIDs ...string) {
	if b.Date.IsZero() {
		b.Date = concertDate
	}
	s.store.bookings[b.BookingID] = b
	for _, id := range memberIDs {
		s.store.participations = append(s.store.participations, domain.Participation{
			ParticipationID: "p-" + id,
			BookingID:       b.BookingID,
			MemberID:        id,
		})
	}
}

// participationOf returns the participation ID of a member on a booking.
func (s *ledgerSuite) participationOf(bookingID, memberID string) string {
	p, ok := s.store.creditsByMember(bookingID)[memberID]
	s.Require().True(ok, "%s is not on %s", memberID, bookingID)
	return p.ParticipationID
}

// assertCredits checks the stored credits of a booking. Members not listed must hold zero in
// both fields.
func (s *ledgerSuite) assertCredits(bookingID string, settled bool, want map[string]string) {
	rows := s.store.creditsByMember(bookingID)
	s.Len(rows, len(want), "roster size")
	for memberID, p := range rows {
		expected := decimal.Zero
		if w, ok := want[memberID]; ok {
			expected = dec(w)
		}
		active, inactive := p.PotentialCredit, p.RealCredit
		if settled {
			active, inactive = p.RealCredit, p.PotentialCredit
		}
		s.True(active.Equal(expected), "%s: want %s, got %s", memberID, expected, active)
		s.True(inactive.IsZero(), "%s: inactive credit field is %s", memberID, inactive)
	}
}

// assertExclusive checks that no participation carries both credit fields.
func (s *ledgerSuite) assertExclusive(bookingID string) {
	for memberID, p := range s.store.creditsByMember(bookingID) {
		s.False(!p.PotentialCredit.IsZero() && !p.RealCredit.IsZero(), "%s holds both credits", memberID)
	}
}
