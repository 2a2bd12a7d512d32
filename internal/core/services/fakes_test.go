package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/platform/cache"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// fakeTx only identifies a transaction; the store never calls through it.
type fakeTx struct {
	pgx.Tx
	id int
}

type storeState struct {
	members        map[string]domain.Member
	bookings       map[string]domain.Booking
	participations []domain.Participation
	entries        []domain.LedgerEntry
	carryovers     map[string]decimal.Decimal
}

func (s storeState) clone() storeState {
	c := storeState{
		members:        make(map[string]domain.Member, len(s.members)),
		bookings:       make(map[string]domain.Booking, len(s.bookings)),
		participations: append([]domain.Participation(nil), s.participations...),
		entries:        append([]domain.LedgerEntry(nil), s.entries...),
		carryovers:     make(map[string]decimal.Decimal, len(s.carryovers)),
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.carryovers {
		c.carryovers[k] = v
	}
	return c
}

// fakeStore is an in-memory implementation of every repository port. Begin snapshots the state
// and Rollback restores it unless the transaction committed, which is enough to observe
// atomicity. failOn makes the named method return an error.
type fakeStore struct {
	mu sync.Mutex
	storeState
	operators map[string]domain.Operator
	audit     []domain.AuditEvent

	nextTx    int
	snapshots map[int]storeState
	committed map[int]bool
	failOn    map[string]error
	calls     map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		storeState: storeState{
			members:    map[string]domain.Member{},
			bookings:   map[string]domain.Booking{},
			carryovers: map[string]decimal.Decimal{},
		},
		operators: map[string]domain.Operator{},
		snapshots: map[int]storeState{},
		committed: map[int]bool{},
		failOn:    map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:         f,
		MemberRepo:        f,
		BookingRepo:       f,
		ParticipationRepo: f,
		LedgerEntryRepo:   f,
		CarryoverRepo:     f,
		OperatorRepo:      f,
		AuditRepo:         f,
	}
}

var (
	_ portsrepo.TransactionManager            = (*fakeStore)(nil)
	_ portsrepo.MemberRepositoryFacade        = (*fakeStore)(nil)
	_ portsrepo.BookingRepositoryFacade       = (*fakeStore)(nil)
	_ portsrepo.ParticipationRepositoryFacade = (*fakeStore)(nil)
	_ portsrepo.LedgerEntryRepositoryFacade   = (*fakeStore)(nil)
	_ portsrepo.CarryoverRepositoryFacade     = (*fakeStore)(nil)
	_ portsrepo.OperatorRepositoryFacade      = (*fakeStore)(nil)
	_ portsrepo.AuditRepositoryFacade         = (*fakeStore)(nil)
)

// call records the call and returns the injected failure, if any. Callers hold f.mu.
func (f *fakeStore) call(name string) error {
	f.calls[name]++
	return f.failOn[name]
}

// --- TransactionManager ---

func (f *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Begin"); err != nil {
		return nil, err
	}
	f.nextTx++
	f.snapshots[f.nextTx] = f.storeState.clone()
	return fakeTx{id: f.nextTx}, nil
}

func (f *fakeStore) Commit(ctx context.Context, tx pgx.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Commit"); err != nil {
		return err
	}
	f.committed[tx.(fakeTx).id] = true
	return nil
}

func (f *fakeStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := tx.(fakeTx).id
	if !f.committed[id] {
		f.storeState = f.snapshots[id]
		f.calls["Rollback"]++
	}
	delete(f.snapshots, id)
	return nil
}

// --- members ---

func (f *fakeStore) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("FindMemberByID"); err != nil {
		return nil, err
	}
	m, ok := f.members[memberID]
	if !ok {
		return nil, apperrors.NewNotFoundError("member", memberID)
	}
	return &m, nil
}

func (f *fakeStore) FindMembersByIDs(ctx context.Context, memberIDs []string) (map[string]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]domain.Member{}
	for _, id := range memberIDs {
		if m, ok := f.members[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeStore) findByRole(role domain.MemberRole) *domain.Member {
	ids := make([]string, 0, len(f.members))
	for id := range f.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		m := f.members[id]
		if m.IsActive && m.HasRole(role) {
			return &m
		}
	}
	return nil
}

func (f *fakeStore) FindMemberByRole(ctx context.Context, role domain.MemberRole) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findByRole(role), nil
}

func (f *fakeStore) FindMemberByRoleInTx(ctx context.Context, tx pgx.Tx, role domain.MemberRole) (*domain.Member, error) {
	return f.FindMemberByRole(ctx, role)
}

func (f *fakeStore) ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Member
	for _, m := range f.members {
		if m.IsActive || includeInactive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeStore) ListPaymentMethods(ctx context.Context) ([]domain.Member, error) {
	members, _ := f.ListMembers(ctx, false)
	var out []domain.Member
	for _, m := range members {
		if m.IsPaymentMethod {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveMember(ctx context.Context, member domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SaveMember"); err != nil {
		return err
	}
	f.members[member.MemberID] = member
	return nil
}

func (f *fakeStore) UpdateMemberInTx(ctx context.Context, tx pgx.Tx, member domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateMemberInTx"); err != nil {
		return err
	}
	f.members[member.MemberID] = member
	return nil
}

func (f *fakeStore) DeleteMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteMemberInTx"); err != nil {
		return err
	}
	doomed := map[string]bool{}
	for _, e := range f.entries {
		if e.MemberID == memberID {
			doomed[e.EntryID] = true
			if e.PairedEntryID != nil {
				doomed[*e.PairedEntryID] = true
			}
		}
	}
	f.removeEntries(doomed)
	delete(f.carryovers, memberID)
	var kept []domain.Participation
	for _, p := range f.participations {
		if p.MemberID != memberID {
			kept = append(kept, p)
		}
	}
	f.participations = kept
	delete(f.members, memberID)
	return nil
}

// --- bookings ---

func (f *fakeStore) FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, apperrors.NewNotFoundError("booking", bookingID)
	}
	return &b, nil
}

func (f *fakeStore) ListBookings(ctx context.Context, params portsrepo.ListBookingsParams) ([]domain.Booking, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if params.Settled == nil || *params.Settled == b.Settled {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil, nil
}

func (f *fakeStore) ListBookingIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListBookingIDs"); err != nil {
		return nil, err
	}
	var ids []string
	for id := range f.bookings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) SumExpectedProceedsByPaymentMethod(ctx context.Context) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for _, b := range f.bookings {
		if b.Settled || !b.ExpectedProceeds.Valid || b.PaymentMethodID == nil {
			continue
		}
		out[*b.PaymentMethodID] = out[*b.PaymentMethodID].Add(b.ExpectedProceeds.Decimal)
	}
	return out, nil
}

func (f *fakeStore) InsertBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("InsertBookingInTx"); err != nil {
		return err
	}
	f.bookings[booking.BookingID] = booking
	return nil
}

func (f *fakeStore) FindBookingForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("FindBookingForUpdate:" + bookingID); err != nil {
		return nil, err
	}
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeStore) UpdateBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateBookingInTx"); err != nil {
		return err
	}
	f.bookings[booking.BookingID] = booking
	return nil
}

func (f *fakeStore) DeleteBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bookings, bookingID)
	var kept []domain.Participation
	for _, p := range f.participations {
		if p.BookingID != bookingID {
			kept = append(kept, p)
		}
	}
	f.participations = kept
	return nil
}

// --- participations ---

func (f *fakeStore) roster(bookingID string) []domain.Participation {
	var out []domain.Participation
	for _, p := range f.participations {
		if p.BookingID != bookingID {
			continue
		}
		if m, ok := f.members[p.MemberID]; ok {
			p.Member = &m
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeStore) ListRoster(ctx context.Context, bookingID string) ([]domain.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roster(bookingID), nil
}

func (f *fakeStore) ListRosterInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.Participation, error) {
	return f.ListRoster(ctx, bookingID)
}

func (f *fakeStore) SumCreditsByMember(ctx context.Context) (map[string]domain.MemberCredits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]domain.MemberCredits{}
	for _, p := range f.participations {
		c := out[p.MemberID]
		c.Real = c.Real.Add(p.RealCredit)
		c.Potential = c.Potential.Add(p.PotentialCredit)
		out[p.MemberID] = c
	}
	return out, nil
}

func (f *fakeStore) AddParticipationInTx(ctx context.Context, tx pgx.Tx, participation domain.Participation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AddParticipationInTx"); err != nil {
		return err
	}
	for _, p := range f.participations {
		if p.BookingID == participation.BookingID && p.MemberID == participation.MemberID {
			return fmt.Errorf("%w: member %s is already on the roster", apperrors.ErrDuplicate, p.MemberID)
		}
	}
	participation.Member = nil
	f.participations = append(f.participations, participation)
	return nil
}

func (f *fakeStore) DeleteParticipationInTx(ctx context.Context, tx pgx.Tx, bookingID, participationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.participations {
		if p.BookingID == bookingID && p.ParticipationID == participationID {
			f.participations = append(f.participations[:i:i], f.participations[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("participation", participationID)
}

func (f *fakeStore) WriteCreditsInTx(ctx context.Context, tx pgx.Tx, bookingID string, credits map[string]domain.CreditUpdate, actor string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("WriteCreditsInTx"); err != nil {
		return err
	}
	for i, p := range f.participations {
		if c, ok := credits[p.ParticipationID]; ok && p.BookingID == bookingID {
			f.participations[i].PotentialCredit = c.Potential
			f.participations[i].RealCredit = c.Real
			f.participations[i].LastUpdatedBy = actor
			f.participations[i].LastUpdatedAt = now
		}
	}
	return nil
}

func (f *fakeStore) SetFixedGainsInTx(ctx context.Context, tx pgx.Tx, bookingID string, gains map[string]decimal.NullDecimal, actor string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SetFixedGainsInTx"); err != nil {
		return err
	}
	for i, p := range f.participations {
		if g, ok := gains[p.ParticipationID]; ok && p.BookingID == bookingID {
			f.participations[i].FixedGain = g
		}
	}
	return nil
}

func (f *fakeStore) ListBookingIDsForMemberInTx(ctx context.Context, tx pgx.Tx, memberID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, p := range f.participations {
		if p.MemberID == memberID {
			ids = append(ids, p.BookingID)
		}
	}
	return ids, nil
}

func (f *fakeStore) SetRosterPaid(ctx context.Context, bookingID, participationID string, paid bool, actor string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.participations {
		if p.BookingID == bookingID && p.ParticipationID == participationID {
			f.participations[i].RosterPaid = paid
			return nil
		}
	}
	return apperrors.NewNotFoundError("participation", participationID)
}

// --- ledger entries ---

func (f *fakeStore) removeEntries(ids map[string]bool) int {
	var kept []domain.LedgerEntry
	for _, e := range f.entries {
		if !ids[e.EntryID] {
			kept = append(kept, e)
		}
	}
	n := len(f.entries) - len(kept)
	f.entries = kept
	return n
}

func (f *fakeStore) entriesWhere(pred func(domain.LedgerEntry) bool) []domain.LedgerEntry {
	var out []domain.LedgerEntry
	for _, e := range f.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func linkedTo(bookingID string) func(domain.LedgerEntry) bool {
	return func(e domain.LedgerEntry) bool { return e.BookingID != nil && *e.BookingID == bookingID }
}

func (f *fakeStore) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	e, err := f.FindEntryForUpdate(ctx, nil, entryID)
	if err == nil && e == nil {
		return nil, apperrors.NewNotFoundError("ledger entry", entryID)
	}
	return e, err
}

func (f *fakeStore) ListEntriesByMember(ctx context.Context, memberID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entriesWhere(func(e domain.LedgerEntry) bool { return e.MemberID == memberID }), nil, nil
}

func (f *fakeStore) SumEntriesByMember(ctx context.Context, asOf time.Time) (map[string]domain.MemberEntryTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]domain.MemberEntryTotals{}
	for _, e := range f.entries {
		t := out[e.MemberID]
		if e.Provisional || e.EntryDate.After(asOf) {
			t.Upcoming = t.Upcoming.Add(e.Signed())
		} else {
			t.Past = t.Past.Add(e.Signed())
		}
		out[e.MemberID] = t
	}
	return out, nil
}

func (f *fakeStore) upsertBySource(entry domain.LedgerEntry, source domain.EntrySource) *domain.LedgerEntry {
	for i, e := range f.entries {
		if e.Source == source && e.BookingID != nil && *e.BookingID == *entry.BookingID {
			entry.EntryID = e.EntryID
			entry.CreatedAt, entry.CreatedBy = e.CreatedAt, e.CreatedBy
			f.entries[i] = entry
			return &entry
		}
	}
	f.entries = append(f.entries, entry)
	return &entry
}

func (f *fakeStore) UpsertSettlementEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpsertSettlementEntryInTx"); err != nil {
		return nil, err
	}
	return f.upsertBySource(entry, domain.SourceSettlement), nil
}

func (f *fakeStore) DeleteSettlementEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := map[string]bool{}
	for _, e := range f.entriesWhere(linkedTo(bookingID)) {
		if e.Source == domain.SourceSettlement {
			ids[e.EntryID] = true
		}
	}
	return f.removeEntries(ids), nil
}

func (f *fakeStore) PurgeProvisionalEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := map[string]bool{}
	for _, e := range f.entriesWhere(linkedTo(bookingID)) {
		if e.Provisional {
			ids[e.EntryID] = true
		}
	}
	return f.removeEntries(ids), nil
}

func (f *fakeStore) UpsertProvisionalExpenseInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upsertBySource(entry, domain.SourceProvisionalExpense), nil
}

func (f *fakeStore) ListEntriesByBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entriesWhere(linkedTo(bookingID)), nil
}

func (f *fakeStore) SaveEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SaveEntriesInTx"); err != nil {
		return err
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeStore) UpdateEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateEntriesInTx"); err != nil {
		return err
	}
	for _, updated := range entries {
		found := false
		for i := range f.entries {
			if f.entries[i].EntryID == updated.EntryID {
				f.entries[i] = updated
				found = true
			}
		}
		if !found {
			return apperrors.NewNotFoundError("ledger entry", updated.EntryID)
		}
	}
	return nil
}

func (f *fakeStore) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.EntryID == entryID {
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteEntriesInTx(ctx context.Context, tx pgx.Tx, entryIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range entryIDs {
		ids[id] = true
	}
	f.removeEntries(ids)
	return nil
}

func (f *fakeStore) DeleteEntriesForBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := map[string]bool{}
	for _, e := range f.entriesWhere(linkedTo(bookingID)) {
		ids[e.EntryID] = true
		if e.PairedEntryID != nil {
			ids[*e.PairedEntryID] = true
		}
	}
	return f.removeEntries(ids), nil
}

// --- carryovers, operators, audit ---

func (f *fakeStore) SetCarryover(ctx context.Context, carryover domain.CarryoverBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carryovers[carryover.MemberID] = carryover.Amount
	return nil
}

func (f *fakeStore) ListCarryovers(ctx context.Context) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(f.carryovers))
	for k, v := range f.carryovers {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveOperator(ctx context.Context, operator domain.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.operators {
		if o.Username == operator.Username || o.Email == operator.Email {
			return fmt.Errorf("%w: operator %s", apperrors.ErrDuplicate, operator.Username)
		}
	}
	f.operators[operator.OperatorID] = operator
	return nil
}

func (f *fakeStore) findOperator(pred func(domain.Operator) bool, key string) (*domain.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.operators {
		if pred(o) {
			return &o, nil
		}
	}
	return nil, apperrors.NewNotFoundError("operator", key)
}

func (f *fakeStore) FindOperatorByID(ctx context.Context, operatorID string) (*domain.Operator, error) {
	return f.findOperator(func(o domain.Operator) bool { return o.OperatorID == operatorID }, operatorID)
}

func (f *fakeStore) FindOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	return f.findOperator(func(o domain.Operator) bool { return o.Username == username }, username)
}

func (f *fakeStore) FindOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	return f.findOperator(func(o domain.Operator) bool { return o.Email == email }, email)
}

func (f *fakeStore) SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit = append(f.audit, event)
	return nil
}

func (f *fakeStore) ListAuditEventsByBooking(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEvent
	for _, e := range f.audit {
		if e.BookingID != nil && *e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- test helpers ---

func (f *fakeStore) entriesFor(bookingID string) []domain.LedgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entriesWhere(linkedTo(bookingID))
}

func (f *fakeStore) booking(id string) domain.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id]
}

// creditsByMember returns the booking's stored credits keyed by member ID.
func (f *fakeStore) creditsByMember(bookingID string) map[string]domain.Participation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]domain.Participation{}
	for _, p := range f.roster(bookingID) {
		out[p.MemberID] = p
	}
	return out
}

// recordingSink collects audit events synchronously.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingSink) Log(event domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) types() []domain.AuditEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// countingCache is an in-memory cache.Cache that counts invalidations.
type countingCache struct {
	mu            sync.Mutex
	values        map[string]any
	invalidations int
}

func newCountingCache() *countingCache {
	return &countingCache{values: map[string]any{}}
}

func (c *countingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return cache.ErrMiss
	}
	*(dest.(*domain.Statement)) = v.(domain.Statement)
	return nil
}

func (c *countingCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *countingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	for k := range c.values {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.values, k)
		}
	}
	return nil
}
