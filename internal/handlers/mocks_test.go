package handlers_test

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// --- Mock MemberService ---
type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) GetMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberService) ListMembers(ctx context.Context, includeInactive bool) ([]domain.Member, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}
func (m *MockMemberService) CreateMember(ctx context.Context, req dto.CreateMemberRequest, actor string) (*domain.Member, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberService) UpdateMember(ctx context.Context, memberID string, req dto.UpdateMemberRequest, actor string) (*domain.Member, error) {
	args := m.Called(ctx, memberID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberService) DeleteMember(ctx context.Context, memberID string, actor string) error {
	return m.Called(ctx, memberID, actor).Error(0)
}
func (m *MockMemberService) SetCarryover(ctx context.Context, memberID string, amount decimal.Decimal, actor string) error {
	return m.Called(ctx, memberID, amount, actor).Error(0)
}

var _ portssvc.MemberSvcFacade = (*MockMemberService)(nil)

// --- Mock BookingService ---
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) transition(args mock.Arguments) (*dto.TransitionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TransitionResult), args.Error(1)
}

func (m *MockBookingService) GetBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingService) ListBookings(ctx context.Context, params dto.ListBookingsParams) (*dto.ListBookingsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListBookingsResponse), args.Error(1)
}
func (m *MockBookingService) GetAllocationView(ctx context.Context, bookingID string) (*dto.AllocationView, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AllocationView), args.Error(1)
}
func (m *MockBookingService) ListAuditEvents(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, bookingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEvent), args.Error(1)
}
func (m *MockBookingService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, req, actor))
}
func (m *MockBookingService) UpdateBooking(ctx context.Context, bookingID string, req dto.UpdateBookingRequest, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, req, actor))
}
func (m *MockBookingService) ReplaceRoster(ctx context.Context, bookingID string, memberIDs []string, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, memberIDs, actor))
}
func (m *MockBookingService) AddParticipant(ctx context.Context, bookingID string, memberID string, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, memberID, actor))
}
func (m *MockBookingService) RemoveParticipant(ctx context.Context, bookingID string, participationID string, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, participationID, actor))
}
func (m *MockBookingService) SetParticipantPaid(ctx context.Context, bookingID string, participationID string, paid bool, actor string) error {
	return m.Called(ctx, bookingID, participationID, paid, actor).Error(0)
}
func (m *MockBookingService) SetProvisionalExpense(ctx context.Context, bookingID string, amount decimal.Decimal, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, amount, actor))
}
func (m *MockBookingService) DeleteBooking(ctx context.Context, bookingID string, actor string) error {
	return m.Called(ctx, bookingID, actor).Error(0)
}
func (m *MockBookingService) RecomputeAll(ctx context.Context) (*dto.RecomputeAllResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecomputeAllResult), args.Error(1)
}

var _ portssvc.BookingSvcFacade = (*MockBookingService)(nil)

// --- Mock LifecycleService ---
type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) transition(args mock.Arguments) (*dto.TransitionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TransitionResult), args.Error(1)
}

func (m *MockLifecycleService) SettleBooking(ctx context.Context, bookingID string, params dto.SettleParams, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, params, actor))
}
func (m *MockLifecycleService) UnsettleBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, actor))
}
func (m *MockLifecycleService) RecomputeForBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, actor))
}
func (m *MockLifecycleService) ApplyOverrides(ctx context.Context, bookingID string, pins map[string]decimal.NullDecimal, actor string) (*dto.TransitionResult, error) {
	return m.transition(m.Called(ctx, bookingID, pins, actor))
}

var _ portssvc.LifecycleSvcFacade = (*MockLifecycleService)(nil)

// --- Mock LedgerEntryService ---
type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}
func (m *MockEntryService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, actor string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}
func (m *MockEntryService) DeleteEntry(ctx context.Context, entryID string, actor string) error {
	return m.Called(ctx, entryID, actor).Error(0)
}
func (m *MockEntryService) GetEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockEntryService) ListEntriesByMember(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

var _ portssvc.LedgerEntrySvcFacade = (*MockEntryService)(nil)

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) GetStatement(ctx context.Context, asOf time.Time) (*domain.Statement, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)

// --- Mock auth services ---
type MockOperatorService struct {
	mock.Mock
}

func (m *MockOperatorService) Authenticate(ctx context.Context, username, password string) (*domain.Operator, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}
func (m *MockOperatorService) FindActiveByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}
func (m *MockOperatorService) CreateOperator(ctx context.Context, req dto.CreateOperatorRequest, actor string) (*domain.Operator, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

var _ portssvc.OperatorSvcFacade = (*MockOperatorService)(nil)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, operator *domain.Operator) (string, time.Time, error) {
	args := m.Called(ctx, operator)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

type MockGoogleOAuthService struct {
	mock.Mock
}

func (m *MockGoogleOAuthService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}
func (m *MockGoogleOAuthService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error) {
	args := m.Called(ctx, idTokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idtoken.Payload), args.Error(1)
}

var _ portssvc.GoogleOAuthHandlerSvcFacade = (*MockGoogleOAuthService)(nil)
