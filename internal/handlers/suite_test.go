package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/handlers"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

const (
	testSecret   = "test-secret-key-that-is-long-enough"
	testIssuer   = "concert-ledger-test"
	testOperator = "op-1"
)

// HandlerTestSuite drives the real router with mocked services.
type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	members   *MockMemberService
	bookings  *MockBookingService
	lifecycle *MockLifecycleService
	entries   *MockEntryService
	statement *MockStatementService
	operators *MockOperatorService
	tokens    *MockTokenService
	google    *MockGoogleOAuthService
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.members = new(MockMemberService)
	s.bookings = new(MockBookingService)
	s.lifecycle = new(MockLifecycleService)
	s.entries = new(MockEntryService)
	s.statement = new(MockStatementService)
	s.operators = new(MockOperatorService)
	s.tokens = new(MockTokenService)
	s.google = new(MockGoogleOAuthService)

	cfg := &config.Config{
		JWTSecret:    testSecret,
		JWTIssuer:    testIssuer,
		IsProduction: true,
	}
	services := &portssvc.ServiceContainer{
		Lifecycle:          s.lifecycle,
		Booking:            s.bookings,
		Member:             s.members,
		Entry:              s.entries,
		Statement:          s.statement,
		Operator:           s.operators,
		TokenService:       s.tokens,
		GoogleOAuthHandler: s.google,
	}

	s.router = gin.New()
	s.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(handlers.RegisterRoutes(s.router, cfg, services))
}

func (s *HandlerTestSuite) TearDownTest() {
	s.members.AssertExpectations(s.T())
	s.bookings.AssertExpectations(s.T())
	s.lifecycle.AssertExpectations(s.T())
	s.entries.AssertExpectations(s.T())
	s.statement.AssertExpectations(s.T())
	s.operators.AssertExpectations(s.T())
	s.tokens.AssertExpectations(s.T())
	s.google.AssertExpectations(s.T())
}

// generateTestToken creates a JWT the auth middleware accepts.
func (s *HandlerTestSuite) generateTestToken(operatorID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   operatorID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

// serve sends an authenticated request. A nil body sends no body at all.
func (s *HandlerTestSuite) serve(method, url string, body any) *httptest.ResponseRecorder {
	return s.serveWithToken(method, url, body, s.generateTestToken(testOperator))
}

func (s *HandlerTestSuite) serveWithToken(method, url string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, dest any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func (s *HandlerTestSuite) errorMessage(w *httptest.ResponseRecorder) string {
	var resp handlers.ErrorResponse
	s.decode(w, &resp)
	return resp.Error
}

func (s *HandlerTestSuite) TestHealth() {
	w := s.serveWithToken(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *HandlerTestSuite) TestAuthMiddleware() {
	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", func() string {
			t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: testIssuer, Subject: testOperator})
			signed, _ := t.SignedString([]byte("other-secret"))
			return signed
		}()},
		{"wrong issuer", func() string {
			t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "someone-else", Subject: testOperator})
			signed, _ := t.SignedString([]byte(testSecret))
			return signed
		}()},
		{"expired", func() string {
			t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Issuer:    testIssuer,
				Subject:   testOperator,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			})
			signed, _ := t.SignedString([]byte(testSecret))
			return signed
		}()},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.serveWithToken(http.MethodGet, "/api/v1/members", nil, tt.token)
			s.Equal(http.StatusUnauthorized, w.Code)
		})
	}
	s.members.AssertNotCalled(s.T(), "ListMembers")
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
