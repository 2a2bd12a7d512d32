package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func (s *HandlerTestSuite) TestLogin() {
	operator := &domain.Operator{OperatorID: testOperator, Username: "treasurer"}
	expiresAt := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	s.operators.On("Authenticate", mock.Anything, "treasurer", "s3cret-pass").Return(operator, nil).Once()
	s.tokens.On("GenerateAccessToken", mock.Anything, operator).Return("signed.jwt", expiresAt, nil).Once()

	w := s.serveWithToken(http.MethodPost, "/auth/login", dto.LoginRequest{Username: "treasurer", Password: "s3cret-pass"}, "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.LoginResponse
	s.decode(w, &resp)
	s.Equal("signed.jwt", resp.Token)
	s.True(resp.ExpiresAt.Equal(expiresAt))
}

func (s *HandlerTestSuite) TestLogin_Rejected() {
	s.operators.On("Authenticate", mock.Anything, "treasurer", "wrong").
		Return(nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)).Once()

	w := s.serveWithToken(http.MethodPost, "/auth/login", dto.LoginRequest{Username: "treasurer", Password: "wrong"}, "")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid username or password", s.errorMessage(w))
	s.tokens.AssertNotCalled(s.T(), "GenerateAccessToken")
}

func (s *HandlerTestSuite) TestLogin_MissingFields() {
	w := s.serveWithToken(http.MethodPost, "/auth/login", `{"username":"treasurer"}`, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestLogin_RateLimited() {
	s.operators.On("Authenticate", mock.Anything, "treasurer", "wrong").
		Return(nil, apperrors.ErrUnauthorized).Times(5)

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		w := s.serveWithToken(http.MethodPost, "/auth/login", dto.LoginRequest{Username: "treasurer", Password: "wrong"}, "")
		codes = append(codes, w.Code)
	}
	s.Equal(http.StatusUnauthorized, codes[4])
	s.Equal(http.StatusTooManyRequests, codes[5])
}

func googleToken(idToken string) *oauth2.Token {
	token := &oauth2.Token{AccessToken: "google-access"}
	if idToken == "" {
		return token
	}
	return token.WithExtra(map[string]any{"id_token": idToken})
}

func (s *HandlerTestSuite) TestGoogleLogin() {
	operator := &domain.Operator{OperatorID: testOperator, Email: "treasurer@asso7.org"}
	s.google.On("ExchangeCodeForToken", mock.Anything, "auth-code").Return(googleToken("id-token"), nil).Once()
	s.google.On("ValidateGoogleIDToken", mock.Anything, "id-token").Return(&idtoken.Payload{
		Subject: "google-123",
		Claims:  map[string]any{"email": "treasurer@asso7.org", "email_verified": true},
	}, nil).Once()
	s.operators.On("FindActiveByEmail", mock.Anything, "treasurer@asso7.org").Return(operator, nil).Once()
	s.tokens.On("GenerateAccessToken", mock.Anything, operator).Return("signed.jwt", time.Now().Add(time.Hour), nil).Once()

	w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "auth-code"}, "")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.LoginResponse
	s.decode(w, &resp)
	s.Equal("signed.jwt", resp.Token)
}

func (s *HandlerTestSuite) TestGoogleLogin_Failures() {
	s.Run("invalid code", func() {
		s.google.On("ExchangeCodeForToken", mock.Anything, "stale").
			Return(nil, errors.New(`oauth2: "invalid_grant" "Bad Request"`)).Once()
		w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "stale"}, "")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("google unreachable", func() {
		s.google.On("ExchangeCodeForToken", mock.Anything, "timeout").Return(nil, errors.New("dial tcp: i/o timeout")).Once()
		w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "timeout"}, "")
		s.Equal(http.StatusBadGateway, w.Code)
	})

	s.Run("no id token", func() {
		s.google.On("ExchangeCodeForToken", mock.Anything, "no-id").Return(googleToken(""), nil).Once()
		w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "no-id"}, "")
		s.Equal(http.StatusBadGateway, w.Code)
	})

	s.Run("unverified email", func() {
		s.google.On("ExchangeCodeForToken", mock.Anything, "unverified").Return(googleToken("id-unverified"), nil).Once()
		s.google.On("ValidateGoogleIDToken", mock.Anything, "id-unverified").Return(&idtoken.Payload{
			Subject: "google-9",
			Claims:  map[string]any{"email": "someone@example.com", "email_verified": false},
		}, nil).Once()
		w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "unverified"}, "")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("no operator for email", func() {
		s.google.On("ExchangeCodeForToken", mock.Anything, "stranger").Return(googleToken("id-stranger"), nil).Once()
		s.google.On("ValidateGoogleIDToken", mock.Anything, "id-stranger").Return(&idtoken.Payload{
			Subject: "google-10",
			Claims:  map[string]any{"email": "stranger@example.com", "email_verified": true},
		}, nil).Once()
		s.operators.On("FindActiveByEmail", mock.Anything, "stranger@example.com").
			Return(nil, apperrors.NewNotFoundError("operator", "stranger@example.com")).Once()
		w := s.serveWithToken(http.MethodPost, "/auth/google", dto.GoogleLoginRequest{Code: "stranger"}, "")
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}
