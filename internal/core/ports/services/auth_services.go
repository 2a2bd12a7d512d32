package services

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// TokenSvcFacade issues operator access tokens.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, operator *domain.Operator) (string, time.Time, error)
}

// OperatorSvcFacade authenticates and provisions operators.
type OperatorSvcFacade interface {
	// Authenticate checks a username and password. Any mismatch is ErrUnauthorized.
	Authenticate(ctx context.Context, username, password string) (*domain.Operator, error)

	// FindActiveByEmail resolves a Google-verified email to an active operator.
	FindActiveByEmail(ctx context.Context, email string) (*domain.Operator, error)

	CreateOperator(ctx context.Context, req dto.CreateOperatorRequest, actor string) (*domain.Operator, error)
}

// GoogleOAuthHandlerSvcFacade defines the interface for Google OAuth operations.
type GoogleOAuthHandlerSvcFacade interface {
	// ExchangeCodeForToken exchanges an OAuth authorization code for a token.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)
	// ValidateGoogleIDToken validates an ID token string from Google and returns its payload.
	ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error)
}
