package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minOperatorPasswordLen = 8

// operatorService implements the OperatorSvcFacade interface.
type operatorService struct {
	operatorRepo portsrepo.OperatorRepositoryFacade
	now          func() time.Time
}

// NewOperatorService creates a new OperatorSvcFacade.
func NewOperatorService(operatorRepo portsrepo.OperatorRepositoryFacade) portssvc.OperatorSvcFacade {
	return &operatorService{operatorRepo: operatorRepo, now: time.Now}
}

var _ portssvc.OperatorSvcFacade = (*operatorService)(nil)

// Authenticate implements portssvc.OperatorSvcFacade.
func (s *operatorService) Authenticate(ctx context.Context, username, password string) (*domain.Operator, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	operator, err := s.operatorRepo.FindOperatorByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Login attempt for unknown operator", slog.String("username", username))
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate operator: %w", err)
	}
	if !operator.IsActive || !operatorPasswordMatches(operator.PasswordHash, password) {
		logger.Warn("Rejected login", slog.String("operator_id", operator.OperatorID))
		return nil, apperrors.ErrUnauthorized
	}
	return operator, nil
}

// FindActiveByEmail implements portssvc.OperatorSvcFacade.
func (s *operatorService) FindActiveByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	operator, err := s.operatorRepo.FindOperatorByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("find operator by email: %w", err)
	}
	if !operator.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	return operator, nil
}

// CreateOperator implements portssvc.OperatorSvcFacade.
func (s *operatorService) CreateOperator(ctx context.Context, req dto.CreateOperatorRequest, actor string) (*domain.Operator, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}
	if len(req.Password) < minOperatorPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minOperatorPasswordLen)
	}
	hash, err := hashOperatorPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	operator := domain.Operator{
		OperatorID:   uuid.NewString(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		IsActive:     true,
		AuditFields:  newAuditFields(actor, now),
	}
	if err := s.operatorRepo.SaveOperator(ctx, operator); err != nil {
		return nil, fmt.Errorf("create operator %s: %w", username, err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Operator created", slog.String("operator_id", operator.OperatorID))
	return &operator, nil
}

// hashOperatorPassword returns the bcrypt hash stored on an operator row. bcrypt reads at most
// 72 bytes, so longer passwords are refused rather than silently truncated.
func hashOperatorPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", apperrors.ErrValidation)
	}
	return string(hash), err
}

// operatorPasswordMatches reports whether password opens the stored hash. Operators created
// through OAuth carry no hash and never match.
func operatorPasswordMatches(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
