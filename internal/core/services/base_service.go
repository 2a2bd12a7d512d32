package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/asso7/concert_ledger/internal/platform/auditlog"
	"github.com/asso7/concert_ledger/internal/platform/cache"
	"github.com/jackc/pgx/v5"
)

// statementCachePrefix namespaces cached account statements.
const statementCachePrefix = "statement:"

// BaseService carries the repositories and side channels shared by the ledger services,
// plus the transaction and recompute plumbing they all go through.
type BaseService struct {
	txManager     portsrepo.TransactionManager
	memberRepo    portsrepo.MemberRepositoryFacade
	bookingRepo   portsrepo.BookingRepositoryFacade
	rosterRepo    portsrepo.ParticipationRepositoryFacade
	entryRepo     portsrepo.LedgerEntryRepositoryFacade
	carryoverRepo portsrepo.CarryoverRepositoryFacade
	auditRepo     portsrepo.AuditRepositoryFacade

	cache cache.Cache
	audit auditlog.Sink
	now   func() time.Time
}

// BaseServiceOption configures optional collaborators of BaseService.
type BaseServiceOption func(*BaseService)

// WithCache sets the cache invalidated after every committed transition.
func WithCache(c cache.Cache) BaseServiceOption {
	return func(s *BaseService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithAuditSink sets where committed transitions are reported.
func WithAuditSink(sink auditlog.Sink) BaseServiceOption {
	return func(s *BaseService) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) BaseServiceOption {
	return func(s *BaseService) {
		s.now = now
	}
}

// NewBaseService wires the shared dependencies. The cache and the audit sink default to no-ops.
func NewBaseService(repos portsrepo.RepositoryProvider, opts ...BaseServiceOption) *BaseService {
	s := &BaseService{
		txManager:     repos.TxManager,
		memberRepo:    repos.MemberRepo,
		bookingRepo:   repos.BookingRepo,
		rosterRepo:    repos.ParticipationRepo,
		entryRepo:     repos.LedgerEntryRepo,
		carryoverRepo: repos.CarryoverRepo,
		auditRepo:     repos.AuditRepo,
		cache:         cache.Noop{},
		audit:         auditlog.Discard{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// clock returns the current time in UTC.
func (s *BaseService) clock() time.Time {
	return s.now().UTC()
}

// inTx runs fn in one database transaction. Any error rolls everything back; errors that are not
// already classified are reported as persistence failures.
func (s *BaseService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return asPersistenceError(err)
	}
	defer func() {
		if rbErr := s.txManager.Rollback(ctx, tx); rbErr != nil {
			s.LogError(ctx, rbErr, "Rollback failed")
		}
	}()

	if err := fn(tx); err != nil {
		return asPersistenceError(err)
	}
	if err := s.txManager.Commit(ctx, tx); err != nil {
		return asPersistenceError(err)
	}
	return nil
}

// committed runs the post-commit side effects: statements are invalidated and events reported.
func (s *BaseService) committed(ctx context.Context, events ...domain.AuditEvent) {
	if err := s.cache.DeletePrefix(ctx, statementCachePrefix); err != nil {
		s.LogError(ctx, err, "Failed to invalidate cached statements")
	}
	for _, e := range events {
		s.audit.Log(e)
	}
}

// asPersistenceError leaves classified errors alone and wraps anything else in ErrPersistence.
func asPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrPersistence),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}

func newAuditFields(actor string, now time.Time) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actor,
		LastUpdatedAt: now,
		LastUpdatedBy: actor,
	}
}

func touch(fields *domain.AuditFields, actor string, now time.Time) {
	fields.LastUpdatedAt = now
	fields.LastUpdatedBy = actor
}
