package services

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
)

// LedgerEntrySvcFacade manages manual ledger entries.
type LedgerEntrySvcFacade interface {
	// CreateEntry stores the entry and, when OffsetMemberID is set, its opposite-direction pair.
	// Expense entries linked to a booking update the booking's expenses and credits.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actor string) ([]domain.LedgerEntry, error)

	// UpdateEntry edits a manual entry and mirrors the change onto its pair. The bookings it
	// was and is linked to have their expenses and credits recomputed.
	UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, actor string) ([]domain.LedgerEntry, error)

	// DeleteEntry removes the entry and its pair. Lifecycle-owned entries are refused.
	DeleteEntry(ctx context.Context, entryID string, actor string) error

	GetEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	ListEntriesByMember(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}
