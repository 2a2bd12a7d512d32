package repositories

import (
	"context"
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LedgerEntryReader defines read operations for ledger entries.
type LedgerEntryReader interface {
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntriesByMember pages a member's entries newest first.
	ListEntriesByMember(ctx context.Context, memberID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumEntriesByMember splits every member's signed entries into past (dated on or before asOf
	// and not provisional) and upcoming (later, or provisional).
	SumEntriesByMember(ctx context.Context, asOf time.Time) (map[string]domain.MemberEntryTotals, error)
}

// LedgerEntryWriter defines write operations for ledger entries.
type LedgerEntryWriter interface {
	// UpsertSettlementEntryInTx updates the booking's settlement entry if there is one and inserts
	// it otherwise, so settling twice never duplicates. It returns the stored entry.
	UpsertSettlementEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error)

	// DeleteSettlementEntriesInTx removes the booking's settlement entries and returns how many.
	DeleteSettlementEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error)

	// PurgeProvisionalEntriesInTx removes every provisional entry of the booking and returns how many.
	PurgeProvisionalEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error)

	// UpsertProvisionalExpenseInTx keeps a single provisional expense entry for the booking.
	UpsertProvisionalExpenseInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error)

	// ListEntriesByBookingInTx lists every entry linked to the booking.
	ListEntriesByBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.LedgerEntry, error)

	// SaveEntriesInTx inserts entries in order; paired entries reference each other.
	SaveEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error

	// UpdateEntriesInTx rewrites the editable columns of the given entries.
	UpdateEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error

	// FindEntryForUpdate loads and locks an entry.
	FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error)

	// DeleteEntriesInTx deletes the listed entries, clearing pair links first.
	DeleteEntriesInTx(ctx context.Context, tx pgx.Tx, entryIDs ...string) error

	// DeleteEntriesForBookingInTx deletes every entry linked to the booking, plus the entries
	// paired with them, and returns how many rows went.
	DeleteEntriesForBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error)
}

// LedgerEntryRepositoryFacade combines all ledger-entry repository interfaces.
type LedgerEntryRepositoryFacade interface {
	LedgerEntryReader
	LedgerEntryWriter
}
