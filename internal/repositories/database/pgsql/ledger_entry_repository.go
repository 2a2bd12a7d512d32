package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/models"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/asso7/concert_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, member_id, direction, motive, details, amount, entry_date, booking_id, paired_entry_id,
	provisional, source, created_at, created_by, last_updated_at, last_updated_by`

const defaultEntryLimit = 50

type PgxLedgerEntryRepository struct {
	BaseRepository
}

// newPgxLedgerEntryRepository creates a new repository for ledger entries.
func newPgxLedgerEntryRepository(pool *pgxpool.Pool) portsrepo.LedgerEntryRepositoryFacade {
	return &PgxLedgerEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerEntryRepositoryFacade = (*PgxLedgerEntryRepository)(nil)

func scanEntry(row pgx.Row) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(
		&e.EntryID,
		&e.MemberID,
		&e.Direction,
		&e.Motive,
		&e.Details,
		&e.Amount,
		&e.EntryDate,
		&e.BookingID,
		&e.PairedEntryID,
		&e.Provisional,
		&e.Source,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	return e, err
}

func collectEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()
	entries := []models.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}
	return entries, nil
}

// FindEntryByID retrieves an entry by its ID.
func (r *PgxLedgerEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	e, err := scanEntry(r.Pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE entry_id = $1;`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("ledger entry", entryID)
		}
		return nil, fmt.Errorf("failed to find ledger entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainLedgerEntry(e)
	return &entry, nil
}

// FindEntryForUpdate loads and locks an entry; nil when it does not exist.
func (r *PgxLedgerEntryRepository) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	e, err := scanEntry(tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE entry_id = $1 FOR UPDATE;`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock ledger entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainLedgerEntry(e)
	return &entry, nil
}

// ListEntriesByMember pages a member's entries newest first.
func (r *PgxLedgerEntryRepository) ListEntriesByMember(ctx context.Context, memberID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	limit = pageSize(limit, defaultEntryLimit)
	cursor, err := pagination.DecodeTokenPtr(nextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	var afterDate, afterID any
	if cursor != nil {
		afterDate, afterID = cursor.Date, cursor.ID
	}

	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE member_id = $1
		  AND ($2::date IS NULL OR (entry_date, entry_id) < ($2::date, $3::text))
		ORDER BY entry_date DESC, entry_id DESC
		LIMIT $4;
	`
	rows, err := r.Pool.Query(ctx, query, memberID, afterDate, afterID, limit+1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries of member %s: %w", memberID, err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		next = pagination.EncodeTokenPtr(last.EntryDate, last.EntryID)
	}
	return mapping.ToDomainLedgerEntrySlice(entries), next, nil
}

// SumEntriesByMember splits every member's signed entries around asOf.
func (r *PgxLedgerEntryRepository) SumEntriesByMember(ctx context.Context, asOf time.Time) (map[string]domain.MemberEntryTotals, error) {
	query := `
		SELECT member_id,
		       COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END)
		                FILTER (WHERE NOT provisional AND entry_date <= $1), 0),
		       COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END)
		                FILTER (WHERE provisional OR entry_date > $1), 0)
		FROM ledger_entries
		GROUP BY member_id;
	`
	rows, err := r.Pool.Query(ctx, query, domain.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	defer rows.Close()

	totals := map[string]domain.MemberEntryTotals{}
	for rows.Next() {
		var memberID string
		var t domain.MemberEntryTotals
		if err := rows.Scan(&memberID, &t.Past, &t.Upcoming); err != nil {
			return nil, fmt.Errorf("failed to scan entry totals: %w", err)
		}
		totals[memberID] = t
	}
	return totals, rows.Err()
}

// upsertBySource keeps one entry of the given source per booking, relying on the partial
// unique index of that source. The stored row keeps its original ID and creation fields.
func (r *PgxLedgerEntryRepository) upsertBySource(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry, source domain.EntrySource) (*domain.LedgerEntry, error) {
	if entry.BookingID == nil {
		return nil, fmt.Errorf("%w: a %s entry needs a booking", apperrors.ErrValidation, source)
	}
	entry.Source = source
	e := mapping.ToModelLedgerEntry(entry)
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (booking_id) WHERE source = '` + string(source) + `' DO UPDATE SET
			member_id = EXCLUDED.member_id,
			direction = EXCLUDED.direction,
			motive = EXCLUDED.motive,
			details = EXCLUDED.details,
			amount = EXCLUDED.amount,
			entry_date = EXCLUDED.entry_date,
			provisional = EXCLUDED.provisional,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by
		RETURNING ` + entryColumns + `;
	`
	stored, err := scanEntry(tx.QueryRow(ctx, query,
		e.EntryID,
		e.MemberID,
		e.Direction,
		e.Motive,
		e.Details,
		e.Amount,
		e.EntryDate,
		e.BookingID,
		e.PairedEntryID,
		e.Provisional,
		e.Source,
		e.CreatedAt,
		e.CreatedBy,
		e.LastUpdatedAt,
		e.LastUpdatedBy,
	))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("upsert %s entry of booking %s", source, *entry.BookingID))
	}
	result := mapping.ToDomainLedgerEntry(stored)
	return &result, nil
}

// UpsertSettlementEntryInTx keeps exactly one settlement entry per booking.
func (r *PgxLedgerEntryRepository) UpsertSettlementEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	return r.upsertBySource(ctx, tx, entry, domain.SourceSettlement)
}

// UpsertProvisionalExpenseInTx keeps exactly one provisional expense entry per booking.
func (r *PgxLedgerEntryRepository) UpsertProvisionalExpenseInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	return r.upsertBySource(ctx, tx, entry, domain.SourceProvisionalExpense)
}

func (r *PgxLedgerEntryRepository) deleteCount(ctx context.Context, tx pgx.Tx, what, query string, args ...any) (int, error) {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err, what)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteSettlementEntriesInTx removes the booking's settlement entries.
func (r *PgxLedgerEntryRepository) DeleteSettlementEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	return r.deleteCount(ctx, tx, "delete settlement entries of booking "+bookingID,
		`DELETE FROM ledger_entries WHERE booking_id = $1 AND source = $2;`, bookingID, string(domain.SourceSettlement))
}

// PurgeProvisionalEntriesInTx removes every provisional entry of the booking.
func (r *PgxLedgerEntryRepository) PurgeProvisionalEntriesInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	return r.deleteCount(ctx, tx, "purge provisional entries of booking "+bookingID,
		`DELETE FROM ledger_entries WHERE booking_id = $1 AND provisional;`, bookingID)
}

// ListEntriesByBookingInTx lists every entry linked to the booking.
func (r *PgxLedgerEntryRepository) ListEntriesByBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE booking_id = $1 ORDER BY entry_date, entry_id;`
	rows, err := tx.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries of booking %s: %w", bookingID, err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// SaveEntriesInTx inserts the entries in one batch. The pair foreign key is deferred, so
// two entries referencing each other can go in together.
func (r *PgxLedgerEntryRepository) SaveEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	batch := &pgx.Batch{}
	for _, entry := range entries {
		e := mapping.ToModelLedgerEntry(entry)
		batch.Queue(query,
			e.EntryID,
			e.MemberID,
			e.Direction,
			e.Motive,
			e.Details,
			e.Amount,
			e.EntryDate,
			e.BookingID,
			e.PairedEntryID,
			e.Provisional,
			e.Source,
			e.CreatedAt,
			e.CreatedBy,
			e.LastUpdatedAt,
			e.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return mapPgError(err, "insert ledger entries")
	}
	return nil
}

// UpdateEntriesInTx rewrites the entries in one batch. Source, pair link and creation fields
// never change.
func (r *PgxLedgerEntryRepository) UpdateEntriesInTx(ctx context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries SET
			member_id = $2,
			direction = $3,
			motive = $4,
			details = $5,
			amount = $6,
			entry_date = $7,
			booking_id = $8,
			last_updated_at = $9,
			last_updated_by = $10
		WHERE entry_id = $1;
	`
	batch := &pgx.Batch{}
	for _, entry := range entries {
		e := mapping.ToModelLedgerEntry(entry)
		batch.Queue(query,
			e.EntryID,
			e.MemberID,
			e.Direction,
			e.Motive,
			e.Details,
			e.Amount,
			e.EntryDate,
			e.BookingID,
			e.LastUpdatedAt,
			e.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for _, entry := range entries {
		tag, err := br.Exec()
		if err != nil {
			err = mapPgError(err, "update ledger entry "+entry.EntryID)
		} else {
			err = expectRows(tag, "ledger entry", entry.EntryID)
		}
		if err != nil {
			_ = br.Close()
			return err
		}
	}
	return mapPgError(br.Close(), "update ledger entries")
}

// DeleteEntriesInTx deletes the listed entries after unlinking anything paired with them.
func (r *PgxLedgerEntryRepository) DeleteEntriesInTx(ctx context.Context, tx pgx.Tx, entryIDs ...string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `UPDATE ledger_entries SET paired_entry_id = NULL WHERE paired_entry_id = ANY($1);`, entryIDs); err != nil {
		return mapPgError(err, "unlink paired entries")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE entry_id = ANY($1);`, entryIDs); err != nil {
		return mapPgError(err, "delete ledger entries")
	}
	return nil
}

// DeleteEntriesForBookingInTx deletes the booking's entries together with their pairs.
func (r *PgxLedgerEntryRepository) DeleteEntriesForBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	return r.deleteCount(ctx, tx, "delete entries of booking "+bookingID, `
		DELETE FROM ledger_entries
		WHERE booking_id = $1
		   OR entry_id IN (SELECT paired_entry_id FROM ledger_entries WHERE booking_id = $1 AND paired_entry_id IS NOT NULL)
		   OR paired_entry_id IN (SELECT entry_id FROM ledger_entries WHERE booking_id = $1);`, bookingID)
}
