package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/domain"
	portsrepo "github.com/asso7/concert_ledger/internal/core/ports/repositories"
	"github.com/asso7/concert_ledger/internal/models"
	"github.com/asso7/concert_ledger/internal/utils/mapping"
	"github.com/asso7/concert_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const bookingColumns = `booking_id, booking_date, venue, settled, actual_proceeds, expected_proceeds, expenses,
	provisional_expenses, payment_method_id, created_at, created_by, last_updated_at, last_updated_by`

const defaultBookingLimit = 20

type PgxBookingRepository struct {
	BaseRepository
}

// newPgxBookingRepository creates a new repository for bookings.
func newPgxBookingRepository(pool *pgxpool.Pool) portsrepo.BookingRepositoryFacade {
	return &PgxBookingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BookingRepositoryFacade = (*PgxBookingRepository)(nil)

func scanBooking(row pgx.Row) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.BookingID,
		&b.BookingDate,
		&b.Venue,
		&b.Settled,
		&b.ActualProceeds,
		&b.ExpectedProceeds,
		&b.Expenses,
		&b.ProvisionalExpenses,
		&b.PaymentMethodID,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	return b, err
}

func (r *PgxBookingRepository) findBooking(ctx context.Context, q querier, query, bookingID string) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("booking", bookingID)
		}
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}
	booking := mapping.ToDomainBooking(b)
	return &booking, nil
}

// FindBookingByID retrieves a booking by its ID.
func (r *PgxBookingRepository) FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return r.findBooking(ctx, r.Pool, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1;`, bookingID)
}

// FindBookingForUpdate loads the booking and holds its row lock until the transaction ends.
// A missing booking is reported as nil, nil so callers decide how to surface it.
func (r *PgxBookingRepository) FindBookingForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Booking, error) {
	booking, err := r.findBooking(ctx, tx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1 FOR UPDATE;`, bookingID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return booking, err
}

// ListBookings pages bookings newest first, optionally filtered on the settled flag.
func (r *PgxBookingRepository) ListBookings(ctx context.Context, params portsrepo.ListBookingsParams) ([]domain.Booking, *string, error) {
	limit := pageSize(params.Limit, defaultBookingLimit)
	cursor, err := pagination.DecodeTokenPtr(params.NextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::boolean IS NULL OR settled = $1)
		  AND ($2::date IS NULL OR (booking_date, booking_id) < ($2::date, $3::text))
		ORDER BY booking_date DESC, booking_id DESC
		LIMIT $4;
	`
	var afterDate, afterID any
	if cursor != nil {
		afterDate, afterID = cursor.Date, cursor.ID
	}
	// one extra row tells whether another page exists
	rows, err := r.Pool.Query(ctx, query, params.Settled, afterDate, afterID, limit+1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	modelBookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		modelBookings = append(modelBookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating booking rows: %w", err)
	}

	var nextToken *string
	if len(modelBookings) > limit {
		modelBookings = modelBookings[:limit]
		last := modelBookings[limit-1]
		nextToken = pagination.EncodeTokenPtr(last.BookingDate, last.BookingID)
	}
	return mapping.ToDomainBookingSlice(modelBookings), nextToken, nil
}

// ListBookingIDs returns every booking ID, oldest first.
func (r *PgxBookingRepository) ListBookingIDs(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT booking_id FROM bookings ORDER BY booking_date, booking_id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking IDs: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect booking IDs: %w", err)
	}
	return ids, nil
}

// SumExpectedProceedsByPaymentMethod totals unsettled expected proceeds per payment method.
func (r *PgxBookingRepository) SumExpectedProceedsByPaymentMethod(ctx context.Context) (map[string]decimal.Decimal, error) {
	query := `
		SELECT payment_method_id, SUM(expected_proceeds)
		FROM bookings
		WHERE NOT settled AND expected_proceeds IS NOT NULL AND payment_method_id IS NOT NULL
		GROUP BY payment_method_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expected proceeds: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var memberID string
		var total decimal.Decimal
		if err := rows.Scan(&memberID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan expected proceeds row: %w", err)
		}
		totals[memberID] = total
	}
	return totals, rows.Err()
}

// InsertBookingInTx inserts a new booking.
func (r *PgxBookingRepository) InsertBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	b := mapping.ToModelBooking(booking)
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, query,
		b.BookingID,
		b.BookingDate,
		b.Venue,
		b.Settled,
		b.ActualProceeds,
		b.ExpectedProceeds,
		b.Expenses,
		b.ProvisionalExpenses,
		b.PaymentMethodID,
		b.CreatedAt,
		b.CreatedBy,
		b.LastUpdatedAt,
		b.LastUpdatedBy,
	)
	return mapPgError(err, "insert booking "+b.BookingID)
}

// UpdateBookingInTx stores every mutable field of the booking.
func (r *PgxBookingRepository) UpdateBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error {
	b := mapping.ToModelBooking(booking)
	query := `
		UPDATE bookings
		SET booking_date = $1, venue = $2, settled = $3, actual_proceeds = $4, expected_proceeds = $5,
		    expenses = $6, provisional_expenses = $7, payment_method_id = $8,
		    last_updated_at = $9, last_updated_by = $10
		WHERE booking_id = $11;
	`
	tag, err := tx.Exec(ctx, query,
		b.BookingDate,
		b.Venue,
		b.Settled,
		b.ActualProceeds,
		b.ExpectedProceeds,
		b.Expenses,
		b.ProvisionalExpenses,
		b.PaymentMethodID,
		b.LastUpdatedAt,
		b.LastUpdatedBy,
		b.BookingID,
	)
	if err != nil {
		return mapPgError(err, "update booking "+b.BookingID)
	}
	return expectRows(tag, "booking", b.BookingID)
}

// DeleteBookingInTx deletes the booking; participations cascade.
func (r *PgxBookingRepository) DeleteBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE booking_id = $1;`, bookingID)
	if err != nil {
		return mapPgError(err, "delete booking "+bookingID)
	}
	return expectRows(tag, "booking", bookingID)
}
