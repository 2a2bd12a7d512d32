package repositories

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ListBookingsParams filters and pages ListBookings.
type ListBookingsParams struct {
	Settled   *bool
	Limit     int
	NextToken *string
}

// BookingReader defines read operations for bookings.
type BookingReader interface {
	FindBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error)

	// ListBookings returns bookings newest first and a token for the next page, if any.
	ListBookings(ctx context.Context, params ListBookingsParams) ([]domain.Booking, *string, error)

	// ListBookingIDs returns every booking ID, oldest first.
	ListBookingIDs(ctx context.Context) ([]string, error)

	// SumExpectedProceedsByPaymentMethod totals the expected proceeds of unsettled bookings per
	// payment-method member.
	SumExpectedProceedsByPaymentMethod(ctx context.Context) (map[string]decimal.Decimal, error)
}

// BookingWriter defines write operations for bookings. All of them run inside a transition.
type BookingWriter interface {
	InsertBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error

	// FindBookingForUpdate loads the booking and locks its row until the transaction ends.
	FindBookingForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Booking, error)

	UpdateBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error

	// DeleteBookingInTx deletes the booking; its participations go with it.
	DeleteBookingInTx(ctx context.Context, tx pgx.Tx, bookingID string) error
}

// BookingRepositoryFacade combines all booking-related repository interfaces.
type BookingRepositoryFacade interface {
	BookingReader
	BookingWriter
}
