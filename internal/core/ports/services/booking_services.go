package services

import (
	"context"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// BookingReaderSvc defines read operations for bookings.
type BookingReaderSvc interface {
	GetBookingByID(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListBookings(ctx context.Context, params dto.ListBookingsParams) (*dto.ListBookingsResponse, error)

	// GetAllocationView returns the roster with base shares, pins and stored credits.
	GetAllocationView(ctx context.Context, bookingID string) (*dto.AllocationView, error)

	ListAuditEvents(ctx context.Context, bookingID string, limit int) ([]domain.AuditEvent, error)
}

// BookingWriterSvc defines booking and roster mutations. Each one recomputes credits in the same transaction.
type BookingWriterSvc interface {
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest, actor string) (*dto.TransitionResult, error)
	UpdateBooking(ctx context.Context, bookingID string, req dto.UpdateBookingRequest, actor string) (*dto.TransitionResult, error)
	ReplaceRoster(ctx context.Context, bookingID string, memberIDs []string, actor string) (*dto.TransitionResult, error)
	AddParticipant(ctx context.Context, bookingID string, memberID string, actor string) (*dto.TransitionResult, error)
	RemoveParticipant(ctx context.Context, bookingID string, participationID string, actor string) (*dto.TransitionResult, error)

	// SetParticipantPaid flips the per-member fee flag. It does not touch credits.
	SetParticipantPaid(ctx context.Context, bookingID string, participationID string, paid bool, actor string) error

	// SetProvisionalExpense sets or (with zero) removes the projected cost of an unsettled booking.
	SetProvisionalExpense(ctx context.Context, bookingID string, amount decimal.Decimal, actor string) (*dto.TransitionResult, error)

	// DeleteBooking removes the booking, its roster and every entry linked to it.
	DeleteBooking(ctx context.Context, bookingID string, actor string) error
}

// BookingMaintenanceSvc defines bulk operations run by the scheduler and the CLI.
type BookingMaintenanceSvc interface {
	// RecomputeAll recomputes every booking, one transaction each, continuing past failures.
	RecomputeAll(ctx context.Context) (*dto.RecomputeAllResult, error)
}

// BookingSvcFacade combines all booking-related service interfaces.
type BookingSvcFacade interface {
	BookingReaderSvc
	BookingWriterSvc
	BookingMaintenanceSvc
}
