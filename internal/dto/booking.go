package dto

import (
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBookingRequest defines the data needed to create a booking.
type CreateBookingRequest struct {
	Date             *Date            `json:"date" binding:"required"`
	Venue            string           `json:"venue" binding:"required"`
	ExpectedProceeds *decimal.Decimal `json:"expectedProceeds" binding:"omitempty,money"`
	// Expenses, when positive, are booked as a confirmed expense entry on the payment method.
	Expenses        *decimal.Decimal `json:"expenses" binding:"omitempty,money"`
	PaymentMethodID *string          `json:"paymentMethodID"`
	MemberIDs       []string         `json:"memberIDs"`
}

// UpdateBookingRequest defines the booking fields that can be edited. Nil leaves a field as is.
type UpdateBookingRequest struct {
	Date             *Date            `json:"date"`
	Venue            *string          `json:"venue"`
	ExpectedProceeds *decimal.Decimal `json:"expectedProceeds" binding:"omitempty,money"`
	PaymentMethodID  *string          `json:"paymentMethodID"`
}

// ReplaceRosterRequest lists the members that should be on the roster.
type ReplaceRosterRequest struct {
	MemberIDs []string `json:"memberIDs" binding:"required"`
}

// AddParticipantRequest adds one member to a roster.
type AddParticipantRequest struct {
	MemberID string `json:"memberID" binding:"required"`
}

// SetParticipantPaidRequest flips the per-member fee flag.
type SetParticipantPaidRequest struct {
	Paid *bool `json:"paid" binding:"required"`
}

// ApplyOverridesRequest pins participations to fixed amounts. A null amount clears the pin.
type ApplyOverridesRequest struct {
	Overrides map[string]*decimal.Decimal `json:"overrides" binding:"required"`
}

// SettleBookingRequest marks a booking paid.
type SettleBookingRequest struct {
	Amount          *decimal.Decimal `json:"amount" binding:"omitempty,money"`
	PaymentMethodID *string          `json:"paymentMethodID"`
	Date            *Date            `json:"date"`
}

// SetProvisionalExpenseRequest sets the projected cost of an unsettled booking. Zero removes it.
type SetProvisionalExpenseRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"money"`
}

// ListBookingsParams defines query parameters for listing bookings.
type ListBookingsParams struct {
	Settled   *bool   `form:"settled"`
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// BookingResponse defines the data returned for a booking.
type BookingResponse struct {
	BookingID           string              `json:"bookingID"`
	Date                Date                `json:"date"`
	Venue               string              `json:"venue"`
	Settled             bool                `json:"settled"`
	ActualProceeds      decimal.NullDecimal `json:"actualProceeds"`
	ExpectedProceeds    decimal.NullDecimal `json:"expectedProceeds"`
	Expenses            decimal.Decimal     `json:"expenses"`
	ProvisionalExpenses decimal.NullDecimal `json:"provisionalExpenses"`
	PaymentMethodID     *string             `json:"paymentMethodID"`
	CreatedBy           string              `json:"createdBy"`
	LastUpdatedBy       string              `json:"lastUpdatedBy"`
}

// ListBookingsResponse wraps a page of bookings.
type ListBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToBookingResponse converts a domain.Booking to BookingResponse DTO.
func ToBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID:           b.BookingID,
		Date:                NewDate(b.Date),
		Venue:               b.Venue,
		Settled:             b.Settled,
		ActualProceeds:      b.ActualProceeds,
		ExpectedProceeds:    b.ExpectedProceeds,
		Expenses:            b.Expenses,
		ProvisionalExpenses: b.ProvisionalExpenses,
		PaymentMethodID:     b.PaymentMethodID,
		CreatedBy:           b.CreatedBy,
		LastUpdatedBy:       b.LastUpdatedBy,
	}
}

// ToListBookingsResponse converts a page of bookings.
func ToListBookingsResponse(bookings []domain.Booking, nextToken *string) ListBookingsResponse {
	responses := make([]BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = ToBookingResponse(&bookings[i])
	}
	return ListBookingsResponse{Bookings: responses, NextToken: nextToken}
}

// ListAuditEventsParams defines query parameters for a booking's audit trail.
type ListAuditEventsParams struct {
	Limit int `form:"limit,default=50" binding:"omitempty,min=1,max=500"`
}

// ListAuditEventsResponse wraps a booking's audit events, newest first.
type ListAuditEventsResponse struct {
	Events []domain.AuditEvent `json:"events"`
}
