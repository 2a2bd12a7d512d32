package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a dated paid engagement whose net proceeds are shared among its roster.
type Booking struct {
	BookingID           string              `json:"bookingID"`
	Date                time.Time           `json:"date"`
	Venue               string              `json:"venue"`
	Settled             bool                `json:"settled"`
	ActualProceeds      decimal.NullDecimal `json:"actualProceeds"`      // set only once settled
	ExpectedProceeds    decimal.NullDecimal `json:"expectedProceeds"`    // projection, cleared once settled
	Expenses            decimal.Decimal     `json:"expenses"`            // confirmed costs
	ProvisionalExpenses decimal.NullDecimal `json:"provisionalExpenses"` // projected costs, null once settled
	PaymentMethodID     *string             `json:"paymentMethodID"`     // structure that receives the proceeds
	AuditFields
}

// Proceeds returns the proceeds the allocation is based on: actual when settled, expected otherwise.
func (b Booking) Proceeds() decimal.NullDecimal {
	if b.Settled {
		return b.ActualProceeds
	}
	return b.ExpectedProceeds
}
