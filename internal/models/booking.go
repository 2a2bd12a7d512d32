package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a row of the bookings table.
type Booking struct {
	BookingID           string              `db:"booking_id"`
	BookingDate         time.Time           `db:"booking_date"`
	Venue               string              `db:"venue"`
	Settled             bool                `db:"settled"`
	ActualProceeds      decimal.NullDecimal `db:"actual_proceeds"`
	ExpectedProceeds    decimal.NullDecimal `db:"expected_proceeds"`
	Expenses            decimal.Decimal     `db:"expenses"`
	ProvisionalExpenses decimal.NullDecimal `db:"provisional_expenses"`
	PaymentMethodID     sql.NullString      `db:"payment_method_id"`
	AuditFields
}

// Participation is a row of the participations table.
type Participation struct {
	ParticipationID string              `db:"participation_id"`
	BookingID       string              `db:"booking_id"`
	MemberID        string              `db:"member_id"`
	RosterPaid      bool                `db:"roster_paid"`
	PotentialCredit decimal.Decimal     `db:"potential_credit"`
	RealCredit      decimal.Decimal     `db:"real_credit"`
	FixedGain       decimal.NullDecimal `db:"fixed_gain"`
	AuditFields
}
