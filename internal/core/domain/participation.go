package domain

import "github.com/shopspring/decimal"

// Participation is a roster row joining a Booking and a Member.
type Participation struct {
	ParticipationID string              `json:"participationID"`
	BookingID       string              `json:"bookingID"`
	MemberID        string              `json:"memberID"`
	RosterPaid      bool                `json:"rosterPaid"` // per-member fee paid, unrelated to booking settlement
	PotentialCredit decimal.Decimal     `json:"potentialCredit"`
	RealCredit      decimal.Decimal     `json:"realCredit"`
	FixedGain       decimal.NullDecimal `json:"fixedGain"` // null when not pinned
	AuditFields

	// Member is populated by roster reads; it is not persisted with the participation.
	Member *Member `json:"member,omitempty"`
}

// CreditUpdate is the pair of computed credit fields written back for one participation.
type CreditUpdate struct {
	Potential decimal.Decimal
	Real      decimal.Decimal
}
