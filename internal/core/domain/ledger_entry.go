package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection is the sign of a ledger entry from the member's point of view.
type EntryDirection string

const (
	EntryCredit EntryDirection = "credit"
	EntryDebit  EntryDirection = "debit"
)

// Opposite returns the other direction.
func (d EntryDirection) Opposite() EntryDirection {
	if d == EntryCredit {
		return EntryDebit
	}
	return EntryCredit
}

// EntrySource records what created an entry.
type EntrySource string

const (
	SourceManual             EntrySource = "manual"
	SourceSettlement         EntrySource = "settlement"
	SourceProvisionalExpense EntrySource = "provisional_expense"
	SourceOffset             EntrySource = "offset"
)

// Well-known motives.
const (
	MotiveProceeds = "proceeds"
	MotiveExpenses = "expenses"
)

// LedgerEntry is a credit or debit against a member.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	MemberID      string          `json:"memberID"`
	Direction     EntryDirection  `json:"direction"`
	Motive        string          `json:"motive"`
	Details       string          `json:"details"`
	Amount        decimal.Decimal `json:"amount"` // always positive, Direction carries the sign
	EntryDate     time.Time       `json:"entryDate"`
	BookingID     *string         `json:"bookingID"`
	PairedEntryID *string         `json:"pairedEntryID"`
	Provisional   bool            `json:"provisional"`
	Source        EntrySource     `json:"source"`
	AuditFields
}

// Signed returns the amount with credit positive and debit negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// IsSystemManaged reports whether the entry is owned by the booking lifecycle.
func (e LedgerEntry) IsSystemManaged() bool {
	return e.Source == SourceSettlement || e.Source == SourceProvisionalExpense
}
