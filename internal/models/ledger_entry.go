package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a row of the ledger_entries table.
type LedgerEntry struct {
	EntryID       string          `db:"entry_id"`
	MemberID      string          `db:"member_id"`
	Direction     string          `db:"direction"`
	Motive        string          `db:"motive"`
	Details       string          `db:"details"`
	Amount        decimal.Decimal `db:"amount"`
	EntryDate     time.Time       `db:"entry_date"`
	BookingID     sql.NullString  `db:"booking_id"`
	PairedEntryID sql.NullString  `db:"paired_entry_id"`
	Provisional   bool            `db:"provisional"`
	Source        string          `db:"source"`
	AuditFields
}
