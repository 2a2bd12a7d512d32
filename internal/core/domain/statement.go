package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementRow is one member's standing in the account statement.
type StatementRow struct {
	MemberID        string          `json:"memberID"`
	Name            string          `json:"name"`
	Kind            MemberKind      `json:"kind"`
	IsPaymentMethod bool            `json:"isPaymentMethod"`
	CurrentCredit   decimal.Decimal `json:"currentCredit"`
	UpcomingGains   decimal.Decimal `json:"upcomingGains"`
	PotentialCredit decimal.Decimal `json:"potentialCredit"`
}

// Statement is the account statement as of a calendar date.
type Statement struct {
	AsOf       time.Time      `json:"asOf"`
	Members    []StatementRow `json:"members"`
	Structures []StatementRow `json:"structures"`
	Treasury   StatementRow   `json:"treasury"`
}

// MemberCredits aggregates the participation credit fields of one member.
type MemberCredits struct {
	Real      decimal.Decimal
	Potential decimal.Decimal
}

// MemberEntryTotals splits a member's signed entries into past and upcoming.
type MemberEntryTotals struct {
	Past     decimal.Decimal
	Upcoming decimal.Decimal
}
