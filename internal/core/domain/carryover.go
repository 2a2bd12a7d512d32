package domain

import "github.com/shopspring/decimal"

// CarryoverBalance is a manually entered starting balance for a member.
type CarryoverBalance struct {
	MemberID string          `json:"memberID"`
	Amount   decimal.Decimal `json:"amount"`
	AuditFields
}
