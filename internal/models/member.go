package models

import "github.com/shopspring/decimal"

// Member is a row of the members table.
type Member struct {
	MemberID        string `db:"member_id"`
	Name            string `db:"name"`
	Kind            string `db:"kind"`
	IsActive        bool   `db:"is_active"`
	IsBonusRole     bool   `db:"is_bonus_role"`
	IsStructureRole bool   `db:"is_structure_role"`
	IsPaymentMethod bool   `db:"is_payment_method"`
	AuditFields
}

// CarryoverBalance is a row of the carryover_balances table.
type CarryoverBalance struct {
	MemberID string          `db:"member_id"`
	Amount   decimal.Decimal `db:"amount"`
	AuditFields
}
