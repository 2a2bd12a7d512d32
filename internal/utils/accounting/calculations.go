package accounting

import (
	"fmt"
	"strings"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount is rounded to.
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to two decimal places, which is half-up for the
// non-negative amounts the allocation works with.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// HasMoneyPrecision reports whether d has at most two decimal places.
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(RoundMoney(d))
}

// Sum adds a slice of amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// NullOrZero returns the value of n, or zero when it is null.
func NullOrZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// NullIfZero maps a zero amount to null, as used for ProvisionalExpenses.
func NullIfZero(d decimal.Decimal) decimal.NullDecimal {
	if d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ValidateEntry checks the invariants every ledger entry must hold before it is stored.
func ValidateEntry(e domain.LedgerEntry) error {
	if e.MemberID == "" {
		return fmt.Errorf("entry must reference a member")
	}
	if e.Direction != domain.EntryCredit && e.Direction != domain.EntryDebit {
		return fmt.Errorf("unknown entry direction '%s'", e.Direction)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("entry amount must be positive, got %s", e.Amount.String())
	}
	if !HasMoneyPrecision(e.Amount) {
		return fmt.Errorf("entry amount %s has more than %d decimal places", e.Amount.String(), MoneyPlaces)
	}
	if e.EntryDate.IsZero() {
		return fmt.Errorf("entry date is required")
	}
	return nil
}

// IsExpenseMotive reports whether a motive counts towards a booking's expenses.
func IsExpenseMotive(motive string) bool {
	return strings.EqualFold(strings.TrimSpace(motive), domain.MotiveExpenses)
}

// ExpenseTotal is the expense figure of a booking derived from its entries: debits minus credits
// of the expense entries matching the provisional flag.
func ExpenseTotal(entries []domain.LedgerEntry, provisional bool) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Provisional != provisional || !IsExpenseMotive(e.Motive) {
			continue
		}
		total = total.Sub(e.Signed())
	}
	return total
}
