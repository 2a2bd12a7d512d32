package services

import (
	"context"

	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// LifecycleSvcFacade drives a booking between its unsettled and settled states and keeps
// every participation's credit in step. Each method is one atomic transaction.
type LifecycleSvcFacade interface {
	// SettleBooking marks the booking paid. Calling it again on a settled booking is idempotent.
	SettleBooking(ctx context.Context, bookingID string, params dto.SettleParams, actor string) (*dto.TransitionResult, error)

	// UnsettleBooking undoes a payment and restores expected proceeds.
	UnsettleBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error)

	// RecomputeForBooking recomputes the active credit field from the current basis and stored pins.
	RecomputeForBooking(ctx context.Context, bookingID string, actor string) (*dto.TransitionResult, error)

	// ApplyOverrides stores pins (invalid NullDecimal clears one) and recomputes.
	ApplyOverrides(ctx context.Context, bookingID string, pins map[string]decimal.NullDecimal, actor string) (*dto.TransitionResult, error)
}
