package dto

import (
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettleParams are the optional inputs of a settlement.
type SettleParams struct {
	Amount          *decimal.Decimal
	PaymentMethodID *string
	Date            *Date
}

// TransitionResult reports what a booking transition changed.
type TransitionResult struct {
	Booking                  domain.Booking             `json:"booking"`
	Roster                   []domain.Participation     `json:"roster"`
	Allocation               allocation.Allocation      `json:"allocation"`
	Final                    map[string]decimal.Decimal `json:"final"` // keyed like Allocation.Keyed
	SettlementEntryID        *string                    `json:"settlementEntryID,omitempty"`
	DeletedSettlementEntries int                        `json:"deletedSettlementEntries"`
	PurgedProvisionalEntries int                        `json:"purgedProvisionalEntries"`
	Skipped                  bool                       `json:"skipped"`
	// OverridesIgnored is set when stored pins no longer fit the total and the base allocation was used.
	OverridesIgnored bool `json:"overridesIgnored,omitempty"`
}

// AllocationRow is one roster row of the allocation view.
type AllocationRow struct {
	ParticipationID string              `json:"participationID"`
	MemberID        string              `json:"memberID"`
	Name            string              `json:"name"`
	Kind            domain.MemberKind   `json:"kind"`
	IsBonusRole     bool                `json:"isBonusRole"`
	IsStructureRole bool                `json:"isStructureRole"`
	RosterPaid      bool                `json:"rosterPaid"`
	BaseShare       decimal.Decimal     `json:"baseShare"`
	FixedGain       decimal.NullDecimal `json:"fixedGain"`
	PotentialCredit decimal.Decimal     `json:"potentialCredit"`
	RealCredit      decimal.Decimal     `json:"realCredit"`
}

// AllocationView is the roster with base, pinned and stored credits, for the adjustments screen.
type AllocationView struct {
	BookingID  string                `json:"bookingID"`
	Settled    bool                  `json:"settled"`
	Allocation allocation.Allocation `json:"allocation"`
	Rows       []AllocationRow       `json:"rows"`
}

// RecomputeAllResult summarises a recompute of every booking.
type RecomputeAllResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIDs,omitempty"`
}
