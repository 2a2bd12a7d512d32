package dto

import (
	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest defines a manual ledger entry, optionally mirrored on an offset member.
type CreateEntryRequest struct {
	MemberID       string                `json:"memberID" binding:"required"`
	Direction      domain.EntryDirection `json:"direction" binding:"required,oneof=credit debit"`
	Motive         string                `json:"motive" binding:"required"`
	Details        string                `json:"details"`
	Amount         decimal.Decimal       `json:"amount" binding:"money"`
	Date           *Date                 `json:"date" binding:"required"`
	BookingID      *string               `json:"bookingID"`
	OffsetMemberID *string               `json:"offsetMemberID"`
}

// UpdateEntryRequest edits a manual entry in place. Pointers distinguish omitted fields from
// zero values; an empty BookingID unlinks the entry from its booking. The shared fields are
// mirrored onto the offset pair.
type UpdateEntryRequest struct {
	MemberID  *string                `json:"memberID"`
	Direction *domain.EntryDirection `json:"direction" binding:"omitempty,oneof=credit debit"`
	Motive    *string                `json:"motive"`
	Details   *string                `json:"details"`
	Amount    *decimal.Decimal       `json:"amount" binding:"omitempty,money"`
	Date      *Date                  `json:"date"`
	BookingID *string                `json:"bookingID"`
}

// ListEntriesParams defines query parameters for listing a member's entries.
type ListEntriesParams struct {
	MemberID  string  `form:"memberID" binding:"required"`
	Limit     int     `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// EntryResponse defines the data returned for a ledger entry.
type EntryResponse struct {
	EntryID       string                `json:"entryID"`
	MemberID      string                `json:"memberID"`
	Direction     domain.EntryDirection `json:"direction"`
	Motive        string                `json:"motive"`
	Details       string                `json:"details"`
	Amount        decimal.Decimal       `json:"amount"`
	Date          Date                  `json:"date"`
	BookingID     *string               `json:"bookingID,omitempty"`
	PairedEntryID *string               `json:"pairedEntryID,omitempty"`
	Provisional   bool                  `json:"provisional"`
	Source        domain.EntrySource    `json:"source"`
	CreatedBy     string                `json:"createdBy"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain.LedgerEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:       e.EntryID,
		MemberID:      e.MemberID,
		Direction:     e.Direction,
		Motive:        e.Motive,
		Details:       e.Details,
		Amount:        e.Amount,
		Date:          NewDate(e.EntryDate),
		BookingID:     e.BookingID,
		PairedEntryID: e.PairedEntryID,
		Provisional:   e.Provisional,
		Source:        e.Source,
		CreatedBy:     e.CreatedBy,
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.LedgerEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}
