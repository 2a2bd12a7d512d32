package dto

import (
	"time"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateMemberRequest defines the data needed to create a member.
type CreateMemberRequest struct {
	Name            string            `json:"name" binding:"required" yaml:"name"`
	Kind            domain.MemberKind `json:"kind" binding:"required,oneof=person structure" yaml:"kind"`
	IsBonusRole     bool              `json:"isBonusRole" yaml:"bonus"`
	IsStructureRole bool              `json:"isStructureRole" yaml:"structure"`
	IsPaymentMethod bool              `json:"isPaymentMethod" yaml:"paymentMethod"`
}

// UpdateMemberRequest defines the data allowed for updating a member.
// Pointers distinguish omitted fields from zero values.
type UpdateMemberRequest struct {
	Name            *string `json:"name"`
	IsActive        *bool   `json:"isActive"`
	IsBonusRole     *bool   `json:"isBonusRole"`
	IsStructureRole *bool   `json:"isStructureRole"`
	IsPaymentMethod *bool   `json:"isPaymentMethod"`
}

// SetCarryoverRequest sets a member's starting balance. Negative amounts are debts.
type SetCarryoverRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"signedmoney"`
}

// ListMembersParams defines query parameters for listing members.
type ListMembersParams struct {
	IncludeInactive bool `form:"includeInactive"`
}

// MemberResponse defines the data returned for a member.
type MemberResponse struct {
	MemberID        string            `json:"memberID"`
	Name            string            `json:"name"`
	Kind            domain.MemberKind `json:"kind"`
	IsActive        bool              `json:"isActive"`
	IsBonusRole     bool              `json:"isBonusRole"`
	IsStructureRole bool              `json:"isStructureRole"`
	IsPaymentMethod bool              `json:"isPaymentMethod"`
	CreatedAt       time.Time         `json:"createdAt"`
	CreatedBy       string            `json:"createdBy"`
	LastUpdatedAt   time.Time         `json:"lastUpdatedAt"`
	LastUpdatedBy   string            `json:"lastUpdatedBy"`
}

// ListMembersResponse wraps the list of members.
type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

// ToMemberResponse converts a domain.Member to MemberResponse DTO.
func ToMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		MemberID:        m.MemberID,
		Name:            m.Name,
		Kind:            m.Kind,
		IsActive:        m.IsActive,
		IsBonusRole:     m.IsBonusRole,
		IsStructureRole: m.IsStructureRole,
		IsPaymentMethod: m.IsPaymentMethod,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
		LastUpdatedAt:   m.LastUpdatedAt,
		LastUpdatedBy:   m.LastUpdatedBy,
	}
}

// ToListMembersResponse converts a slice of domain.Member to ListMembersResponse DTO.
func ToListMembersResponse(members []domain.Member) ListMembersResponse {
	responses := make([]MemberResponse, len(members))
	for i := range members {
		responses[i] = ToMemberResponse(&members[i])
	}
	return ListMembersResponse{Members: responses}
}
