package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MemberKind distinguishes people from non-human ledger participants.
type MemberKind string

const (
	MemberKindPerson    MemberKind = "person"
	MemberKindStructure MemberKind = "structure"
)

// MemberRole names a role flag that at most one active member may hold.
type MemberRole string

const (
	RoleBonus     MemberRole = "bonus"
	RoleStructure MemberRole = "structure"
)

// Member is a person or structure that can sit on a roster and hold ledger entries.
type Member struct {
	MemberID        string     `json:"memberID"`
	Name            string     `json:"name"`
	Kind            MemberKind `json:"kind"`
	IsActive        bool       `json:"isActive"`
	IsBonusRole     bool       `json:"isBonusRole"`     // receives the off-the-top bonus when on a roster
	IsStructureRole bool       `json:"isStructureRole"` // the association's own account, always one share
	IsPaymentMethod bool       `json:"isPaymentMethod"` // bank or cash structure that receives proceeds
	AuditFields
}

// IsStructure reports whether the member is a non-human participant.
func (m Member) IsStructure() bool {
	return m.Kind == MemberKindStructure
}

// HasRole reports whether the member carries the given role flag.
func (m Member) HasRole(role MemberRole) bool {
	switch role {
	case RoleBonus:
		return m.IsBonusRole
	case RoleStructure:
		return m.IsStructureRole
	}
	return false
}

// ValidKind reports whether k is a known member kind.
func ValidKind(k MemberKind) bool {
	return k == MemberKindPerson || k == MemberKindStructure
}

// NormalizeMemberName trims, collapses inner whitespace and NFC-normalises a display name
// so that "Zoé" typed on two different keyboards is stored identically.
func NormalizeMemberName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
