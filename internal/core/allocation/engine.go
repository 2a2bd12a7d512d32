// Package allocation computes how a booking's net proceeds are shared among its roster.
// Everything in this package is pure: no I/O, no clock, no logging.
package allocation

import (
	"sort"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// StructureKey is the reserved allocation key of the association's own share.
const StructureKey = "__structure__"

// BonusRate is the share of net proceeds taken off the top for the bonus member.
var BonusRate = decimal.RequireFromString("0.10")

// RosterEntry is the slice of a participation the engine needs.
type RosterEntry struct {
	ParticipationID string
	MemberID        string
	IsBonus         bool
	IsStructure     bool
	// Retired marks a former structure still on an old roster. It takes no share and is credited 0.
	Retired         bool
	FixedGain       decimal.NullDecimal
}

// Key returns the allocation key the entry is credited under. A retired entry's key is absent
// from every allocation.
func (r RosterEntry) Key() string {
	if r.IsStructure {
		return StructureKey
	}
	return r.MemberID
}

// Basis is the money a booking's allocation is computed from.
type Basis struct {
	Proceeds decimal.NullDecimal
	Expenses decimal.Decimal
}

// BasisOf picks actual proceeds for a settled booking and expected proceeds otherwise.
func BasisOf(b domain.Booking) Basis {
	return Basis{Proceeds: b.Proceeds(), Expenses: b.Expenses}
}

// Allocation is the base distribution of a booking's net proceeds.
type Allocation struct {
	Net            decimal.Decimal            `json:"net"`
	Bonus          decimal.Decimal            `json:"bonus"`
	UnitShare      decimal.Decimal            `json:"unitShare"`
	ShareCount     int                        `json:"shareCount"`
	BonusMemberID  string                     `json:"bonusMemberID,omitempty"`
	Shares         map[string]decimal.Decimal `json:"shares"` // member ID -> share, structure excluded
	StructureShare decimal.Decimal            `json:"structureShare"`
	Skipped        bool                       `json:"skipped"` // no proceeds yet or nothing to share
}

// BonusMemberShare is the bonus member's share including the bonus, or zero without one.
func (a Allocation) BonusMemberShare() decimal.Decimal {
	if a.BonusMemberID == "" {
		return decimal.Zero
	}
	return a.Shares[a.BonusMemberID]
}

// Keyed returns the allocation keyed by member ID plus StructureKey, the keyspace of ApplyOverrides.
func (a Allocation) Keyed() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.Shares)+1)
	for k, v := range a.Shares {
		out[k] = v
	}
	out[StructureKey] = a.StructureShare
	return out
}

// Total is the sum of every share, structure included.
func (a Allocation) Total() decimal.Decimal {
	return sumValues(a.Keyed())
}

// RosterFromParticipations converts roster rows whose Member is loaded into engine input.
// Rows without a loaded member are treated as plain members.
//
// structureID is the member currently holding the structure role. Only its row receives the
// structure share; any other row whose member still carries the role flag is Retired. With an
// empty structureID the first structure-role row on the roster stands in.
func RosterFromParticipations(parts []domain.Participation, structureID string) []RosterEntry {
	if structureID == "" {
		for _, p := range parts {
			if p.Member != nil && p.Member.IsStructureRole {
				structureID = p.MemberID
				break
			}
		}
	}

	roster := make([]RosterEntry, 0, len(parts))
	for _, p := range parts {
		entry := RosterEntry{
			ParticipationID: p.ParticipationID,
			MemberID:        p.MemberID,
			FixedGain:       p.FixedGain,
		}
		if p.Member != nil {
			if p.Member.IsStructureRole {
				entry.IsStructure = p.MemberID == structureID
				entry.Retired = !entry.IsStructure
			} else {
				entry.IsBonus = p.Member.IsBonusRole
			}
		}
		roster = append(roster, entry)
	}
	return roster
}

// ComputeAllocation splits net proceeds: a rounded 10% bonus for the bonus member when present,
// then equal rounded unit shares for every non-structure member plus one for the structure.
// Residual cents from rounding are deliberately left unallocated.
func ComputeAllocation(basis Basis, roster []RosterEntry) Allocation {
	members := make([]string, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	bonusMemberID := ""
	for _, r := range roster {
		if r.IsStructure || r.Retired || seen[r.MemberID] {
			continue
		}
		seen[r.MemberID] = true
		members = append(members, r.MemberID)
		if r.IsBonus && bonusMemberID == "" {
			bonusMemberID = r.MemberID
		}
	}

	alloc := Allocation{
		Shares:         make(map[string]decimal.Decimal, len(members)),
		Net:            decimal.Zero,
		Bonus:          decimal.Zero,
		UnitShare:      decimal.Zero,
		StructureShare: decimal.Zero,
		ShareCount:     len(members) + 1,
	}
	for _, id := range members {
		alloc.Shares[id] = decimal.Zero
	}

	if len(roster) == 0 || !basis.Proceeds.Valid {
		alloc.Skipped = true
		return alloc
	}
	net := basis.Proceeds.Decimal.Sub(basis.Expenses)
	if !net.IsPositive() {
		alloc.Skipped = true
		return alloc
	}
	alloc.Net = net

	if bonusMemberID != "" {
		alloc.Bonus = accounting.RoundMoney(net.Mul(BonusRate))
		alloc.BonusMemberID = bonusMemberID
	}
	remainder := net.Sub(alloc.Bonus)
	alloc.UnitShare = accounting.RoundMoney(remainder.Div(decimal.NewFromInt(int64(alloc.ShareCount))))

	for _, id := range members {
		share := alloc.UnitShare
		if id == bonusMemberID {
			share = share.Add(alloc.Bonus)
		}
		alloc.Shares[id] = share
	}
	alloc.StructureShare = alloc.UnitShare
	return alloc
}

func sumValues(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
