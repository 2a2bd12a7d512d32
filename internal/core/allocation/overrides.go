package allocation

import (
	"fmt"
	"sort"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

var (
	// ErrPinsExceedTotal is returned when the pinned amounts add up to more than the base total.
	ErrPinsExceedTotal = fmt.Errorf("%w: pinned amounts exceed the total to share", apperrors.ErrValidation)
	// ErrNegativePin is returned for a pin below zero.
	ErrNegativePin = fmt.Errorf("%w: pinned amount must not be negative", apperrors.ErrValidation)
	// ErrUnknownParticipation is returned for a pin on a participation missing from the roster.
	ErrUnknownParticipation = fmt.Errorf("%w: pin references a participation not on the roster", apperrors.ErrValidation)
	// ErrRetiredParticipation is returned for a pin on a former structure, which takes no share.
	ErrRetiredParticipation = fmt.Errorf("%w: pin references a former structure that takes no share", apperrors.ErrValidation)
	// ErrAllPinnedMismatch is returned when no share is left unpinned to absorb the remainder.
	ErrAllPinnedMismatch = fmt.Errorf("%w: every share is pinned but pins do not add up to the total", apperrors.ErrValidation)
)

// pinEpsilon tolerates representation noise when comparing pins against the total.
var pinEpsilon = decimal.New(1, -6)

// ResolvePins maps pins keyed by participation ID onto allocation keys. A null pin clears the
// participation's override and is reported in cleared instead of the returned map.
func ResolvePins(roster []RosterEntry, pins map[string]decimal.NullDecimal) (map[string]decimal.Decimal, []string, error) {
	byParticipation := make(map[string]RosterEntry, len(roster))
	for _, r := range roster {
		byParticipation[r.ParticipationID] = r
	}

	ids := make([]string, 0, len(pins))
	for id := range pins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resolved := make(map[string]decimal.Decimal, len(pins))
	var cleared []string
	for _, id := range ids {
		entry, ok := byParticipation[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownParticipation, id)
		}
		pin := pins[id]
		if !pin.Valid {
			cleared = append(cleared, id)
			continue
		}
		if entry.Retired {
			return nil, nil, fmt.Errorf("%w: %s", ErrRetiredParticipation, id)
		}
		if pin.Decimal.IsNegative() {
			return nil, nil, fmt.Errorf("%w: participation %s pinned at %s", ErrNegativePin, id, pin.Decimal.String())
		}
		resolved[entry.Key()] = accounting.RoundMoney(pin.Decimal)
	}
	return resolved, cleared, nil
}

// StoredPins returns the pins currently persisted on the roster, keyed by allocation key.
func StoredPins(roster []RosterEntry) map[string]decimal.Decimal {
	pins := make(map[string]decimal.Decimal)
	for _, r := range roster {
		if r.FixedGain.Valid && !r.Retired {
			pins[r.Key()] = accounting.RoundMoney(r.FixedGain.Decimal)
		}
	}
	return pins
}

// ApplyOverrides pins the given keys to fixed amounts and redistributes what is left of the base
// total over the unpinned keys in proportion to their base shares. The result always sums to the
// base total exactly: rounding residue lands on the structure share when it is unpinned.
func ApplyOverrides(base map[string]decimal.Decimal, pins map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	for k, v := range pins {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: key %s pinned at %s", ErrNegativePin, k, v.String())
		}
	}

	total := sumValues(base)
	keys := sortedKeys(base)

	pinnedSum := decimal.Zero
	var unpinned []string
	final := make(map[string]decimal.Decimal, len(base))
	for _, k := range keys {
		pin, ok := pins[k]
		if !ok {
			unpinned = append(unpinned, k)
			continue
		}
		pin = accounting.RoundMoney(pin)
		final[k] = pin
		pinnedSum = pinnedSum.Add(pin)
	}

	if pinnedSum.GreaterThan(total.Add(pinEpsilon)) {
		return nil, fmt.Errorf("%w: pinned %s, total %s", ErrPinsExceedTotal, pinnedSum.String(), total.String())
	}
	remainder := total.Sub(pinnedSum)

	if len(unpinned) == 0 {
		if !remainder.IsZero() {
			return nil, fmt.Errorf("%w: pinned %s, total %s", ErrAllPinnedMismatch, pinnedSum.String(), total.String())
		}
		return final, nil
	}

	sink := unpinned[0]
	unpinnedBaseSum := decimal.Zero
	for _, k := range unpinned {
		if k == StructureKey {
			sink = k
		}
		unpinnedBaseSum = unpinnedBaseSum.Add(base[k])
	}

	if !unpinnedBaseSum.IsPositive() {
		for _, k := range unpinned {
			final[k] = decimal.Zero
		}
		final[sink] = accounting.RoundMoney(remainder)
	} else {
		for _, k := range unpinned {
			final[k] = accounting.RoundMoney(remainder.Mul(base[k]).Div(unpinnedBaseSum))
		}
	}

	residual := total.Sub(sumValues(final))
	switch {
	case residual.IsPositive():
		final[sink] = final[sink].Add(residual)
	case residual.IsNegative():
		absorbDeficit(final, sink, unpinned, residual.Neg())
	}
	return final, nil
}

// absorbDeficit removes a rounding overshoot from the sink first, then from the largest unpinned
// shares, never taking a share below zero.
func absorbDeficit(final map[string]decimal.Decimal, sink string, unpinned []string, deficit decimal.Decimal) {
	order := make([]string, 0, len(unpinned))
	for _, k := range unpinned {
		if k != sink {
			order = append(order, k)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return final[order[i]].GreaterThan(final[order[j]])
	})
	order = append([]string{sink}, order...)

	for _, k := range order {
		if !deficit.IsPositive() {
			return
		}
		take := decimal.Min(final[k], deficit)
		final[k] = final[k].Sub(take)
		deficit = deficit.Sub(take)
	}
}
