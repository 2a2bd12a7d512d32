package allocation_test

import (
	"math/rand"
	"testing"

	"github.com/asso7/concert_ledger/internal/apperrors"
	"github.com/asso7/concert_ledger/internal/core/allocation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioOneBase() map[string]decimal.Decimal {
	return allocation.ComputeAllocation(
		allocation.Basis{Proceeds: proceeds("300.00")},
		[]allocation.RosterEntry{memberA, memberB, bonus, structure},
	).Keyed()
}

func sum(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

func TestApplyOverrides_PinRedistributesProportionally(t *testing.T) {
	base := scenarioOneBase()

	final, err := allocation.ApplyOverrides(base, map[string]decimal.Decimal{"m-a": dec("100.00")})

	require.NoError(t, err)
	assertDec(t, "100.00", final["m-a"], "pinned")
	assertDec(t, "58.06", final["m-b"], "m-b")
	assertDec(t, "83.87", final["m-bonus"], "bonus member")
	// 58.06 plus the residual cent that keeps the total exact
	assertDec(t, "58.07", final[allocation.StructureKey], "structure")
	assertDec(t, "300.00", sum(final), "total")
}

func TestApplyOverrides_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]decimal.Decimal
		pins    map[string]decimal.Decimal
		wantErr error
	}{
		{
			name:    "pins exceed total",
			base:    scenarioOneBase(),
			pins:    map[string]decimal.Decimal{"m-a": dec("310.00")},
			wantErr: allocation.ErrPinsExceedTotal,
		},
		{
			name:    "several pins exceed total together",
			base:    scenarioOneBase(),
			pins:    map[string]decimal.Decimal{"m-a": dec("200"), "m-b": dec("100.01")},
			wantErr: allocation.ErrPinsExceedTotal,
		},
		{
			name:    "negative pin",
			base:    scenarioOneBase(),
			pins:    map[string]decimal.Decimal{"m-a": dec("-1")},
			wantErr: allocation.ErrNegativePin,
		},
		{
			name:    "every key pinned below the total",
			base:    map[string]decimal.Decimal{"m-a": dec("50"), allocation.StructureKey: dec("50")},
			pins:    map[string]decimal.Decimal{"m-a": dec("30"), allocation.StructureKey: dec("30")},
			wantErr: allocation.ErrAllPinnedMismatch,
		},
		{
			name:    "positive pin on a skipped allocation",
			base:    map[string]decimal.Decimal{"m-a": decimal.Zero, allocation.StructureKey: decimal.Zero},
			pins:    map[string]decimal.Decimal{"m-a": dec("5")},
			wantErr: allocation.ErrPinsExceedTotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := make(map[string]decimal.Decimal, len(tt.base))
			for k, v := range tt.base {
				before[k] = v
			}

			final, err := allocation.ApplyOverrides(tt.base, tt.pins)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Nil(t, final)
			assert.Equal(t, before, tt.base)
		})
	}
}

func TestApplyOverrides_EdgeCases(t *testing.T) {
	t.Run("structure absorbs remainder when unpinned weights are zero", func(t *testing.T) {
		base := map[string]decimal.Decimal{"m-a": dec("100"), "m-b": decimal.Zero, allocation.StructureKey: decimal.Zero}

		final, err := allocation.ApplyOverrides(base, map[string]decimal.Decimal{"m-a": dec("40")})

		require.NoError(t, err)
		assertDec(t, "40", final["m-a"])
		assertDec(t, "0", final["m-b"])
		assertDec(t, "60", final[allocation.StructureKey])
	})

	t.Run("first unpinned key sinks when the structure is pinned", func(t *testing.T) {
		base := map[string]decimal.Decimal{"m-a": dec("100"), "m-b": decimal.Zero, allocation.StructureKey: decimal.Zero}

		final, err := allocation.ApplyOverrides(base, map[string]decimal.Decimal{"m-a": dec("40"), allocation.StructureKey: dec("10")})

		require.NoError(t, err)
		assertDec(t, "50", final["m-b"])
		assertDec(t, "100", sum(final))
	})

	t.Run("every key pinned to exactly the total", func(t *testing.T) {
		base := map[string]decimal.Decimal{"m-a": dec("50"), allocation.StructureKey: dec("50")}

		final, err := allocation.ApplyOverrides(base, map[string]decimal.Decimal{"m-a": dec("40"), allocation.StructureKey: dec("60")})

		require.NoError(t, err)
		assertDec(t, "40", final["m-a"])
		assertDec(t, "60", final[allocation.StructureKey])
	})

	t.Run("pin on an unknown key is ignored", func(t *testing.T) {
		base := scenarioOneBase()

		final, err := allocation.ApplyOverrides(base, map[string]decimal.Decimal{"ghost": dec("500")})

		require.NoError(t, err)
		for k, v := range base {
			assertDec(t, v.String(), final[k], k)
		}
		assert.NotContains(t, final, "ghost")
	})

	t.Run("one member pinned at the whole total", func(t *testing.T) {
		final, err := allocation.ApplyOverrides(scenarioOneBase(), map[string]decimal.Decimal{"m-bonus": dec("300")})

		require.NoError(t, err)
		assertDec(t, "300", final["m-bonus"])
		assertDec(t, "0", final["m-a"])
		assertDec(t, "0", final[allocation.StructureKey])
	})

	t.Run("no pins keeps the base", func(t *testing.T) {
		base := scenarioOneBase()

		final, err := allocation.ApplyOverrides(base, nil)

		require.NoError(t, err)
		assert.Equal(t, len(base), len(final))
		assertDec(t, "300", sum(final))
	})
}

func TestApplyOverrides_ConservationAndFidelity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := rng.Intn(8) + 1
		roster := []allocation.RosterEntry{structure}
		for j := 0; j < n; j++ {
			roster = append(roster, allocation.RosterEntry{
				ParticipationID: string(rune('a' + j)),
				MemberID:        string(rune('A' + j)),
				IsBonus:         j == 0 && rng.Intn(2) == 0,
			})
		}
		base := allocation.ComputeAllocation(allocation.Basis{Proceeds: decimal.NewNullDecimal(decimal.New(rng.Int63n(300000)+100, -2))}, roster).Keyed()
		total := sum(base)

		pins := map[string]decimal.Decimal{}
		budget := total
		for k := range base {
			if rng.Intn(3) != 0 || k == allocation.StructureKey {
				continue
			}
			pin := decimal.New(rng.Int63n(budget.Shift(2).IntPart()+1), -2)
			pins[k] = pin
			budget = budget.Sub(pin)
		}

		final, err := allocation.ApplyOverrides(base, pins)

		require.NoError(t, err)
		assert.Truef(t, sum(final).Equal(total), "sum %s != base total %s (pins %v)", sum(final), total, pins)
		for k, pin := range pins {
			assert.Truef(t, final[k].Equal(pin), "pin %s: want %s got %s", k, pin, final[k])
		}
		for k, v := range final {
			assert.Falsef(t, v.IsNegative(), "%s went negative: %s", k, v)
		}
	}
}

func TestResolvePins(t *testing.T) {
	roster := []allocation.RosterEntry{memberA, bonus, structure}

	t.Run("maps participations onto allocation keys", func(t *testing.T) {
		resolved, cleared, err := allocation.ResolvePins(roster, map[string]decimal.NullDecimal{
			"p-a":     proceeds("33.335"),
			"p-asso":  proceeds("10"),
			"p-bonus": {},
		})

		require.NoError(t, err)
		assertDec(t, "33.34", resolved["m-a"])
		assertDec(t, "10", resolved[allocation.StructureKey])
		assert.NotContains(t, resolved, "m-bonus")
		assert.Equal(t, []string{"p-bonus"}, cleared)
	})

	t.Run("unknown participation", func(t *testing.T) {
		_, _, err := allocation.ResolvePins(roster, map[string]decimal.NullDecimal{"p-ghost": proceeds("1")})
		assert.ErrorIs(t, err, allocation.ErrUnknownParticipation)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("negative pin", func(t *testing.T) {
		_, _, err := allocation.ResolvePins(roster, map[string]decimal.NullDecimal{"p-a": proceeds("-0.01")})
		assert.ErrorIs(t, err, allocation.ErrNegativePin)
	})

	t.Run("stored pins", func(t *testing.T) {
		withPins := []allocation.RosterEntry{memberA, structure}
		withPins[0].FixedGain = proceeds("25")
		withPins[1].FixedGain = proceeds("5")

		pins := allocation.StoredPins(withPins)

		assert.Len(t, pins, 2)
		assertDec(t, "25", pins["m-a"])
		assertDec(t, "5", pins[allocation.StructureKey])
	})
}
