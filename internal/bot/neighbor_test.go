package bot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

func TestNeighbors_SingleLegalChange(t *testing.T) {
	m := diplomacy.StandardMap()
	gs := diplomacy.NewInitialState()
	gen := newNeighbors(gs, diplomacy.England, m, newRng(3))
	base := holds(gs.UnitsOf(diplomacy.England))
	snapshot := append([]diplomacy.Order(nil), base...)

	for i := 0; i < 100; i++ {
		next, ok := gen.Next(base)
		require.True(t, ok)
		require.Len(t, next, len(base))

		changed, holdsLeft := 0, 0
		for j := range next {
			if next[j] != base[j] {
				changed++
				require.NoError(t, diplomacy.ValidateOrder(next[j], gs, m))
				require.Equal(t, base[j].Unit(), next[j].Unit(), "mutation keeps the issuing unit")
			}
			if next[j].Type == diplomacy.OrderHold {
				holdsLeft++
			}
		}
		require.Equal(t, 1, changed)
		require.Equal(t, len(base)-1, holdsLeft)
	}
	require.Equal(t, snapshot, base, "input must not be mutated")
}

func TestNeighbors_RandomWalkStaysLegal(t *testing.T) {
	m := diplomacy.StandardMap()
	gs := diplomacy.NewInitialState()
	for _, power := range diplomacy.AllPowers() {
		gen := newNeighbors(gs, power, m, newRng(11))
		cur := holds(gs.UnitsOf(power))
		for i := 0; i < 200; i++ {
			next, ok := gen.Next(cur)
			require.True(t, ok)
			cur = next
		}
		for _, o := range cur {
			require.NoError(t, diplomacy.ValidateOrder(o, gs, m), "%s", power)
		}
	}
}

func TestNeighbors_ConvoyCandidates(t *testing.T) {
	m := diplomacy.StandardMap()
	nth, yor := fleet(diplomacy.England, "nth"), army(diplomacy.England, "yor")
	bel := army(diplomacy.France, "bel")
	gs := board(diplomacy.PhaseMovement, nil, nth, yor, bel)
	gen := newNeighbors(gs, diplomacy.England, m, newRng(1))
	orders := []diplomacy.Order{
		diplomacy.HoldOrder(nth),
		diplomacy.MoveOrder(yor, diplomacy.Location{Province: "nwy"}),
	}

	cands := gen.convoyCandidates(orders, 0)
	require.Contains(t, cands, diplomacy.ConvoyOrder(nth, yor, "nwy"))
	require.Contains(t, cands, diplomacy.ConvoyOrder(nth, bel, "edi"))
	for _, o := range cands {
		require.NoError(t, diplomacy.ValidateOrder(o, gs, m))
	}
}

func TestNeighbors_SupportBias(t *testing.T) {
	m := diplomacy.StandardMap()
	par, mar, gas := army(diplomacy.France, "par"), army(diplomacy.France, "mar"), army(diplomacy.France, "gas")
	gs := board(diplomacy.PhaseMovement, nil, par, mar, gas)
	gen := newNeighbors(gs, diplomacy.France, m, newRng(1))
	current := diplomacy.SupportMoveOrder(mar, par, "bur")
	orders := []diplomacy.Order{
		diplomacy.MoveOrder(par, diplomacy.Location{Province: "bur"}),
		current,
		diplomacy.MoveOrder(gas, diplomacy.Location{Province: "bur"}),
	}

	cands := gen.supportCandidates(orders, 1)
	require.NotEmpty(t, cands)
	require.NotContains(t, cands, current)
	for _, o := range cands {
		require.True(t, o.AuxLoc == "par" || auxDestination(o) == "bur", o.Describe())
	}
	require.Contains(t, cands, diplomacy.SupportMoveOrder(mar, gas, "bur"))
}

func TestNeighbors_Exhausted(t *testing.T) {
	m := diplomacy.StandardMap()
	gen := newNeighbors(board(diplomacy.PhaseMovement, nil), diplomacy.England, m, newRng(1))
	next, ok := gen.Next(nil)
	require.False(t, ok)
	require.Nil(t, next)
}
