package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

func TestNewPlanner_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.CoolingRate = 1
	_, err := NewPlanner(diplomacy.StandardMap(), cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPlanner_HoldCountKeepsHolds(t *testing.T) {
	m := diplomacy.StandardMap()
	p, err := NewPlanner(m, testConfig(), WithEvaluator("holds", HoldCount))
	require.NoError(t, err)

	gs := diplomacy.NewInitialState()
	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.England, nil)
	require.NoError(t, err)
	require.Equal(t, "holds", plan.Strategy)
	require.Equal(t, holds(gs.UnitsOf(diplomacy.England)), plan.Orders)
	require.Equal(t, 3.0, plan.Score)
	require.Equal(t, plan.BaselineScore, plan.Score)
}

// The search never returns orders scoring below all-hold. Single random
// mutations often do beat all-hold on the opening board, so this pins the
// baseline floor, not that holding is a local optimum.
func TestPlanner_MovementBeatsBaseline(t *testing.T) {
	m := diplomacy.StandardMap()
	cfg := testConfig()
	cfg.Restarts = 2
	p, err := NewPlanner(m, cfg)
	require.NoError(t, err)

	gs := diplomacy.NewInitialState()
	for _, power := range diplomacy.AllPowers() {
		plan, err := p.ComputeOrders(context.Background(), gs, power, nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, plan.Score, plan.BaselineScore, "%s", power)
		require.Len(t, plan.Orders, gs.UnitCount(power))
		for _, o := range plan.Orders {
			require.NoError(t, diplomacy.ValidateOrder(o, gs, m))
		}
		require.Positive(t, plan.Evaluations)
	}
}

func TestPlanner_ProgressIsMonotone(t *testing.T) {
	cfg := testConfig()
	cfg.Restarts = 3
	p, err := NewPlanner(diplomacy.StandardMap(), cfg)
	require.NoError(t, err)

	var seen []float64
	_, err = p.ComputeOrders(context.Background(), diplomacy.NewInitialState(), diplomacy.France, func(f float64) error {
		seen = append(seen, f)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	require.Equal(t, 0.0, seen[0])
	require.Equal(t, 1.0, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		require.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestPlanner_ProgressErrorKeepsIncumbent(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	calls := 0
	stop := errors.New("stop")
	plan, err := p.ComputeOrders(context.Background(), diplomacy.NewInitialState(), diplomacy.Turkey, func(float64) error {
		calls++
		if calls > 20 {
			return stop
		}
		return nil
	})
	require.NoError(t, err)
	require.True(t, plan.Aborted)
	require.Len(t, plan.Orders, 3)
	require.GreaterOrEqual(t, plan.Score, plan.BaselineScore)
}

func TestPlanner_CancelledContext(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gs := diplomacy.NewInitialState()
	plan, err := p.ComputeOrders(ctx, gs, diplomacy.Italy, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, plan.Aborted)
	require.Equal(t, holds(gs.UnitsOf(diplomacy.Italy)), plan.Orders)
}

func TestPlanner_UnknownPhase(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	gs := diplomacy.NewInitialState()
	gs.Phase = "diplomacy"
	_, err = p.ComputeOrders(context.Background(), gs, diplomacy.Italy, nil)
	require.ErrorIs(t, err, ErrUnknownPhase)
}

func TestPlanner_NoUnits(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	plan, err := p.ComputeOrders(context.Background(), board(diplomacy.PhaseMovement, nil), diplomacy.Austria, nil)
	require.NoError(t, err)
	require.NotNil(t, plan.Orders)
	require.Empty(t, plan.Orders)
}

func retreatBoard() *diplomacy.GameState {
	gs := board(diplomacy.PhaseRetreat, nil, army(diplomacy.Germany, "par"), army(diplomacy.Italy, "mar"))
	gs.Dislodged = []diplomacy.DislodgedUnit{
		{Unit: army(diplomacy.France, "par"), DislodgedFrom: "par", AttackerFrom: "bur"},
		{Unit: army(diplomacy.France, "mar"), DislodgedFrom: "mar", AttackerFrom: "pie"},
	}
	return gs
}

func TestPlanner_RetreatIsExhaustive(t *testing.T) {
	m := diplomacy.StandardMap()
	p, err := NewPlanner(m, testConfig())
	require.NoError(t, err)
	gs := retreatBoard()

	var seen []float64
	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.France, func(f float64) error {
		seen = append(seen, f)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1}, seen)

	options := retreatOptions(gs, diplomacy.France, m)
	require.Len(t, options, 2)
	require.Equal(t, len(options[0])*len(options[1]), plan.Evaluations)

	eval := RuleBased(m, p.Importance(), EvalOptions{CrossSupportWeight: 1})(gs, diplomacy.France)
	best := eval([]diplomacy.Order{options[0][0], options[1][0]})
	for _, a := range options[0] {
		for _, b := range options[1] {
			best = max(best, eval([]diplomacy.Order{a, b}))
		}
	}
	require.Equal(t, best, plan.Score)
	for _, o := range plan.Orders {
		require.NoError(t, diplomacy.ValidateOrder(o, gs, m))
		require.Equal(t, diplomacy.OrderRetreat, o.Type, "retreating beats disbanding")
	}
}

func TestPlanner_RetreatWithoutOptions(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	// Every neighbour of bre is occupied or the attacker's origin.
	gs := board(diplomacy.PhaseRetreat, nil,
		fleet(diplomacy.England, "bre"), fleet(diplomacy.England, "mao"),
		army(diplomacy.Germany, "gas"))
	gs.Dislodged = []diplomacy.DislodgedUnit{
		{Unit: fleet(diplomacy.France, "bre"), DislodgedFrom: "bre", AttackerFrom: "eng"},
	}
	gs.Standoffs = []string{"pic"}

	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.France, nil)
	require.NoError(t, err)
	require.Equal(t, []diplomacy.Order{diplomacy.DisbandOrder(fleet(diplomacy.France, "bre"))}, plan.Orders)
	require.Equal(t, 1, plan.Evaluations)
}

func TestPlanner_Builds(t *testing.T) {
	m := diplomacy.StandardMap()
	p, err := NewPlanner(m, testConfig())
	require.NoError(t, err)

	centers := map[string]diplomacy.Power{
		"lon": diplomacy.England, "edi": diplomacy.England, "lvp": diplomacy.England, "nwy": diplomacy.England,
	}
	gs := board(diplomacy.PhaseBuild, centers, army(diplomacy.England, "nwy"))

	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.England, nil)
	require.NoError(t, err)
	// empty set + 3 provinces x 2 branches in sets of one, two and three
	require.Equal(t, 1+6+12+8, plan.Evaluations)
	require.Len(t, plan.Orders, 3)
	provs := map[string]bool{}
	for _, o := range plan.Orders {
		require.Equal(t, diplomacy.OrderBuild, o.Type)
		require.NoError(t, diplomacy.ValidateOrder(o, gs, m))
		provs[o.Location] = true
	}
	require.Len(t, provs, 3)
	require.Greater(t, plan.Score, plan.BaselineScore)
}

func TestPlanner_BuildsLimitedBySites(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	centers := map[string]diplomacy.Power{
		"lon": diplomacy.England, "edi": diplomacy.England, "lvp": diplomacy.England,
		"nwy": diplomacy.England, "bel": diplomacy.England, "hol": diplomacy.England,
	}
	gs := board(diplomacy.PhaseBuild, centers,
		fleet(diplomacy.England, "edi"), army(diplomacy.England, "nwy"), army(diplomacy.England, "bel"))

	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.England, nil)
	require.NoError(t, err)
	require.Equal(t, 3, gs.BuildCount(diplomacy.England))
	require.Len(t, plan.Orders, 2, "only lon and lvp are open")
}

func TestPlanner_Disbands(t *testing.T) {
	m := diplomacy.StandardMap()
	p, err := NewPlanner(m, testConfig())
	require.NoError(t, err)

	centers := map[string]diplomacy.Power{"lon": diplomacy.England, "edi": diplomacy.England, "lvp": diplomacy.England}
	gs := board(diplomacy.PhaseBuild, centers,
		fleet(diplomacy.England, "lon"), fleet(diplomacy.England, "edi"),
		army(diplomacy.England, "lvp"), army(diplomacy.England, "yor"))

	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.England, nil)
	require.NoError(t, err)
	require.Equal(t, 4, plan.Evaluations)
	require.Len(t, plan.Orders, 1)
	require.Equal(t, diplomacy.OrderDisband, plan.Orders[0].Type)
	require.NoError(t, diplomacy.ValidateOrder(plan.Orders[0], gs, m))
}

func TestPlanner_NothingToBuild(t *testing.T) {
	p, err := NewPlanner(diplomacy.StandardMap(), testConfig())
	require.NoError(t, err)

	gs := board(diplomacy.PhaseBuild, map[string]diplomacy.Power{"lon": diplomacy.England}, fleet(diplomacy.England, "lon"))
	plan, err := p.ComputeOrders(context.Background(), gs, diplomacy.England, nil)
	require.NoError(t, err)
	require.Empty(t, plan.Orders)
	require.Equal(t, 1, plan.Evaluations)
}

func TestIterationsFor(t *testing.T) {
	cfg := DefaultSearchConfig()
	require.Equal(t, 125, cfg.iterationsFor(3))
	require.Equal(t, cfg.Iterations, cfg.iterationsFor(17))
	cfg.CandidatesPerUnit = 0
	require.Equal(t, cfg.Iterations, cfg.iterationsFor(3))
}
