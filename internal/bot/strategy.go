package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// Strategy generates the orders of one power for the board's phase.
type Strategy interface {
	Name() string
	ComputeOrders(ctx context.Context, gs *diplomacy.GameState, power diplomacy.Power, progress ProgressFunc) (Plan, error)
}

// StrategyNames lists the names StrategyForName accepts.
var StrategyNames = []string{"anneal", "defensive", "random", "hold"}

// StrategyForName returns the named strategy. A nil imp is computed from
// cfg.
func StrategyForName(name string, m *diplomacy.DiplomacyMap, cfg SearchConfig, imp importance.Table) (Strategy, error) {
	if imp == nil {
		imp = importance.Compute(cfg.ImportanceDepth, m, importance.Normalized(cfg.NormalizeImportance))
	}
	opts := []PlannerOption{WithImportance(imp)}
	evalOpts := EvalOptions{CrossSupportWeight: cfg.CrossSupportWeight, DistanceDiscount: cfg.DistanceDiscount}

	switch name {
	case "anneal", "":
		return NewPlanner(m, cfg, opts...)
	case "defensive":
		return NewPlanner(m, cfg, append(opts, WithEvaluator("defensive", Defensive(m, imp, evalOpts)))...)
	case "random":
		return NewPlanner(m, cfg, append(opts, WithEvaluator("random", RandomScores(cfg.Seed)))...)
	case "hold":
		return HoldStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// --- HoldStrategy ---

// HoldStrategy holds all units, disbands retreating units, and waives
// builds. Required disbands take units in board order.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) ComputeOrders(ctx context.Context, gs *diplomacy.GameState, power diplomacy.Power, progress ProgressFunc) (Plan, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	plan := Plan{Strategy: "hold", Power: power, Phase: gs.Phase, Orders: []diplomacy.Order{}}
	switch gs.Phase {
	case diplomacy.PhaseMovement:
		plan.Orders = holds(gs.UnitsOf(power))
	case diplomacy.PhaseRetreat:
		for _, d := range gs.DislodgedOf(power) {
			plan.Orders = append(plan.Orders, diplomacy.DisbandOrder(d.Unit))
		}
	case diplomacy.PhaseBuild:
		if n := gs.BuildCount(power); n < 0 {
			units := gs.UnitsOf(power)
			for _, u := range units[:min(-n, len(units))] {
				plan.Orders = append(plan.Orders, diplomacy.DisbandOrder(u))
			}
		}
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPhase, gs.Phase)
	}
	if progress != nil {
		if err := progress(1); err != nil {
			plan.Aborted = true
		}
	}
	plan.Duration = time.Since(start)
	return plan, nil
}
