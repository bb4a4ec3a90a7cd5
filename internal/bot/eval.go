package bot

import (
	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// Evaluator scores an order assignment for the power under search. Higher
// is better. Evaluators are pure functions of the assignment.
type Evaluator func(orders []diplomacy.Order) float64

// EvaluatorFactory builds the evaluator of one search. Per-board
// precomputation happens here, once, not per call.
type EvaluatorFactory func(gs *diplomacy.GameState, power diplomacy.Power) Evaluator

// EvalOptions tunes the heuristic evaluators.
type EvalOptions struct {
	CrossSupportWeight float64
	DistanceDiscount   bool
}

// weights returns the per-province value used by every phase evaluator:
// importance, optionally discounted by distance to the enemy.
func weights(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap, imp importance.Table, discount bool) map[string]float64 {
	w := make(map[string]float64, len(m.Provinces))
	var dist map[string]int
	if discount {
		dist = enemyDistances(gs, power, m)
	}
	for _, id := range m.ProvinceIDs() {
		v := imp.Of(id)
		if discount {
			v *= discountFactor(dist[id])
		}
		w[id] = v
	}
	return w
}

// RuleBased returns the evaluator factory of the annealing planner.
// Movement boards are scored by contested-territory resolution, retreat and
// build boards by the importance of the territory gained or given up.
func RuleBased(m *diplomacy.DiplomacyMap, imp importance.Table, opts EvalOptions) EvaluatorFactory {
	return func(gs *diplomacy.GameState, power diplomacy.Power) Evaluator {
		w := weights(gs, power, m, imp, opts.DistanceDiscount)
		switch gs.Phase {
		case diplomacy.PhaseRetreat:
			return retreatEvaluator(w)
		case diplomacy.PhaseBuild:
			return buildEvaluator(m, w)
		default:
			return newClaimBoard(gs, power, m, w, opts.CrossSupportWeight).evaluate
		}
	}
}

func retreatEvaluator(w map[string]float64) Evaluator {
	return func(orders []diplomacy.Order) float64 {
		score := 0.0
		for _, o := range orders {
			switch o.Type {
			case diplomacy.OrderRetreat:
				score += w[o.Target]
			case diplomacy.OrderDisband:
				score -= w[o.Location]
			}
		}
		return score
	}
}

func buildEvaluator(m *diplomacy.DiplomacyMap, w map[string]float64) Evaluator {
	return func(orders []diplomacy.Order) float64 {
		score := 0.0
		for _, o := range orders {
			switch o.Type {
			case diplomacy.OrderBuild:
				score += w[o.Location]
				for _, n := range m.ProvincesAdjacentTo(o.Location, o.Coast, o.UnitType == diplomacy.Fleet) {
					score += w[n]
				}
			case diplomacy.OrderDisband:
				score -= w[o.Location]
			}
		}
		return score
	}
}

// Defensive returns a factory favouring orders that keep valuable ground:
// each unit scores the territory it ends on, and supports of a unit that
// stays put also score the supported territory. Retreat and build boards
// use the rule-based scoring.
func Defensive(m *diplomacy.DiplomacyMap, imp importance.Table, opts EvalOptions) EvaluatorFactory {
	base := RuleBased(m, imp, opts)
	return func(gs *diplomacy.GameState, power diplomacy.Power) Evaluator {
		if gs.Phase != diplomacy.PhaseMovement {
			return base(gs, power)
		}
		w := weights(gs, power, m, imp, opts.DistanceDiscount)
		return func(orders []diplomacy.Order) float64 {
			staying := make(map[string]bool, len(orders))
			for _, o := range orders {
				if o.Type != diplomacy.OrderMove {
					staying[o.Location] = true
				}
			}
			score := 0.0
			for _, o := range orders {
				switch o.Type {
				case diplomacy.OrderSupport:
					score += w[o.Location]
					if o.AuxTarget == "" && staying[o.AuxLoc] {
						score += w[o.AuxLoc]
					}
				case diplomacy.OrderMove:
					score += w[o.Target]
				default:
					score += w[o.Location]
				}
			}
			return score
		}
	}
}

// RandomScores returns a factory whose evaluators ignore the orders and
// return uniform noise. Searching with it yields random legal orders.
func RandomScores(seed int64) EvaluatorFactory {
	return func(*diplomacy.GameState, diplomacy.Power) Evaluator {
		rng := newRng(seed)
		return func([]diplomacy.Order) float64 { return rng.Float64() }
	}
}

// HoldCount scores an assignment by its number of holds.
func HoldCount(*diplomacy.GameState, diplomacy.Power) Evaluator {
	return func(orders []diplomacy.Order) float64 {
		n := 0
		for _, o := range orders {
			if o.Type == diplomacy.OrderHold {
				n++
			}
		}
		return float64(n)
	}
}
