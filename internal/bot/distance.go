package bot

import (
	"math"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// unreachable is the distance of provinces no source can reach.
const unreachable = math.MaxInt32

// enemyDistances returns, for every province, the number of steps to the
// nearest province holding another power's unit or a supply center owned by
// another great power. Steps follow army and fleet adjacencies alike.
func enemyDistances(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap) map[string]int {
	sources := make(map[string]bool)
	for _, u := range gs.Units {
		if u.Power != power {
			sources[u.Province] = true
		}
	}
	for prov, owner := range gs.SupplyCenters {
		if owner != power && owner != diplomacy.Neutral {
			sources[prov] = true
		}
	}

	type key struct {
		prov   string
		budget int
	}
	memo := make(map[key]int)
	// dist is the shortest distance from prov using at most budget steps.
	// The shrinking budget bounds the recursion on a cyclic graph.
	var dist func(prov string, budget int) int
	dist = func(prov string, budget int) int {
		if sources[prov] {
			return 0
		}
		if budget == 0 {
			return unreachable
		}
		k := key{prov, budget}
		if d, ok := memo[k]; ok {
			return d
		}
		best := unreachable
		for _, n := range m.MovableProvinces(prov) {
			if d := dist(n, budget-1); d != unreachable && d+1 < best {
				best = d + 1
			}
		}
		memo[k] = best
		return best
	}

	out := make(map[string]int, len(m.Provinces))
	if len(sources) == 0 {
		for _, id := range m.ProvinceIDs() {
			out[id] = unreachable
		}
		return out
	}
	for _, id := range m.ProvinceIDs() {
		out[id] = dist(id, len(m.Provinces))
	}
	return out
}

// discountFactor is 0.5^d, 0 for unreachable provinces.
func discountFactor(d int) float64 {
	if d == unreachable {
		return 0
	}
	return math.Pow(0.5, float64(d))
}
