package bot

import (
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

func army(p diplomacy.Power, prov string) diplomacy.Unit {
	return diplomacy.Unit{Type: diplomacy.Army, Power: p, Province: prov}
}

func fleet(p diplomacy.Power, prov string) diplomacy.Unit {
	return diplomacy.Unit{Type: diplomacy.Fleet, Power: p, Province: prov}
}

func board(phase diplomacy.PhaseType, centers map[string]diplomacy.Power, units ...diplomacy.Unit) *diplomacy.GameState {
	if centers == nil {
		centers = map[string]diplomacy.Power{}
	}
	return &diplomacy.GameState{
		Year:          1901,
		Season:        diplomacy.Fall,
		Phase:         phase,
		Units:         units,
		SupplyCenters: centers,
	}
}

func testConfig() SearchConfig {
	cfg := DefaultSearchConfig()
	cfg.Iterations = 300
	cfg.Seed = 7
	return cfg
}

// only weights a single province.
func only(prov string) map[string]float64 {
	return map[string]float64{prov: 1}
}
