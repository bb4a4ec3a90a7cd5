package bot

import (
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// incumbent tracks the best full combination seen by an exhaustive search.
type incumbent struct {
	eval  Evaluator
	best  []diplomacy.Order
	score float64
	seen  bool
	evals int
}

func newIncumbent(eval Evaluator) *incumbent {
	return &incumbent{eval: eval}
}

// offer scores orders and keeps a copy when it strictly beats the best.
func (inc *incumbent) offer(orders []diplomacy.Order) {
	s := inc.eval(orders)
	inc.evals++
	if !inc.seen || s > inc.score {
		inc.best = append([]diplomacy.Order{}, orders...)
		inc.score = s
		inc.seen = true
	}
}

// product enumerates one choice per slot depth first, offering every full
// assignment.
func product(options [][]diplomacy.Order, inc *incumbent) {
	cur := make([]diplomacy.Order, len(options))
	var walk func(i int)
	walk = func(i int) {
		if i == len(options) {
			inc.offer(cur)
			return
		}
		for _, o := range options[i] {
			cur[i] = o
			walk(i + 1)
		}
	}
	walk(0)
}

// combinations calls fn with every k-subset of indices [0,n) in
// lexicographic order. The slice passed to fn is reused.
func combinations(n, k int, fn func(idx []int)) {
	if k < 0 || k > n {
		return
	}
	idx := make([]int, k)
	var walk func(pos, start int)
	walk = func(pos, start int) {
		if pos == k {
			fn(idx)
			return
		}
		for i := start; i <= n-(k-pos); i++ {
			idx[pos] = i
			walk(pos+1, i+1)
		}
	}
	walk(0, 0)
}

// retreatOptions lists Disband plus every legal retreat for each dislodged
// unit of power.
func retreatOptions(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap) [][]diplomacy.Order {
	var out [][]diplomacy.Order
	for _, d := range gs.DislodgedOf(power) {
		opts := []diplomacy.Order{diplomacy.DisbandOrder(d.Unit)}
		for _, l := range gs.RetreatDestinations(d, m) {
			opts = append(opts, diplomacy.RetreatOrder(d.Unit, l))
		}
		out = append(out, opts)
	}
	return out
}

// buildSites groups the build sites of power by province, since at most
// one unit can be built per province.
func buildSites(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap) [][]diplomacy.Order {
	var provs []string
	byProv := make(map[string][]diplomacy.Order)
	for _, site := range gs.BuildSites(power, m) {
		p := site.Location.Province
		if _, ok := byProv[p]; !ok {
			provs = append(provs, p)
		}
		for _, b := range site.Branches {
			u := diplomacy.Unit{Type: b, Power: power, Province: p, Coast: site.Location.Coast}
			byProv[p] = append(byProv[p], diplomacy.BuildOrder(u))
		}
	}
	out := make([][]diplomacy.Order, len(provs))
	for i, p := range provs {
		out[i] = byProv[p]
	}
	return out
}

// searchBuilds offers every build set of 1..min(n, provinces) distinct
// provinces with every branch choice.
func searchBuilds(sites [][]diplomacy.Order, n int, inc *incumbent) {
	for size := 1; size <= min(n, len(sites)); size++ {
		combinations(len(sites), size, func(idx []int) {
			opts := make([][]diplomacy.Order, len(idx))
			for i, j := range idx {
				opts[i] = sites[j]
			}
			product(opts, inc)
		})
	}
}

// searchDisbands offers every set of exactly min(n, units) disbands.
func searchDisbands(units []diplomacy.Unit, n int, inc *incumbent) {
	k := min(n, len(units))
	combinations(len(units), k, func(idx []int) {
		orders := make([]diplomacy.Order, len(idx))
		for i, j := range idx {
			orders[i] = diplomacy.DisbandOrder(units[j])
		}
		inc.offer(orders)
	})
}
