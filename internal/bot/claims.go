package bot

import (
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// claimEpsilon absorbs float noise when comparing claim strengths.
const claimEpsilon = 1e-9

type powerProvince struct {
	power    diplomacy.Power
	province string
}

// ownClaim is one of the searched power's entries: a unit's claim on the
// province it ends its order in, keyed by where the unit stands.
type ownClaim struct {
	province string
	from     string
	strength float64
}

// claimBoard scores movement assignments by contested-territory
// resolution. Claims of the other powers depend on the board only and are
// tallied once.
type claimBoard struct {
	gs          *diplomacy.GameState
	m           *diplomacy.DiplomacyMap
	power       diplomacy.Power
	weight      map[string]float64
	crossWeight float64

	foreign   map[powerProvince]float64
	byProv    map[string][]powerProvince // foreign claims per province
	ownership map[string]bool            // provinces the power holds now
}

func newClaimBoard(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap, w map[string]float64, crossWeight float64) *claimBoard {
	cb := &claimBoard{
		gs:          gs,
		m:           m,
		power:       power,
		weight:      w,
		crossWeight: crossWeight,
		foreign:     make(map[powerProvince]float64),
		byProv:      make(map[string][]powerProvince),
		ownership:   make(map[string]bool),
	}
	for _, u := range gs.Units {
		if u.Power == power {
			continue
		}
		reach := map[string]bool{u.Province: true}
		for _, l := range gs.MovableLocations(u, m) {
			reach[l.Province] = true
		}
		for prov := range reach {
			cb.addForeign(powerProvince{u.Power, prov}, 1)
		}
	}
	for _, id := range m.ProvinceIDs() {
		if gs.Holder(id) == power {
			cb.ownership[id] = true
		}
	}
	return cb
}

func (cb *claimBoard) addForeign(k powerProvince, v float64) {
	if _, ok := cb.foreign[k]; !ok {
		cb.byProv[k.province] = append(cb.byProv[k.province], k)
	}
	cb.foreign[k] += v
}

// moveCounts reports whether a move can succeed at all: directly, or by a
// chain of fleets ordered to convoy it.
func (cb *claimBoard) moveCounts(o diplomacy.Order, orders []diplomacy.Order) bool {
	if cb.m.Adjacent(o.Location, o.Coast, o.Target, o.TargetCoast, o.UnitType == diplomacy.Fleet) {
		return true
	}
	convoying := make(map[string]bool)
	for _, c := range orders {
		if c.Type == diplomacy.OrderConvoy && c.AuxLoc == o.Location && c.AuxTarget == o.Target {
			convoying[c.Location] = true
		}
	}
	if len(convoying) == 0 {
		return false
	}
	return diplomacy.MovableViaSea(cb.m, o.Location, o.Target, func(p string) bool { return convoying[p] })
}

func (cb *claimBoard) evaluate(orders []diplomacy.Order) float64 {
	own := make([]ownClaim, 0, len(orders))
	for _, o := range orders {
		switch o.Type {
		case diplomacy.OrderMove:
			if cb.moveCounts(o, orders) {
				own = append(own, ownClaim{province: o.Target, from: o.Location, strength: 1})
			}
		default:
			own = append(own, ownClaim{province: o.Location, from: o.Location, strength: 1})
		}
	}

	var cross map[powerProvince]float64
	for _, o := range orders {
		if o.Type != diplomacy.OrderSupport {
			continue
		}
		dest := auxDestination(o)
		if o.AuxPower == cb.power {
			for i := range own {
				if own[i].province == dest && own[i].from == o.AuxLoc {
					own[i].strength++
					break
				}
			}
			continue
		}
		if cross == nil {
			cross = make(map[powerProvince]float64)
		}
		cross[powerProvince{o.AuxPower, dest}] += cb.crossWeight
	}

	ownBy := make(map[string][]float64, len(own))
	for _, c := range own {
		ownBy[c.province] = append(ownBy[c.province], c.strength)
	}
	// Supported powers with no claim of their own get a fresh one.
	fresh := make(map[string][]float64)
	for k, s := range cross {
		if _, ok := cb.foreign[k]; !ok && s > claimEpsilon {
			fresh[k.province] = append(fresh[k.province], s)
		}
	}

	score := 0.0
	for _, prov := range cb.m.ProvinceIDs() {
		best, count, mine := 0.0, 0, false
		consider := func(s float64, ours bool) {
			switch {
			case s > best+claimEpsilon:
				best, count, mine = s, 1, ours
			case s > best-claimEpsilon:
				count++
			}
		}
		for _, s := range ownBy[prov] {
			consider(s, true)
		}
		for _, k := range cb.byProv[prov] {
			consider(cb.foreign[k]+cross[k], false)
		}
		for _, s := range fresh[prov] {
			consider(s, false)
		}

		switch {
		case count == 0:
			if cb.ownership[prov] {
				score += cb.weight[prov]
			}
		case count == 1 && mine:
			score += cb.weight[prov]
		case count == 1:
			score -= cb.weight[prov]
		}
	}
	return score
}
