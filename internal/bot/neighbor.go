package bot

import (
	"math/rand"
	"slices"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

type mutation int

const (
	mutateMoveOrHold mutation = iota
	mutateSupport
	mutateConvoy
)

// neighbors produces single-order mutations of a movement assignment. Board
// queries are answered once per search and cached.
type neighbors struct {
	gs    *diplomacy.GameState
	m     *diplomacy.DiplomacyMap
	power diplomacy.Power
	rng   *rand.Rand

	movable     map[string][]diplomacy.Location
	supportable map[string]map[string]bool
	foreign     []diplomacy.Unit
	convoyDests map[string][]diplomacy.Location
	seaRoutes   map[[2]string]bool
}

func newNeighbors(gs *diplomacy.GameState, power diplomacy.Power, m *diplomacy.DiplomacyMap, rng *rand.Rand) *neighbors {
	n := &neighbors{
		gs:          gs,
		m:           m,
		power:       power,
		rng:         rng,
		movable:     make(map[string][]diplomacy.Location, len(gs.Units)),
		supportable: make(map[string]map[string]bool),
		convoyDests: make(map[string][]diplomacy.Location),
		seaRoutes:   make(map[[2]string]bool),
	}
	for _, u := range gs.Units {
		n.movable[u.Province] = gs.MovableLocations(u, m)
		if u.Power == power {
			set := make(map[string]bool)
			for _, p := range diplomacy.SupportableProvinces(u, m) {
				set[p] = true
			}
			n.supportable[u.Province] = set
			continue
		}
		n.foreign = append(n.foreign, u)
		if u.Type == diplomacy.Army {
			n.convoyDests[u.Province] = gs.ConvoyDestinations(u, m)
		}
	}
	return n
}

func (n *neighbors) viaSea(from, to string) bool {
	k := [2]string{from, to}
	v, ok := n.seaRoutes[k]
	if !ok {
		v = n.gs.MovableViaSea(n.m, from, to)
		n.seaRoutes[k] = v
	}
	return v
}

// Next returns a copy of orders with one order replaced, or false when no
// order of the assignment can change.
func (n *neighbors) Next(orders []diplomacy.Order) ([]diplomacy.Order, bool) {
	for _, idx := range n.rng.Perm(len(orders)) {
		if o, ok := n.mutate(orders, idx); ok {
			next := slices.Clone(orders)
			next[idx] = o
			return next, true
		}
	}
	return nil, false
}

// mutate replaces orders[idx]. The category is drawn uniformly from those
// the unit is capable of; support and convoy fall back to move or hold when
// they have no candidate.
func (n *neighbors) mutate(orders []diplomacy.Order, idx int) (diplomacy.Order, bool) {
	target := orders[idx]
	unit := target.Unit()
	kinds := 2
	if diplomacy.CanConvoy(unit, n.m) {
		kinds = 3
	}
	var cands []diplomacy.Order
	switch mutation(n.rng.Intn(kinds)) {
	case mutateSupport:
		cands = n.supportCandidates(orders, idx)
	case mutateConvoy:
		cands = n.convoyCandidates(orders, idx)
	}
	if len(cands) == 0 {
		cands = n.moveCandidates(target)
	}
	if len(cands) == 0 {
		return diplomacy.Order{}, false
	}
	return pick(n.rng, cands), true
}

func (n *neighbors) moveCandidates(target diplomacy.Order) []diplomacy.Order {
	unit := target.Unit()
	var out []diplomacy.Order
	if target.Type != diplomacy.OrderHold {
		out = append(out, diplomacy.HoldOrder(unit))
	}
	for _, l := range n.movable[unit.Province] {
		if target.Type == diplomacy.OrderMove && l == (diplomacy.Location{Province: target.Target, Coast: target.TargetCoast}) {
			continue
		}
		out = append(out, diplomacy.MoveOrder(unit, l))
	}
	return out
}

// candidateSet keeps insertion order and drops duplicates and the order
// being replaced.
type candidateSet struct {
	skip  diplomacy.Order
	seen  map[diplomacy.Order]bool
	items []diplomacy.Order
}

func newCandidateSet(skip diplomacy.Order) *candidateSet {
	return &candidateSet{skip: skip, seen: make(map[diplomacy.Order]bool)}
}

func (c *candidateSet) add(o diplomacy.Order) {
	if o == c.skip || c.seen[o] {
		return
	}
	c.seen[o] = true
	c.items = append(c.items, o)
}

// biased narrows the candidates to those helping the same unit or the same
// destination as the replaced order, when it was of the same kind and any
// such candidate exists.
func (c *candidateSet) biased() []diplomacy.Order {
	if c.skip.Type != diplomacy.OrderSupport && c.skip.Type != diplomacy.OrderConvoy {
		return c.items
	}
	var near []diplomacy.Order
	for _, o := range c.items {
		if o.Type == c.skip.Type && (o.AuxLoc == c.skip.AuxLoc || auxDestination(o) == auxDestination(c.skip)) {
			near = append(near, o)
		}
	}
	if len(near) == 0 {
		return c.items
	}
	return near
}

// auxDestination is where the supported or convoyed unit is to end up.
func auxDestination(o diplomacy.Order) string {
	if o.AuxTarget == "" {
		return o.AuxLoc
	}
	return o.AuxTarget
}

func (n *neighbors) supportCandidates(orders []diplomacy.Order, idx int) []diplomacy.Order {
	target := orders[idx]
	unit := target.Unit()
	reach := n.supportable[unit.Province]
	set := newCandidateSet(target)

	for i, o := range orders {
		if i == idx {
			continue
		}
		if o.Type == diplomacy.OrderMove {
			if reach[o.Target] {
				set.add(diplomacy.SupportMoveOrder(unit, o.Unit(), o.Target))
			}
		} else if reach[o.Location] {
			set.add(diplomacy.SupportHoldOrder(unit, o.Unit()))
		}
	}
	for _, u := range n.foreign {
		for _, l := range n.movable[u.Province] {
			if reach[l.Province] {
				set.add(diplomacy.SupportMoveOrder(unit, u, l.Province))
			}
		}
		if reach[u.Province] {
			set.add(diplomacy.SupportHoldOrder(unit, u))
		}
	}
	return set.biased()
}

func (n *neighbors) convoyCandidates(orders []diplomacy.Order, idx int) []diplomacy.Order {
	target := orders[idx]
	unit := target.Unit()
	set := newCandidateSet(target)

	for i, o := range orders {
		if i == idx || o.Type != diplomacy.OrderMove || o.UnitType != diplomacy.Army {
			continue
		}
		if n.viaSea(o.Location, unit.Province) && n.viaSea(unit.Province, o.Target) {
			set.add(diplomacy.ConvoyOrder(unit, o.Unit(), o.Target))
		}
	}
	for _, u := range n.foreign {
		for _, l := range n.convoyDests[u.Province] {
			if n.viaSea(u.Province, unit.Province) && n.viaSea(unit.Province, l.Province) {
				set.add(diplomacy.ConvoyOrder(unit, u, l.Province))
			}
		}
	}
	return set.biased()
}
