package diplomacy

import "slices"

// Board queries the planner relies on. All of them read gs and m only.

// SupportableProvinces returns the provinces u could move into directly.
// Those are exactly the provinces u may support a hold or move into.
func SupportableProvinces(u Unit, m *DiplomacyMap) []string {
	return m.ProvincesAdjacentTo(u.Province, u.Coast, u.Type == Fleet)
}

// CanConvoy reports whether u is a fleet at sea.
func CanConvoy(u Unit, m *DiplomacyMap) bool {
	p := m.Provinces[u.Province]
	return u.Type == Fleet && p != nil && p.Type == Sea
}

// MovableLocations returns every location u may be ordered to move to: its
// direct neighbours and, for armies, every coast reachable through a chain
// of fleets at sea.
func (gs *GameState) MovableLocations(u Unit, m *DiplomacyMap) []Location {
	locs := m.LocationsAdjacentTo(u.Province, u.Coast, u.Type == Fleet)
	for _, l := range gs.ConvoyDestinations(u, m) {
		if !slices.Contains(locs, l) {
			locs = append(locs, l)
		}
	}
	return locs
}

// ConvoyDestinations returns the coastal provinces an army could reach by
// convoy with the fleets currently at sea, in map order.
func (gs *GameState) ConvoyDestinations(u Unit, m *DiplomacyMap) []Location {
	src := m.Provinces[u.Province]
	if u.Type != Army || src == nil || src.Type != Coastal {
		return nil
	}
	reached := seaChainFrom(m, u.Province, gs.fleetAt(nil))
	var out []Location
	for _, id := range m.ProvinceIDs() {
		p := m.Provinces[id]
		if id == u.Province || p.Type != Coastal {
			continue
		}
		if touchesChain(m, id, reached) {
			out = append(out, Location{Province: id})
		}
	}
	return out
}

// MovableViaSea reports whether a chain of fleet-occupied sea provinces links
// from to to. Fleets at the provinces in excluded do not count. A sea
// endpoint holding a usable fleet is part of the chain itself.
func (gs *GameState) MovableViaSea(m *DiplomacyMap, from, to string, excluded ...string) bool {
	return MovableViaSea(m, from, to, gs.fleetAt(excluded))
}

// MovableViaSea is the board-independent form of GameState.MovableViaSea:
// fleetAt reports which sea provinces hold a fleet usable for the chain.
func MovableViaSea(m *DiplomacyMap, from, to string, fleetAt func(string) bool) bool {
	if from == to || m.Provinces[from] == nil || m.Provinces[to] == nil {
		return false
	}
	var reached map[string]bool
	if m.Provinces[from].Type == Sea {
		if !fleetAt(from) {
			return false
		}
		reached = expandChain(m, []string{from}, fleetAt)
	} else {
		reached = seaChainFrom(m, from, fleetAt)
	}
	if m.Provinces[to].Type == Sea {
		return reached[to]
	}
	return touchesChain(m, to, reached)
}

func (gs *GameState) fleetAt(excluded []string) func(string) bool {
	return func(prov string) bool {
		if slices.Contains(excluded, prov) {
			return false
		}
		u := gs.UnitAt(prov)
		return u != nil && u.Type == Fleet
	}
}

func seaChainFrom(m *DiplomacyMap, from string, fleetAt func(string) bool) map[string]bool {
	var start []string
	for _, adj := range m.Adjacencies[from] {
		if adj.FleetOK && m.Provinces[adj.To].Type == Sea && fleetAt(adj.To) {
			start = append(start, adj.To)
		}
	}
	return expandChain(m, start, fleetAt)
}

// expandChain floods from start through adjacent sea provinces with fleets.
func expandChain(m *DiplomacyMap, start []string, fleetAt func(string) bool) map[string]bool {
	visited := make(map[string]bool, len(start))
	queue := make([]string, 0, len(start))
	for _, s := range start {
		if !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, adj := range m.Adjacencies[cur] {
			if !adj.FleetOK || visited[adj.To] || m.Provinces[adj.To].Type != Sea || !fleetAt(adj.To) {
				continue
			}
			visited[adj.To] = true
			queue = append(queue, adj.To)
		}
	}
	return visited
}

func touchesChain(m *DiplomacyMap, prov string, chain map[string]bool) bool {
	for _, adj := range m.Adjacencies[prov] {
		if adj.FleetOK && chain[adj.To] {
			return true
		}
	}
	return false
}

// RetreatDestinations returns where d may retreat: adjacent for its branch,
// vacant, not the attacker's origin and not left empty by a standoff.
func (gs *GameState) RetreatDestinations(d DislodgedUnit, m *DiplomacyMap) []Location {
	var out []Location
	for _, l := range m.LocationsAdjacentTo(d.DislodgedFrom, d.Unit.Coast, d.Unit.Type == Fleet) {
		if l.Province == d.AttackerFrom || slices.Contains(gs.Standoffs, l.Province) {
			continue
		}
		if gs.UnitAt(l.Province) != nil {
			continue
		}
		out = append(out, l)
	}
	return out
}

// HomeCenters returns the home supply centers of power on m, sorted.
func HomeCenters(power Power, m *DiplomacyMap) []string {
	var out []string
	for _, id := range m.ProvinceIDs() {
		p := m.Provinces[id]
		if p.IsSupplyCenter && p.HomePower == power {
			out = append(out, id)
		}
	}
	return out
}

// BuildSite is a location a new unit may be placed on and the branches it
// accepts there.
type BuildSite struct {
	Location Location
	Branches []UnitType
}

// BuildSites returns the build locations open to power: its vacant home
// centers it still owns. Split-coast centers give one army site plus one
// fleet site per coast.
func (gs *GameState) BuildSites(power Power, m *DiplomacyMap) []BuildSite {
	var out []BuildSite
	for _, id := range HomeCenters(power, m) {
		if gs.SupplyCenters[id] != power || gs.UnitAt(id) != nil {
			continue
		}
		p := m.Provinces[id]
		switch {
		case p.Type == Land:
			out = append(out, BuildSite{Location: Location{Province: id}, Branches: []UnitType{Army}})
		case len(p.Coasts) > 0:
			out = append(out, BuildSite{Location: Location{Province: id}, Branches: []UnitType{Army}})
			for _, c := range p.Coasts {
				out = append(out, BuildSite{Location: Location{Province: id, Coast: c}, Branches: []UnitType{Fleet}})
			}
		default:
			out = append(out, BuildSite{Location: Location{Province: id}, Branches: []UnitType{Army, Fleet}})
		}
	}
	return out
}
