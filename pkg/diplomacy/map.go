package diplomacy

// ProvinceCount is the number of provinces on the standard map.
const ProvinceCount = 75

// ProvinceType classifies a province as land, sea, or coastal.
type ProvinceType int

const (
	Land    ProvinceType = iota // Inland province (armies only)
	Sea                         // Sea province (fleets only)
	Coastal                     // Coastal province (armies or fleets)
)

// Coast represents a specific coast of a province with split coasts.
type Coast string

const (
	NoCoast    Coast = ""
	NorthCoast Coast = "nc"
	SouthCoast Coast = "sc"
	EastCoast  Coast = "ec"
	WestCoast  Coast = "wc"
)

// Province is a single territory of the map.
type Province struct {
	ID             string
	Name           string
	Type           ProvinceType
	IsSupplyCenter bool
	HomePower      Power   // Power whose home center this is ("" otherwise)
	Coasts         []Coast // Non-empty only for split-coast provinces
}

// Location is a province plus, for split-coast provinces, the coast a fleet
// stands on.
type Location struct {
	Province string
	Coast    Coast
}

func (l Location) String() string {
	if l.Coast == NoCoast {
		return l.Province
	}
	return l.Province + "/" + string(l.Coast)
}

// Adjacency describes a directed connection between two provinces.
type Adjacency struct {
	From      string
	FromCoast Coast
	To        string
	ToCoast   Coast
	ArmyOK    bool
	FleetOK   bool
}

// DiplomacyMap holds the province and adjacency graph. It is immutable once
// built.
type DiplomacyMap struct {
	Provinces   map[string]*Province
	Adjacencies map[string][]Adjacency // keyed by from province ID
	provIndex   map[string]int
	order       []string
}

// ProvinceIDs returns every province ID in sorted order. The slice is shared.
func (m *DiplomacyMap) ProvinceIDs() []string {
	return m.order
}

// ProvinceIndex returns the dense index of a province, or -1.
func (m *DiplomacyMap) ProvinceIndex(id string) int {
	idx, ok := m.provIndex[id]
	if !ok {
		return -1
	}
	return idx
}

// ProvinceName returns the province ID for a dense index.
func (m *DiplomacyMap) ProvinceName(idx int) string {
	return m.order[idx]
}

func edgeUsable(adj Adjacency, isFleet bool, fromCoast Coast) bool {
	if isFleet && !adj.FleetOK || !isFleet && !adj.ArmyOK {
		return false
	}
	return fromCoast == NoCoast || adj.FromCoast == NoCoast || adj.FromCoast == fromCoast
}

// Adjacent reports whether a unit of the given branch can step from src to
// dst. Empty coasts match any coast.
func (m *DiplomacyMap) Adjacent(src string, srcCoast Coast, dst string, dstCoast Coast, isFleet bool) bool {
	for _, adj := range m.Adjacencies[src] {
		if adj.To != dst || !edgeUsable(adj, isFleet, srcCoast) {
			continue
		}
		if dstCoast != NoCoast && adj.ToCoast != NoCoast && adj.ToCoast != dstCoast {
			continue
		}
		return true
	}
	return false
}

// FleetCoastsTo returns the coasts of dst a fleet at src/srcCoast can reach.
func (m *DiplomacyMap) FleetCoastsTo(src string, srcCoast Coast, dst string) []Coast {
	var coasts []Coast
	for _, adj := range m.Adjacencies[src] {
		if adj.To == dst && edgeUsable(adj, true, srcCoast) {
			coasts = append(coasts, adj.ToCoast)
		}
	}
	return coasts
}

// ProvincesAdjacentTo returns the provinces a unit of the given branch can
// step into from provID (and coast, for fleets on split coasts).
func (m *DiplomacyMap) ProvincesAdjacentTo(provID string, coast Coast, isFleet bool) []string {
	seen := make(map[string]bool)
	var result []string
	for _, adj := range m.Adjacencies[provID] {
		if !edgeUsable(adj, isFleet, coast) || seen[adj.To] {
			continue
		}
		seen[adj.To] = true
		result = append(result, adj.To)
	}
	return result
}

// LocationsAdjacentTo is ProvincesAdjacentTo at coast granularity: a fleet
// reaching a split-coast province gets one location per reachable coast.
func (m *DiplomacyMap) LocationsAdjacentTo(provID string, coast Coast, isFleet bool) []Location {
	seen := make(map[Location]bool)
	var result []Location
	for _, adj := range m.Adjacencies[provID] {
		if !edgeUsable(adj, isFleet, coast) {
			continue
		}
		loc := Location{Province: adj.To}
		if isFleet {
			loc.Coast = adj.ToCoast
		}
		if seen[loc] {
			continue
		}
		seen[loc] = true
		result = append(result, loc)
	}
	return result
}

// MovableProvinces returns every province reachable from provID by one army
// or fleet step, on any coast.
func (m *DiplomacyMap) MovableProvinces(provID string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, adj := range m.Adjacencies[provID] {
		if seen[adj.To] {
			continue
		}
		seen[adj.To] = true
		result = append(result, adj.To)
	}
	return result
}

// MaxDegree returns the largest MovableProvinces count over the map.
func (m *DiplomacyMap) MaxDegree() int {
	best := 0
	for _, id := range m.order {
		if n := len(m.MovableProvinces(id)); n > best {
			best = n
		}
	}
	return best
}

// HasCoasts reports whether the province has split coasts.
func (m *DiplomacyMap) HasCoasts(provID string) bool {
	p, ok := m.Provinces[provID]
	return ok && len(p.Coasts) > 0
}
