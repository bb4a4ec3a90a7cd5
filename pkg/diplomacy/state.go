package diplomacy

import (
	"fmt"
	"slices"
)

// Season represents a game season.
type Season string

const (
	Spring Season = "spring"
	Fall   Season = "fall"
)

// PhaseType represents the type of game phase.
type PhaseType string

const (
	PhaseMovement PhaseType = "movement"
	PhaseRetreat  PhaseType = "retreat"
	PhaseBuild    PhaseType = "build"
)

// GameState is a read-only board snapshot handed to the planner.
type GameState struct {
	Year          int              `json:"year"`
	Season        Season           `json:"season"`
	Phase         PhaseType        `json:"phase"`
	Units         []Unit           `json:"units"`
	SupplyCenters map[string]Power `json:"supply_centers"` // province ID -> owning power
	Dislodged     []DislodgedUnit  `json:"dislodged,omitempty"`
	Standoffs     []string         `json:"standoffs,omitempty"` // provinces left empty by a bounce
}

// DislodgedUnit is a unit that must retreat or disband.
type DislodgedUnit struct {
	Unit          Unit   `json:"unit"`
	DislodgedFrom string `json:"dislodged_from"`
	AttackerFrom  string `json:"attacker_from,omitempty"` // cannot retreat there
}

// NewInitialState returns the standard opening position, Spring 1901 movement.
func NewInitialState() *GameState {
	return &GameState{
		Year:          1901,
		Season:        Spring,
		Phase:         PhaseMovement,
		Units:         initialUnits(),
		SupplyCenters: initialSupplyCenters(),
	}
}

// UnitAt returns the unit at the given province, or nil if none.
func (gs *GameState) UnitAt(province string) *Unit {
	for i := range gs.Units {
		if gs.Units[i].Province == province {
			return &gs.Units[i]
		}
	}
	return nil
}

// SupplyCenterCount returns the number of supply centers owned by the given power.
func (gs *GameState) SupplyCenterCount(power Power) int {
	count := 0
	for _, owner := range gs.SupplyCenters {
		if owner == power {
			count++
		}
	}
	return count
}

// UnitCount returns the number of units belonging to the given power.
func (gs *GameState) UnitCount(power Power) int {
	count := 0
	for _, u := range gs.Units {
		if u.Power == power {
			count++
		}
	}
	return count
}

// UnitsOf returns all units belonging to the given power.
func (gs *GameState) UnitsOf(power Power) []Unit {
	var units []Unit
	for _, u := range gs.Units {
		if u.Power == power {
			units = append(units, u)
		}
	}
	return units
}

// DislodgedOf returns the dislodged units of power.
func (gs *GameState) DislodgedOf(power Power) []DislodgedUnit {
	var out []DislodgedUnit
	for _, d := range gs.Dislodged {
		if d.Unit.Power == power {
			out = append(out, d)
		}
	}
	return out
}

// BuildCount returns how many units power may build (positive) or must
// disband (negative) in a build phase.
func (gs *GameState) BuildCount(power Power) int {
	return gs.SupplyCenterCount(power) - gs.UnitCount(power)
}

// Holder returns the power controlling a province: the owner for supply
// centers, otherwise the power of the unit standing there.
func (gs *GameState) Holder(province string) Power {
	if owner, ok := gs.SupplyCenters[province]; ok && owner != Neutral {
		return owner
	}
	if u := gs.UnitAt(province); u != nil {
		return u.Power
	}
	return Neutral
}

// Validate checks that gs is a possible board on m: every province exists,
// only supply centers are owned, no province holds two units, and each unit
// stands where its type may stand, on a coast of m where one is required.
func (gs *GameState) Validate(m *DiplomacyMap) error {
	if err := gs.CheckProvinces(m); err != nil {
		return err
	}
	for id := range gs.SupplyCenters {
		if !m.Provinces[id].IsSupplyCenter {
			return fmt.Errorf("supply center: %q is not a supply center", id)
		}
	}
	occupied := make(map[string]bool, len(gs.Units))
	for _, u := range gs.Units {
		if occupied[u.Province] {
			return fmt.Errorf("unit: two units in %q", u.Province)
		}
		occupied[u.Province] = true
		if err := checkPlacement(u, m.Provinces[u.Province]); err != nil {
			return fmt.Errorf("unit: %w", err)
		}
	}
	for _, d := range gs.Dislodged {
		if err := checkPlacement(d.Unit, m.Provinces[d.Unit.Province]); err != nil {
			return fmt.Errorf("dislodged unit: %w", err)
		}
	}
	return nil
}

func checkPlacement(u Unit, p *Province) error {
	switch {
	case u.Type == Army && p.Type == Sea:
		return fmt.Errorf("army in sea province %q", p.ID)
	case u.Type == Fleet && p.Type == Land:
		return fmt.Errorf("fleet in inland province %q", p.ID)
	case u.Type == Army && u.Coast != NoCoast:
		return fmt.Errorf("army in %q cannot have a coast", p.ID)
	case u.Type == Fleet && len(p.Coasts) > 0 && !slices.Contains(p.Coasts, u.Coast):
		return fmt.Errorf("fleet in %q needs one of coasts %v", p.ID, p.Coasts)
	case u.Type == Fleet && len(p.Coasts) == 0 && u.Coast != NoCoast:
		return fmt.Errorf("%q has no coast %q", p.ID, u.Coast)
	}
	return nil
}

func initialUnits() []Unit {
	return []Unit{
		// Austria
		{Army, Austria, "vie", NoCoast},
		{Army, Austria, "bud", NoCoast},
		{Fleet, Austria, "tri", NoCoast},
		// England
		{Fleet, England, "lon", NoCoast},
		{Fleet, England, "edi", NoCoast},
		{Army, England, "lvp", NoCoast},
		// France
		{Fleet, France, "bre", NoCoast},
		{Army, France, "par", NoCoast},
		{Army, France, "mar", NoCoast},
		// Germany
		{Fleet, Germany, "kie", NoCoast},
		{Army, Germany, "ber", NoCoast},
		{Army, Germany, "mun", NoCoast},
		// Italy
		{Fleet, Italy, "nap", NoCoast},
		{Army, Italy, "rom", NoCoast},
		{Army, Italy, "ven", NoCoast},
		// Russia
		{Fleet, Russia, "stp", SouthCoast},
		{Army, Russia, "mos", NoCoast},
		{Army, Russia, "war", NoCoast},
		{Fleet, Russia, "sev", NoCoast},
		// Turkey
		{Fleet, Turkey, "ank", NoCoast},
		{Army, Turkey, "con", NoCoast},
		{Army, Turkey, "smy", NoCoast},
	}
}

func initialSupplyCenters() map[string]Power {
	return map[string]Power{
		// Austria
		"vie": Austria, "bud": Austria, "tri": Austria,
		// England
		"lon": England, "edi": England, "lvp": England,
		// France
		"bre": France, "par": France, "mar": France,
		// Germany
		"kie": Germany, "ber": Germany, "mun": Germany,
		// Italy
		"nap": Italy, "rom": Italy, "ven": Italy,
		// Russia
		"stp": Russia, "mos": Russia, "war": Russia, "sev": Russia,
		// Turkey
		"ank": Turkey, "con": Turkey, "smy": Turkey,
		// Neutral supply centers
		"nwy": Neutral, "swe": Neutral, "den": Neutral,
		"hol": Neutral, "bel": Neutral, "spa": Neutral,
		"por": Neutral, "tun": Neutral, "gre": Neutral,
		"ser": Neutral, "bul": Neutral, "rum": Neutral,
	}
}
