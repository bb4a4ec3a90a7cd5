package diplomacy

import "fmt"

// Power is one of the seven great powers, or Neutral.
type Power string

const (
	Austria Power = "austria"
	England Power = "england"
	France  Power = "france"
	Germany Power = "germany"
	Italy   Power = "italy"
	Russia  Power = "russia"
	Turkey  Power = "turkey"
	Neutral Power = ""
)

// AllPowers returns the seven great powers in standard order.
func AllPowers() []Power {
	return []Power{Austria, England, France, Germany, Italy, Russia, Turkey}
}

// ParsePower returns the named great power.
func ParsePower(s string) (Power, error) {
	for _, p := range AllPowers() {
		if string(p) == s {
			return p, nil
		}
	}
	return Neutral, fmt.Errorf("unknown power %q", s)
}

// UnitType is the movement branch of a unit.
type UnitType int

const (
	Army UnitType = iota
	Fleet
)

func (u UnitType) String() string {
	if u == Army {
		return "army"
	}
	return "fleet"
}

// MarshalText encodes the branch as "army" or "fleet".
func (u UnitType) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText accepts "army"/"fleet" and the letters "A"/"F".
func (u *UnitType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "army", "A":
		*u = Army
	case "fleet", "F":
		*u = Fleet
	default:
		return fmt.Errorf("unknown unit type %q", b)
	}
	return nil
}

// Unit is a single piece on the board.
type Unit struct {
	Type     UnitType `json:"type"`
	Power    Power    `json:"power"`
	Province string   `json:"province"`
	Coast    Coast    `json:"coast,omitempty"` // Only set for fleets on split-coast provinces
}

// Location returns where the unit stands.
func (u Unit) Location() Location {
	return Location{Province: u.Province, Coast: u.Coast}
}
