package diplomacy

import "fmt"

// OrderType is the kind of an order.
type OrderType int

const (
	OrderHold    OrderType = iota // Unit holds position
	OrderMove                     // Unit moves to another province
	OrderSupport                  // Unit supports another unit's hold or move
	OrderConvoy                   // Fleet convoys an army across sea
	OrderRetreat                  // Dislodged unit retreats
	OrderDisband                  // Unit is removed (retreat or build phase)
	OrderBuild                    // New unit is placed on a home center
)

func (o OrderType) String() string {
	switch o {
	case OrderHold:
		return "hold"
	case OrderMove:
		return "move"
	case OrderSupport:
		return "support"
	case OrderConvoy:
		return "convoy"
	case OrderRetreat:
		return "retreat"
	case OrderDisband:
		return "disband"
	case OrderBuild:
		return "build"
	default:
		return "unknown"
	}
}

func (o OrderType) MarshalText() ([]byte, error) {
	if o < OrderHold || o > OrderBuild {
		return nil, fmt.Errorf("unknown order type %d", int(o))
	}
	return []byte(o.String()), nil
}

func (o *OrderType) UnmarshalText(b []byte) error {
	for t := OrderHold; t <= OrderBuild; t++ {
		if t.String() == string(b) {
			*o = t
			return nil
		}
	}
	return fmt.Errorf("unknown order type %q", b)
}

// Order is a single order for one unit. Orders are plain values: two orders
// are the same order exactly when they compare equal with ==.
//
// For Build orders the unit fields describe the unit to be created.
type Order struct {
	// Unit being ordered
	UnitType UnitType `json:"unit_type"`
	Power    Power    `json:"power"`
	Location string   `json:"location"`
	Coast    Coast    `json:"coast,omitempty"`

	Type OrderType `json:"type"`

	// Destination of a move or retreat
	Target      string `json:"target,omitempty"`
	TargetCoast Coast  `json:"target_coast,omitempty"`

	// Supported or convoyed unit. AuxTarget is empty for a supported hold.
	AuxLoc      string   `json:"aux_loc,omitempty"`
	AuxTarget   string   `json:"aux_target,omitempty"`
	AuxUnitType UnitType `json:"aux_unit_type,omitempty"`
	AuxPower    Power    `json:"aux_power,omitempty"`
}

// HoldOrder returns a hold for u.
func HoldOrder(u Unit) Order {
	return Order{UnitType: u.Type, Power: u.Power, Location: u.Province, Coast: u.Coast, Type: OrderHold}
}

// MoveOrder returns a move of u to dst.
func MoveOrder(u Unit, dst Location) Order {
	o := HoldOrder(u)
	o.Type = OrderMove
	o.Target = dst.Province
	o.TargetCoast = dst.Coast
	return o
}

// SupportHoldOrder returns a support by u of the unit target holding.
func SupportHoldOrder(u, target Unit) Order {
	o := HoldOrder(u)
	o.Type = OrderSupport
	o.AuxLoc = target.Province
	o.AuxUnitType = target.Type
	o.AuxPower = target.Power
	return o
}

// SupportMoveOrder returns a support by u of target moving to dst.
func SupportMoveOrder(u, target Unit, dst string) Order {
	o := SupportHoldOrder(u, target)
	o.AuxTarget = dst
	return o
}

// ConvoyOrder returns a convoy by fleet u of army moving to dst.
func ConvoyOrder(u, army Unit, dst string) Order {
	o := SupportMoveOrder(u, army, dst)
	o.Type = OrderConvoy
	return o
}

// RetreatOrder returns a retreat of u to dst.
func RetreatOrder(u Unit, dst Location) Order {
	o := MoveOrder(u, dst)
	o.Type = OrderRetreat
	return o
}

// DisbandOrder returns a disband of u.
func DisbandOrder(u Unit) Order {
	o := HoldOrder(u)
	o.Type = OrderDisband
	return o
}

// BuildOrder returns an order creating u.
func BuildOrder(u Unit) Order {
	o := HoldOrder(u)
	o.Type = OrderBuild
	return o
}

// Unit returns the unit the order is issued to (or creates).
func (o Order) Unit() Unit {
	return Unit{Type: o.UnitType, Power: o.Power, Province: o.Location, Coast: o.Coast}
}

// Destination returns where the issuing unit ends up if the order
// succeeds: the target for moves and retreats, its own province otherwise.
func (o Order) Destination() string {
	if o.Type == OrderMove || o.Type == OrderRetreat {
		return o.Target
	}
	return o.Location
}

func unitLetter(t UnitType) string {
	if t == Fleet {
		return "F"
	}
	return "A"
}

// Describe returns the order in conventional notation, e.g. "A par -> bur".
func (o Order) Describe() string {
	unitStr := unitLetter(o.UnitType)
	loc := Location{Province: o.Location, Coast: o.Coast}.String()
	target := Location{Province: o.Target, Coast: o.TargetCoast}.String()

	switch o.Type {
	case OrderHold:
		return fmt.Sprintf("%s %s Hold", unitStr, loc)
	case OrderMove:
		return fmt.Sprintf("%s %s -> %s", unitStr, loc, target)
	case OrderSupport:
		aux := unitLetter(o.AuxUnitType)
		if o.AuxTarget == "" {
			return fmt.Sprintf("%s %s S %s %s Hold", unitStr, loc, aux, o.AuxLoc)
		}
		return fmt.Sprintf("%s %s S %s %s -> %s", unitStr, loc, aux, o.AuxLoc, o.AuxTarget)
	case OrderConvoy:
		return fmt.Sprintf("%s %s C A %s -> %s", unitStr, loc, o.AuxLoc, o.AuxTarget)
	case OrderRetreat:
		return fmt.Sprintf("%s %s R %s", unitStr, loc, target)
	case OrderDisband:
		return fmt.Sprintf("%s %s Disband", unitStr, loc)
	case OrderBuild:
		return fmt.Sprintf("Build %s %s", unitStr, loc)
	default:
		return fmt.Sprintf("%s %s ???", unitStr, loc)
	}
}
