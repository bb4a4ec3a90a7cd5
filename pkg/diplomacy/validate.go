package diplomacy

import (
	"fmt"
	"slices"
)

// ValidationError describes why an order is illegal on a board.
type ValidationError struct {
	Order   Order
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order %s: %s", e.Order.Describe(), e.Message)
}

func invalid(o Order, format string, args ...any) error {
	return &ValidationError{Order: o, Message: fmt.Sprintf(format, args...)}
}

// ValidateOrder checks that order is legal for its unit on gs. It returns
// nil or a *ValidationError.
func ValidateOrder(order Order, gs *GameState, m *DiplomacyMap) error {
	switch order.Type {
	case OrderBuild:
		return validateBuild(order, gs, m)
	case OrderRetreat:
		return validateRetreat(order, gs, m)
	case OrderDisband:
		if gs.Phase == PhaseRetreat {
			if _, ok := findDislodged(order, gs); !ok {
				return invalid(order, "no dislodged unit at %s", order.Location)
			}
			return nil
		}
		if gs.Phase == PhaseBuild && gs.BuildCount(order.Power) >= 0 {
			return invalid(order, "no disbands required")
		}
		return checkIssuer(order, gs)
	}

	if err := checkIssuer(order, gs); err != nil {
		return err
	}
	switch order.Type {
	case OrderHold:
		return nil
	case OrderMove:
		return validateMove(order, gs, m)
	case OrderSupport:
		return validateSupport(order, gs, m)
	case OrderConvoy:
		return validateConvoy(order, gs, m)
	default:
		return invalid(order, "unknown order type")
	}
}

func checkIssuer(order Order, gs *GameState) error {
	unit := gs.UnitAt(order.Location)
	if unit == nil {
		return invalid(order, "no unit at %s", order.Location)
	}
	if unit.Power != order.Power {
		return invalid(order, "unit belongs to %s, not %s", unit.Power, order.Power)
	}
	if unit.Type != order.UnitType {
		return invalid(order, "unit is %s, not %s", unit.Type, order.UnitType)
	}
	if unit.Coast != order.Coast {
		return invalid(order, "unit stands on coast %q, not %q", unit.Coast, order.Coast)
	}
	return nil
}

func validateMove(order Order, gs *GameState, m *DiplomacyMap) error {
	isFleet := order.UnitType == Fleet
	target := m.Provinces[order.Target]
	if target == nil {
		return invalid(order, "target province does not exist: %s", order.Target)
	}
	if isFleet && target.Type == Land {
		return invalid(order, "fleet cannot move to inland province")
	}
	if !isFleet && target.Type == Sea {
		return invalid(order, "army cannot move to sea province")
	}
	if !isFleet && order.TargetCoast != NoCoast {
		return invalid(order, "armies do not move to a coast")
	}

	if m.Adjacent(order.Location, order.Coast, order.Target, order.TargetCoast, isFleet) {
		if isFleet && m.HasCoasts(order.Target) {
			return validateFleetCoast(order, m)
		}
		return nil
	}
	if !isFleet && target.Type == Coastal && gs.MovableViaSea(m, order.Location, order.Target) {
		return nil
	}
	return invalid(order, "cannot move from %s to %s", order.Location, order.Target)
}

func validateFleetCoast(order Order, m *DiplomacyMap) error {
	coasts := m.FleetCoastsTo(order.Location, order.Coast, order.Target)
	if order.TargetCoast == NoCoast {
		if len(coasts) != 1 {
			return invalid(order, "must specify coast for %s", order.Target)
		}
		return nil
	}
	if !slices.Contains(coasts, order.TargetCoast) {
		return invalid(order, "fleet cannot reach %s/%s from %s", order.Target, order.TargetCoast, order.Location)
	}
	return nil
}

func validateSupport(order Order, gs *GameState, m *DiplomacyMap) error {
	supported := gs.UnitAt(order.AuxLoc)
	if supported == nil || order.AuxLoc == order.Location {
		return invalid(order, "no unit at %s to support", order.AuxLoc)
	}
	if supported.Power != order.AuxPower || supported.Type != order.AuxUnitType {
		return invalid(order, "unit at %s is a %s %s", order.AuxLoc, supported.Power, supported.Type)
	}

	reach := SupportableProvinces(order.Unit(), m)
	if order.AuxTarget == "" {
		if !slices.Contains(reach, order.AuxLoc) {
			return invalid(order, "cannot support hold at %s from %s", order.AuxLoc, order.Location)
		}
		return nil
	}
	if !slices.Contains(reach, order.AuxTarget) {
		return invalid(order, "cannot support move to %s from %s", order.AuxTarget, order.Location)
	}
	if !canReach(*supported, order.AuxTarget, gs, m) {
		return invalid(order, "supported unit at %s cannot reach %s", order.AuxLoc, order.AuxTarget)
	}
	return nil
}

// canReach reports whether u has any legal move into province dst.
func canReach(u Unit, dst string, gs *GameState, m *DiplomacyMap) bool {
	for _, l := range gs.MovableLocations(u, m) {
		if l.Province == dst {
			return true
		}
	}
	return false
}

func validateConvoy(order Order, gs *GameState, m *DiplomacyMap) error {
	if !CanConvoy(order.Unit(), m) {
		return invalid(order, "only fleets at sea can convoy")
	}
	army := gs.UnitAt(order.AuxLoc)
	if army == nil {
		return invalid(order, "no unit at %s to convoy", order.AuxLoc)
	}
	if army.Type != Army || order.AuxUnitType != Army {
		return invalid(order, "only armies can be convoyed")
	}
	if army.Power != order.AuxPower {
		return invalid(order, "army at %s belongs to %s", order.AuxLoc, army.Power)
	}
	dst := m.Provinces[order.AuxTarget]
	if dst == nil || dst.Type != Coastal || order.AuxTarget == order.AuxLoc {
		return invalid(order, "cannot convoy to %s", order.AuxTarget)
	}
	if !gs.MovableViaSea(m, order.AuxLoc, order.Location) || !gs.MovableViaSea(m, order.Location, order.AuxTarget) {
		return invalid(order, "no sea route %s -> %s via %s", order.AuxLoc, order.AuxTarget, order.Location)
	}
	return nil
}

func findDislodged(order Order, gs *GameState) (DislodgedUnit, bool) {
	for _, d := range gs.Dislodged {
		if d.DislodgedFrom == order.Location && d.Unit.Power == order.Power && d.Unit.Type == order.UnitType {
			return d, true
		}
	}
	return DislodgedUnit{}, false
}

func validateRetreat(order Order, gs *GameState, m *DiplomacyMap) error {
	d, ok := findDislodged(order, gs)
	if !ok {
		return invalid(order, "no dislodged unit at %s", order.Location)
	}
	dst := Location{Province: order.Target, Coast: order.TargetCoast}
	if !slices.Contains(gs.RetreatDestinations(d, m), dst) {
		return invalid(order, "cannot retreat to %s", dst)
	}
	return nil
}

func validateBuild(order Order, gs *GameState, m *DiplomacyMap) error {
	if gs.BuildCount(order.Power) <= 0 {
		return invalid(order, "no builds available")
	}
	for _, site := range gs.BuildSites(order.Power, m) {
		if site.Location == (Location{Province: order.Location, Coast: order.Coast}) {
			if !slices.Contains(site.Branches, order.UnitType) {
				return invalid(order, "cannot build %s at %s", order.UnitType, site.Location)
			}
			return nil
		}
	}
	return invalid(order, "%s is not an open home center", order.Location)
}
