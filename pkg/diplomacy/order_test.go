package diplomacy

import "testing"

func TestOrderDescribe(t *testing.T) {
	par := Unit{Army, France, "par", NoCoast}
	bre := Unit{Fleet, France, "bre", NoCoast}
	stp := Unit{Fleet, Russia, "stp", SouthCoast}
	cases := []struct {
		order Order
		want  string
	}{
		{HoldOrder(par), "A par Hold"},
		{MoveOrder(par, Location{Province: "bur"}), "A par -> bur"},
		{MoveOrder(stp, Location{Province: "bot"}), "F stp/sc -> bot"},
		{SupportHoldOrder(bre, par), "F bre S A par Hold"},
		{SupportMoveOrder(bre, par, "pic"), "F bre S A par -> pic"},
		{ConvoyOrder(Unit{Fleet, England, "nth", NoCoast}, Unit{Army, England, "lon", NoCoast}, "nwy"), "F nth C A lon -> nwy"},
		{RetreatOrder(par, Location{Province: "gas"}), "A par R gas"},
		{DisbandOrder(bre), "F bre Disband"},
		{BuildOrder(Unit{Fleet, Russia, "stp", NorthCoast}), "Build F stp/nc"},
	}
	for _, tc := range cases {
		if got := tc.order.Describe(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestOrderEquality(t *testing.T) {
	par := Unit{Army, France, "par", NoCoast}
	a := MoveOrder(par, Location{Province: "bur"})
	b := MoveOrder(par, Location{Province: "bur"})
	if a != b {
		t.Error("identical moves should be equal")
	}
	if a == HoldOrder(par) {
		t.Error("move and hold should differ")
	}
	if a.Destination() != "bur" || HoldOrder(par).Destination() != "par" {
		t.Error("unexpected destinations")
	}
	if a.Unit() != par {
		t.Errorf("expected issuing unit %+v, got %+v", par, a.Unit())
	}
}
