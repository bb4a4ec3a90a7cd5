package diplomacy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DFEN is a one-line board notation:
//
//	<year><season><phase>/<units>/<centers>/<dislodged>[/<standoffs>]
//
// e.g. "1901sm/Aavie,Aabud,Aftri,.../Abud,Atri,.../-". Units are
// <power><a|f><province>[.<coast>], centers <power><province> and dislodged
// units a unit entry optionally followed by "<" and the attacker's origin.
// Empty sections are written as "-".

const dfenPowers = "AEFGIRTN"

func powerCode(p Power) byte {
	if p == Neutral {
		return 'N'
	}
	for i, q := range AllPowers() {
		if q == p {
			return dfenPowers[i]
		}
	}
	return '?'
}

func codePower(c byte) (Power, bool) {
	i := strings.IndexByte(dfenPowers, c)
	switch {
	case i < 0:
		return Neutral, false
	case c == 'N':
		return Neutral, true
	default:
		return AllPowers()[i], true
	}
}

var (
	seasonCodes = map[Season]byte{Spring: 's', Fall: 'f'}
	phaseCodes  = map[PhaseType]byte{PhaseMovement: 'm', PhaseRetreat: 'r', PhaseBuild: 'b'}
)

// EncodeDFEN writes gs in DFEN. Output is canonical: entries sorted by power
// order, then province.
func EncodeDFEN(gs *GameState) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(gs.Year))
	b.WriteByte(seasonCodes[gs.Season])
	b.WriteByte(phaseCodes[gs.Phase])

	units := make([]string, 0, len(gs.Units))
	for _, u := range gs.Units {
		units = append(units, unitCode(u))
	}
	centers := make([]string, 0, len(gs.SupplyCenters))
	for prov, owner := range gs.SupplyCenters {
		centers = append(centers, string(powerCode(owner))+prov)
	}
	dislodged := make([]string, 0, len(gs.Dislodged))
	for _, d := range gs.Dislodged {
		e := unitCode(d.Unit)
		if d.AttackerFrom != "" {
			e += "<" + d.AttackerFrom
		}
		dislodged = append(dislodged, e)
	}

	for _, sec := range [][]string{units, centers, dislodged} {
		b.WriteByte('/')
		b.WriteString(joinSection(sec, true))
	}
	if len(gs.Standoffs) > 0 {
		b.WriteByte('/')
		b.WriteString(joinSection(append([]string(nil), gs.Standoffs...), false))
	}
	return b.String()
}

func unitCode(u Unit) string {
	kind := "a"
	if u.Type == Fleet {
		kind = "f"
	}
	s := string(powerCode(u.Power)) + kind + u.Province
	if u.Coast != NoCoast {
		s += "." + string(u.Coast)
	}
	return s
}

func joinSection(entries []string, byPower bool) string {
	if len(entries) == 0 {
		return "-"
	}
	sort.Slice(entries, func(i, j int) bool {
		if byPower && entries[i][0] != entries[j][0] {
			return strings.IndexByte(dfenPowers, entries[i][0]) < strings.IndexByte(dfenPowers, entries[j][0])
		}
		return entries[i] < entries[j]
	})
	return strings.Join(entries, ",")
}

// DecodeDFEN parses a DFEN board. Province IDs are checked for shape only;
// use Validate to check the board against a map.
func DecodeDFEN(s string) (*GameState, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 4 && len(parts) != 5 {
		return nil, fmt.Errorf("dfen: want 4 or 5 sections, got %d", len(parts))
	}
	gs := &GameState{SupplyCenters: make(map[string]Power)}
	if err := decodeHeader(parts[0], gs); err != nil {
		return nil, err
	}

	units, err := sectionEntries("units", parts[1])
	if err != nil {
		return nil, err
	}
	for _, e := range units {
		u, err := decodeUnit(e)
		if err != nil {
			return nil, fmt.Errorf("dfen: unit %q: %w", e, err)
		}
		gs.Units = append(gs.Units, u)
	}

	centers, err := sectionEntries("centers", parts[2])
	if err != nil {
		return nil, err
	}
	for _, e := range centers {
		if len(e) != 4 {
			return nil, fmt.Errorf("dfen: center %q: malformed", e)
		}
		p, ok := codePower(e[0])
		if !ok || !validProvinceID(e[1:]) {
			return nil, fmt.Errorf("dfen: center %q: malformed", e)
		}
		gs.SupplyCenters[e[1:]] = p
	}

	dislodged, err := sectionEntries("dislodged", parts[3])
	if err != nil {
		return nil, err
	}
	for _, e := range dislodged {
		unitPart, attacker, hasAttacker := strings.Cut(e, "<")
		if hasAttacker && !validProvinceID(attacker) {
			return nil, fmt.Errorf("dfen: dislodged %q: invalid attacker province", e)
		}
		u, err := decodeUnit(unitPart)
		if err != nil {
			return nil, fmt.Errorf("dfen: dislodged %q: %w", e, err)
		}
		gs.Dislodged = append(gs.Dislodged, DislodgedUnit{Unit: u, DislodgedFrom: u.Province, AttackerFrom: attacker})
	}

	if len(parts) == 5 {
		standoffs, err := sectionEntries("standoffs", parts[4])
		if err != nil {
			return nil, err
		}
		for _, e := range standoffs {
			if !validProvinceID(e) {
				return nil, fmt.Errorf("dfen: standoff %q: malformed", e)
			}
			gs.Standoffs = append(gs.Standoffs, e)
		}
	}
	return gs, nil
}

func decodeHeader(s string, gs *GameState) error {
	if len(s) < 3 {
		return fmt.Errorf("dfen: header too short: %q", s)
	}
	year, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return fmt.Errorf("dfen: invalid year in %q: %w", s, err)
	}
	gs.Year = year
	if gs.Season = seasonFor(s[len(s)-2]); gs.Season == "" {
		return fmt.Errorf("dfen: invalid season %q", s[len(s)-2:len(s)-1])
	}
	if gs.Phase = phaseFor(s[len(s)-1]); gs.Phase == "" {
		return fmt.Errorf("dfen: invalid phase %q", s[len(s)-1:])
	}
	return nil
}

func seasonFor(c byte) Season {
	for s, code := range seasonCodes {
		if code == c {
			return s
		}
	}
	return ""
}

func phaseFor(c byte) PhaseType {
	for p, code := range phaseCodes {
		if code == c {
			return p
		}
	}
	return ""
}

func sectionEntries(name, s string) ([]string, error) {
	if s == "-" || s == "" {
		return nil, nil
	}
	entries := strings.Split(s, ",")
	for _, e := range entries {
		if e == "" {
			return nil, fmt.Errorf("dfen: %s %q: malformed, empty entry", name, s)
		}
	}
	return entries, nil
}

func validProvinceID(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func decodeUnit(s string) (Unit, error) {
	if len(s) < 5 {
		return Unit{}, fmt.Errorf("too short")
	}
	power, ok := codePower(s[0])
	if !ok || power == Neutral {
		return Unit{}, fmt.Errorf("invalid power %q", s[:1])
	}
	u := Unit{Power: power}
	switch s[1] {
	case 'a':
		u.Type = Army
	case 'f':
		u.Type = Fleet
	default:
		return Unit{}, fmt.Errorf("invalid unit type %q", s[1:2])
	}
	prov, coast, _ := strings.Cut(s[2:], ".")
	if !validProvinceID(prov) {
		return Unit{}, fmt.Errorf("invalid province %q", prov)
	}
	u.Province = prov
	switch c := Coast(coast); c {
	case NoCoast, NorthCoast, SouthCoast, EastCoast, WestCoast:
		u.Coast = c
	default:
		return Unit{}, fmt.Errorf("invalid coast %q", coast)
	}
	return u, nil
}

// CheckProvinces reports the first province named by gs that m does not
// know.
func (gs *GameState) CheckProvinces(m *DiplomacyMap) error {
	check := func(what, id string) error {
		if _, ok := m.Provinces[id]; !ok {
			return fmt.Errorf("%s: unknown province %q", what, id)
		}
		return nil
	}
	for _, u := range gs.Units {
		if err := check("unit", u.Province); err != nil {
			return err
		}
	}
	for id := range gs.SupplyCenters {
		if err := check("supply center", id); err != nil {
			return err
		}
	}
	for _, d := range gs.Dislodged {
		if err := check("dislodged unit", d.Unit.Province); err != nil {
			return err
		}
		if d.AttackerFrom != "" {
			if err := check("attacker", d.AttackerFrom); err != nil {
				return err
			}
		}
	}
	for _, id := range gs.Standoffs {
		if err := check("standoff", id); err != nil {
			return err
		}
	}
	return nil
}
