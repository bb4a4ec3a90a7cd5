package diplomacy

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

var (
	stdMapOnce sync.Once
	stdMapInst *DiplomacyMap
)

// StandardMap returns the standard 75-province map. It is parsed once from
// the tables below and shared; callers must not mutate it.
func StandardMap() *DiplomacyMap {
	stdMapOnce.Do(func() {
		m, err := ParseMap(standardProvinces, armyEdges, fleetEdges, sharedEdges)
		if err != nil {
			panic(fmt.Sprintf("diplomacy: standard map: %v", err))
		}
		stdMapInst = m
	})
	return stdMapInst
}

// ParseMap builds a map from textual tables.
//
// provinces has one province per line: id|name|land,sea or coast|* for a
// supply center|home power|comma-separated coasts. The edge tables hold
// whitespace separated undirected pairs "a-b" where either end may carry a
// coast ("spa/nc-mao"). army edges are army only, fleet edges fleet only and
// shared edges are usable by both branches.
func ParseMap(provinces, army, fleet, shared string) (*DiplomacyMap, error) {
	m := &DiplomacyMap{
		Provinces:   make(map[string]*Province),
		Adjacencies: make(map[string][]Adjacency),
	}
	for _, line := range strings.Split(provinces, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		f := strings.Split(line, "|")
		if len(f) != 6 {
			return nil, fmt.Errorf("province line %q: want 6 fields, got %d", line, len(f))
		}
		p := &Province{ID: f[0], Name: f[1], IsSupplyCenter: f[3] == "*", HomePower: Power(f[4])}
		switch f[2] {
		case "land":
			p.Type = Land
		case "sea":
			p.Type = Sea
		case "coast":
			p.Type = Coastal
		default:
			return nil, fmt.Errorf("province %s: unknown type %q", f[0], f[2])
		}
		if f[5] != "" {
			for _, c := range strings.Split(f[5], ",") {
				p.Coasts = append(p.Coasts, Coast(c))
			}
		}
		m.Provinces[p.ID] = p
	}

	for _, tbl := range []struct {
		edges           string
		armyOK, fleetOK bool
	}{
		{army, true, false},
		{fleet, false, true},
		{shared, true, true},
	} {
		for _, pair := range strings.Fields(tbl.edges) {
			a, b, ok := strings.Cut(pair, "-")
			if !ok {
				return nil, fmt.Errorf("edge %q: missing separator", pair)
			}
			from, err := m.parseLocation(a)
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", pair, err)
			}
			to, err := m.parseLocation(b)
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", pair, err)
			}
			m.link(from, to, tbl.armyOK, tbl.fleetOK)
			m.link(to, from, tbl.armyOK, tbl.fleetOK)
		}
	}

	m.order = make([]string, 0, len(m.Provinces))
	for id := range m.Provinces {
		m.order = append(m.order, id)
	}
	sort.Strings(m.order)
	m.provIndex = make(map[string]int, len(m.order))
	for i, id := range m.order {
		m.provIndex[id] = i
	}
	return m, nil
}

func (m *DiplomacyMap) parseLocation(s string) (Location, error) {
	prov, coast, _ := strings.Cut(s, "/")
	if _, ok := m.Provinces[prov]; !ok {
		return Location{}, fmt.Errorf("unknown province %q", prov)
	}
	return Location{Province: prov, Coast: Coast(coast)}, nil
}

func (m *DiplomacyMap) link(from, to Location, armyOK, fleetOK bool) {
	adj := Adjacency{
		From:      from.Province,
		FromCoast: from.Coast,
		To:        to.Province,
		ToCoast:   to.Coast,
		ArmyOK:    armyOK,
		FleetOK:   fleetOK,
	}
	if slices.Contains(m.Adjacencies[from.Province], adj) {
		return
	}
	m.Adjacencies[from.Province] = append(m.Adjacencies[from.Province], adj)
}

// 14 inland, 39 coastal, 3 split-coast and 19 sea provinces.
const standardProvinces = `
	adr|Adriatic Sea|sea|||
	aeg|Aegean Sea|sea|||
	alb|Albania|coast|||
	ank|Ankara|coast|*|turkey|
	apu|Apulia|coast|||
	arm|Armenia|coast|||
	bal|Baltic Sea|sea|||
	bar|Barents Sea|sea|||
	bel|Belgium|coast|*||
	ber|Berlin|coast|*|germany|
	bla|Black Sea|sea|||
	boh|Bohemia|land|||
	bot|Gulf of Bothnia|sea|||
	bre|Brest|coast|*|france|
	bud|Budapest|land|*|austria|
	bul|Bulgaria|coast|*||ec,sc
	bur|Burgundy|land|||
	cly|Clyde|coast|||
	con|Constantinople|coast|*|turkey|
	den|Denmark|coast|*||
	eas|Eastern Mediterranean|sea|||
	edi|Edinburgh|coast|*|england|
	eng|English Channel|sea|||
	fin|Finland|coast|||
	gal|Galicia|land|||
	gas|Gascony|coast|||
	gol|Gulf of Lyon|sea|||
	gre|Greece|coast|*||
	hel|Heligoland Bight|sea|||
	hol|Holland|coast|*||
	ion|Ionian Sea|sea|||
	iri|Irish Sea|sea|||
	kie|Kiel|coast|*|germany|
	lon|London|coast|*|england|
	lvn|Livonia|coast|||
	lvp|Liverpool|coast|*|england|
	mao|Mid-Atlantic Ocean|sea|||
	mar|Marseilles|coast|*|france|
	mos|Moscow|land|*|russia|
	mun|Munich|land|*|germany|
	naf|North Africa|coast|||
	nao|North Atlantic Ocean|sea|||
	nap|Naples|coast|*|italy|
	nrg|Norwegian Sea|sea|||
	nth|North Sea|sea|||
	nwy|Norway|coast|*||
	par|Paris|land|*|france|
	pic|Picardy|coast|||
	pie|Piedmont|coast|||
	por|Portugal|coast|*||
	pru|Prussia|coast|||
	rom|Rome|coast|*|italy|
	ruh|Ruhr|land|||
	rum|Rumania|coast|*||
	ser|Serbia|land|*||
	sev|Sevastopol|coast|*|russia|
	sil|Silesia|land|||
	ska|Skagerrak|sea|||
	smy|Smyrna|coast|*|turkey|
	spa|Spain|coast|*||nc,sc
	stp|St. Petersburg|coast|*|russia|nc,sc
	swe|Sweden|coast|*||
	syr|Syria|coast|||
	tri|Trieste|coast|*|austria|
	tun|Tunisia|coast|*||
	tus|Tuscany|coast|||
	tyr|Tyrolia|land|||
	tys|Tyrrhenian Sea|sea|||
	ukr|Ukraine|land|||
	ven|Venice|coast|*|italy|
	vie|Vienna|land|*|austria|
	wal|Wales|coast|||
	war|Warsaw|land|*|russia|
	wes|Western Mediterranean|sea|||
	yor|Yorkshire|coast|||`

// Pairs between provinces sharing only a land border.
const armyEdges = `
	ank-smy apu-rom arm-smy arm-syr boh-gal boh-mun boh-sil boh-tyr boh-vie
	bud-gal bud-rum bud-ser bud-tri bud-vie bur-bel bur-gas bur-mar bur-mun
	bur-par bur-pic bur-ruh con-bul edi-lvp fin-nwy fin-stp gal-rum gal-sil
	gal-ukr gal-vie gal-war gas-mar gas-spa gre-bul lvn-stp lvp-yor mar-spa
	mos-lvn mos-sev mos-stp mos-ukr mos-war mun-ber mun-kie mun-ruh mun-sil
	mun-tyr nwy-stp par-bre par-gas par-pic pie-ven por-spa rom-ven ruh-bel
	ruh-hol ruh-kie rum-bul ser-alb ser-bul ser-gre ser-rum ser-tri sil-ber
	sil-pru sil-war tus-ven tyr-pie tyr-tri tyr-ven tyr-vie ukr-rum ukr-sev
	ukr-war vie-tri wal-yor war-lvn war-pru`

// Pairs sharing only a sea border, with the coast of split-coast provinces.
const fleetEdges = `
	adr-alb adr-apu adr-ion adr-tri adr-ven aeg-bul/sc aeg-con aeg-eas
	aeg-gre aeg-ion aeg-smy bal-ber bal-bot bal-den bal-kie bal-lvn bal-pru
	bal-swe bar-nwy bar-stp/nc bla-ank bla-arm bla-bul/ec bla-con bla-rum
	bla-sev bot-fin bot-lvn bot-stp/sc bot-swe con-bul/ec con-bul/sc eas-smy
	eas-syr eng-bel eng-bre eng-iri eng-lon eng-mao eng-nth eng-pic eng-wal
	fin-stp/sc gas-spa/nc gol-mar gol-pie gol-spa/sc gol-tus gol-tys gol-wes
	gre-bul/sc hel-den hel-hol hel-kie hel-nth ion-alb ion-apu ion-eas
	ion-gre ion-nap ion-tun ion-tys iri-lvp iri-mao iri-nao iri-wal
	lvn-stp/sc mao-bre mao-gas mao-naf mao-nao mao-por mao-spa/nc mao-spa/sc
	mao-wes mar-spa/sc nao-cly nao-lvp nao-nrg nrg-bar nrg-cly nrg-edi
	nrg-nwy nth-bel nth-den nth-edi nth-hol nth-lon nth-nrg nth-nwy nth-ska
	nth-yor nwy-stp/nc por-spa/nc por-spa/sc rum-bul/ec ska-den ska-nwy
	ska-swe tys-nap tys-rom tys-tun tys-tus tys-wes wes-naf wes-spa/sc
	wes-tun`

// Coastal pairs reachable over land and along the shore.
const sharedEdges = `
	alb-gre alb-tri ank-arm ank-con apu-nap apu-ven bel-hol bel-pic ber-kie
	ber-pru bre-gas bre-pic cly-edi cly-lvp con-smy den-kie den-swe edi-yor
	fin-swe hol-kie lon-wal lon-yor lvp-wal mar-pie naf-tun nwy-swe pie-tus
	pru-lvn rom-nap rom-tus sev-arm sev-rum smy-syr tri-ven`
