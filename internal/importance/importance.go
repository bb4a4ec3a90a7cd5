// Package importance scores map territories by how many supply centers lie
// within a few steps of them. The table depends on the map only, so one
// table serves every position of a game.
package importance

import (
	"fmt"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// Table maps province ID to importance.
type Table map[string]float64

// Of returns the importance of a province, 0 when unknown.
func (t Table) Of(province string) float64 {
	return t[province]
}

// Option tunes Compute.
type Option func(*options)

type options struct {
	normalized bool
}

// Normalized divides neighbour contributions by the map's largest
// out-degree. On by default.
func Normalized(on bool) Option {
	return func(o *options) { o.normalized = on }
}

// Key names a table in caches.
func Key(depth int, normalized bool) string {
	if normalized {
		return fmt.Sprintf("d%d-norm", depth)
	}
	return fmt.Sprintf("d%d-raw", depth)
}

// Compute propagates supply-center value depth times over the union of army
// and fleet adjacencies. Level 0 is 1 on supply centers and 0 elsewhere;
// level d adds each neighbour's level d-1 value to the province's own.
// Negative depths behave as 0.
func Compute(depth int, m *diplomacy.DiplomacyMap, opts ...Option) Table {
	o := options{normalized: true}
	for _, fn := range opts {
		fn(&o)
	}

	ids := m.ProvinceIDs()
	neighbors := make([][]int, len(ids))
	for i, id := range ids {
		for _, n := range m.MovableProvinces(id) {
			neighbors[i] = append(neighbors[i], m.ProvinceIndex(n))
		}
	}
	scale := 1.0
	if o.normalized {
		if d := m.MaxDegree(); d > 0 {
			scale = 1 / float64(d)
		}
	}

	prev := make([]float64, len(ids))
	for i, id := range ids {
		if m.Provinces[id].IsSupplyCenter {
			prev[i] = 1
		}
	}
	for level := 1; level <= depth; level++ {
		next := make([]float64, len(ids))
		for i := range ids {
			v := prev[i]
			for _, n := range neighbors[i] {
				v += prev[n] * scale
			}
			next[i] = v
		}
		prev = next
	}

	t := make(Table, len(ids))
	for i, id := range ids {
		t[id] = prev[i]
	}
	return t
}
