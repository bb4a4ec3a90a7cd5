package importance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

func TestComputeBaseLevel(t *testing.T) {
	m := diplomacy.StandardMap()
	table := Compute(0, m)

	require.Len(t, table, diplomacy.ProvinceCount)
	for id, p := range m.Provinces {
		if p.IsSupplyCenter {
			require.Equal(t, 1.0, table.Of(id), id)
		} else {
			require.Equal(t, 0.0, table.Of(id), id)
		}
	}
	require.Equal(t, 0.0, table.Of("xyz"), "unknown provinces score zero")
	require.Equal(t, Compute(0, m), Compute(-2, m), "negative depth is the base level")
}

func TestComputeMonotonicInDepth(t *testing.T) {
	m := diplomacy.StandardMap()
	for _, normalized := range []bool{true, false} {
		tables := make([]Table, 5)
		for d := range tables {
			tables[d] = Compute(d, m, Normalized(normalized))
		}
		for d1 := 0; d1 < len(tables); d1++ {
			for d2 := d1 + 1; d2 < len(tables); d2++ {
				for id := range tables[d1] {
					require.GreaterOrEqual(t, tables[d2][id], tables[d1][id],
						"%s: depth %d below depth %d (normalized=%v)", id, d2, d1, normalized)
				}
			}
		}
	}
}

func TestComputeOneStep(t *testing.T) {
	m := diplomacy.StandardMap()

	// bur is no center, its neighbours bel, mar, mun and par are.
	raw := Compute(1, m, Normalized(false))
	require.Equal(t, 4.0, raw.Of("bur"))

	norm := Compute(1, m)
	require.InDelta(t, 4.0/float64(m.MaxDegree()), norm.Of("bur"), 1e-12)
	require.Greater(t, raw.Of("par"), norm.Of("par"))
}

func TestKey(t *testing.T) {
	require.Equal(t, "d3-norm", Key(3, true))
	require.Equal(t, "d3-raw", Key(3, false))
}
