package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/pkg/planner"
)

func TestAccumulate_ExcludesImports(t *testing.T) {
	t.Parallel()
	e := newFactoryEngine(t)

	plain := resolveTree(t, e, Request{TreeID: "s", ItemID: catalogtest.Screw, RatePerMinute: 60})
	rod := childByItem(t, plain, catalogtest.IronRod)
	root := resolveTree(t, e, Request{
		TreeID: "s", ItemID: catalogtest.Screw, RatePerMinute: 60,
		Imports: map[string]Import{rod.PathID: {SourceTreeID: "rods", SavedChildren: rod.Children}},
	})

	ledger := Accumulate(root)
	require.Len(t, ledger, 1)
	assert.Contains(t, ledger, root.PathID)
	for _, entry := range ledger {
		assert.NotEqual(t, catalogtest.IronRod, entry.ItemID)
	}
}

func TestAccumulate_SumsMatchNodes(t *testing.T) {
	t.Parallel()
	e := newFactoryEngine(t)
	root := resolveTree(t, e, Request{TreeID: "rip", ItemID: catalogtest.ReinforcedPlate, RatePerMinute: 5})

	want := make(map[string]float64)
	root.Walk(func(n *planner.ProductionNode) bool {
		if n.IsImport {
			return false
		}
		want[n.ItemID] += n.RatePerMinute
		return true
	})

	got := make(map[string]float64)
	for pathID, entry := range Accumulate(root) {
		assert.Equal(t, []string{pathID}, entry.ContributingNodeIDs)
		got[entry.ItemID] += entry.TotalRatePerMinute
	}
	assert.InDeltaMapValues(t, want, got, 1e-9)
	assert.InDelta(t, 60.0, got[catalogtest.IronIngot], 1e-9)
}

func TestAccumulateAll(t *testing.T) {
	t.Parallel()
	e := newFactoryEngine(t)
	a := resolveTree(t, e, Request{TreeID: "a", ItemID: catalogtest.IronRod, RatePerMinute: 10})
	b := resolveTree(t, e, Request{TreeID: "b", ItemID: catalogtest.IronRod, RatePerMinute: 20})

	ledger := AccumulateAll(map[string]*planner.ProductionNode{"a": a, "b": b})
	require.Len(t, ledger, 6)
	assert.Equal(t, "a", ledger["a:iron-rod"].TreeID)
	assert.Equal(t, "b", ledger["b:iron-rod"].TreeID)
	assert.InDelta(t, 20.0, ledger["b:iron-rod/iron-ingot@1"].TotalRatePerMinute, 1e-9)
}

func TestItemTotals(t *testing.T) {
	t.Parallel()
	e := newFactoryEngine(t)
	rip := resolveTree(t, e, Request{TreeID: "rip", ItemID: catalogtest.ReinforcedPlate, RatePerMinute: 5})
	plastic := resolveTree(t, e, Request{TreeID: "p", ItemID: catalogtest.Plastic, RatePerMinute: 20})

	totals := ItemTotals(AccumulateAll(map[string]*planner.ProductionNode{"rip": rip, "p": plastic}))

	var order []string
	byItem := make(map[string]planner.ItemTotal)
	for _, total := range totals {
		order = append(order, string(total.Kind)+":"+total.ItemID)
		byItem[total.ItemID] = total
	}
	assert.Equal(t, []string{
		"target:plastic",
		"target:reinforced-plate",
		"intermediate:iron-ingot",
		"intermediate:iron-plate",
		"intermediate:iron-rod",
		"intermediate:screw",
		"raw:crude-oil",
		"raw:iron-ore",
		"byproduct:heavy-oil-residue",
	}, order)

	assert.InDelta(t, 60.0, byItem[catalogtest.IronIngot].TotalRatePerMinute, 1e-9)
	assert.Equal(t, 2, byItem[catalogtest.IronIngot].NodeCount)
	assert.Equal(t, catalogtest.RecipeSmeltIron, byItem[catalogtest.IronIngot].RecipeID)
	assert.InDelta(t, -10.0, byItem[catalogtest.HeavyOil].TotalRatePerMinute, 1e-9)
}
