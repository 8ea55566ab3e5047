package plan

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/pkg/planner"
)

// buildCopperPlan sets every rate before linking so saved children match a
// fresh resolution.
func buildCopperPlan(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := newFactoryStore(t)
	addTree(t, s, "cable", catalogtest.Cable, 10)
	require.NoError(t, s.SetExcess(ctx, "cable", "cable:cable", 2))
	addTree(t, s, "wire", catalogtest.Wire, 0)
	addTree(t, s, "ingots", catalogtest.CopperIngot, 0)
	addTree(t, s, "rods", catalogtest.IronRod, 6)
	require.NoError(t, s.SetRecipe(ctx, "rods", "rods:iron-rod", catalogtest.RecipeIronRod))
	require.NoError(t, s.CreateImport(ctx, "cable", "cable:cable/wire@1", "wire"))
	require.NoError(t, s.CreateImport(ctx, "wire", "wire:wire/copper-ingot@1", "ingots"))
	return s
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	s := buildCopperPlan(t)

	snap := s.Snapshot()
	assert.Equal(t, planner.SnapshotVersion, snap.Version)
	require.Len(t, snap.Trees, 4)
	assert.Equal(t, "cable", snap.Trees[0].ID)
	assert.InDelta(t, 24.0, snap.Trees[1].RatePerMinute, 1e-9)
	assert.InDelta(t, 12.0, snap.Trees[2].RatePerMinute, 1e-9)
	assert.Equal(t, map[string]float64{"cable:cable": 2}, snap.Excess)
	assert.Equal(t, map[string]string{"rods:iron-rod": catalogtest.RecipeIronRod}, snap.RecipeOverrides)
	assert.Equal(t, []planner.ImportRecord{
		{ConsumerTreeID: "cable", ConsumerPathID: "cable:cable/wire@1", SourceTreeID: "wire", RatePerMinute: 24},
		{ConsumerTreeID: "wire", ConsumerPathID: "wire:wire/copper-ingot@1", SourceTreeID: "ingots", RatePerMinute: 12},
	}, snap.Imports)
}

func TestRestore_MatchesOriginal(t *testing.T) {
	t.Parallel()
	orig := buildCopperPlan(t)

	data, err := json.Marshal(orig.Snapshot())
	require.NoError(t, err)
	var snap planner.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored := newFactoryStore(t)
	addTree(t, restored, "stale", catalogtest.Screw, 1)
	require.NoError(t, restored.Restore(context.Background(), snap))

	assert.Equal(t, orig.Trees(), restored.Trees())
	assert.Equal(t, orig.Imports(), restored.Imports())
	assert.Equal(t, orig.Snapshot(), restored.Snapshot())
	assertGraphConsistent(t, restored)

	// The restored plan keeps cascading.
	require.NoError(t, restored.SetTreeRate(context.Background(), "cable", 20))
	assert.InDelta(t, 22.0, mustTree(t, restored, "ingots").RatePerMinute, 1e-9)
}

func TestRestore_RejectsBadSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := buildCopperPlan(t)
	before := s.Snapshot()

	bad := s.Snapshot()
	bad.Version = 99
	require.ErrorIs(t, s.Restore(ctx, bad), planner.ErrUnsupportedSnapshot)

	bad = s.Snapshot()
	bad.Imports = append(bad.Imports, planner.ImportRecord{
		ConsumerTreeID: "rods", ConsumerPathID: "rods:iron-rod/iron-ingot@1", SourceTreeID: "missing",
	})
	var missing *planner.SourceTreeNotFoundError
	require.ErrorAs(t, s.Restore(ctx, bad), &missing)

	bad = s.Snapshot()
	bad.Imports = append(bad.Imports, planner.ImportRecord{
		ConsumerTreeID: "ingots", ConsumerPathID: "ingots:copper-ingot/copper-ore@1", SourceTreeID: "cable",
	})
	var circular *planner.CircularImportError
	require.ErrorAs(t, s.Restore(ctx, bad), &circular)

	bad = s.Snapshot()
	bad.Trees = append(bad.Trees, bad.Trees[0])
	require.ErrorIs(t, s.Restore(ctx, bad), planner.ErrTreeExists)

	for _, excess := range []float64{-1, math.NaN(), math.Inf(1)} {
		bad = s.Snapshot()
		bad.Excess["cable:cable"] = excess
		require.ErrorIs(t, s.Restore(ctx, bad), planner.ErrInvalidDemand, "excess %v", excess)
	}

	// The wire tree must cover the 24/min the cable tree imports.
	bad = s.Snapshot()
	bad.Trees[1].RatePerMinute = 1
	require.ErrorIs(t, s.Restore(ctx, bad), planner.ErrInvalidDemand)

	assert.Equal(t, before, s.Snapshot())
}

// stripSaved drops saved children, which keep the rates seen when the
// import was created.
func stripSaved(trees []*planner.ProductionTree) []*planner.ProductionTree {
	for _, tree := range trees {
		tree.Root.Walk(func(n *planner.ProductionNode) bool {
			n.SavedChildren = nil
			return true
		})
	}
	return trees
}

// assertMatchesFullRecompute rebuilds the plan from scratch and compares
// it with the incrementally maintained one.
func assertMatchesFullRecompute(t *testing.T, s *Store) {
	t.Helper()
	full := newFactoryStore(t)
	require.NoError(t, full.Restore(context.Background(), s.Snapshot()))

	assert.Equal(t, stripSaved(s.Trees()), stripSaved(full.Trees()))
	assert.Equal(t, s.Imports(), full.Imports())

	got, want := s.ItemTotals(), full.ItemTotals()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ItemID, got[i].ItemID)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.InDelta(t, want[i].TotalRatePerMinute, got[i].TotalRatePerMinute, 1e-9, want[i].ItemID)
	}
}

func TestIncrementalEditsMatchFullRecompute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := buildCopperPlan(t)
	addTree(t, s, "rip", catalogtest.ReinforcedPlate, 5)
	require.NoError(t, s.CreateImport(ctx, "rip", "rip:reinforced-plate/screw@1/iron-rod@2", "rods"))

	require.NoError(t, s.SetTreeRate(ctx, "cable", 30))
	require.NoError(t, s.SetExcess(ctx, "rip", "rip:reinforced-plate/screw@1", 12))
	require.NoError(t, s.SetRecipe(ctx, "rip", "rip:reinforced-plate/iron-plate@1/iron-ingot@2", catalogtest.RecipeSmeltIron))
	require.NoError(t, s.SetExcess(ctx, "cable", "cable:cable", 0))
	require.NoError(t, s.SetTreeRate(ctx, "rip", 2))
	assertGraphConsistent(t, s)

	assertMatchesFullRecompute(t, s)
}

func TestIncrementalRecipeSwitchMatchesFullRecompute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := buildCopperPlan(t)
	addTree(t, s, "c", catalogtest.Cable, 15)
	const wirePath = "c:cable/wire@1"

	// Iron wire replaces the copper branch with an iron one.
	require.NoError(t, s.SetRecipe(ctx, "c", wirePath, catalogtest.RecipeIronWire))
	wire := mustNode(t, s, "c", wirePath)
	require.Len(t, wire.Children, 1)
	assert.Equal(t, catalogtest.IronIngot, wire.Children[0].ItemID)
	assert.InDelta(t, 30.0*5/9, wire.Children[0].RatePerMinute, 1e-9)
	assertMatchesFullRecompute(t, s)

	require.NoError(t, s.SetRecipe(ctx, "c", wirePath, catalogtest.RecipeWire))
	wire = mustNode(t, s, "c", wirePath)
	require.Len(t, wire.Children, 1)
	assert.Equal(t, catalogtest.CopperIngot, wire.Children[0].ItemID)
	assert.InDelta(t, 15.0, wire.Children[0].RatePerMinute, 1e-9)
	assertMatchesFullRecompute(t, s)

	require.NoError(t, s.SetRecipe(ctx, "c", wirePath, ""))
	assertMatchesFullRecompute(t, s)
}
