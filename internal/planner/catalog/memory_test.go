package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog"
	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/pkg/planner"
)

func TestMemory_Lookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat := catalogtest.New(t)

	producing, err := cat.RecipesProducing(ctx, catalogtest.Wire)
	require.NoError(t, err)
	require.Len(t, producing, 2)
	assert.Equal(t, catalogtest.RecipeIronWire, producing[0].ID)
	assert.Equal(t, catalogtest.RecipeWire, producing[1].ID)

	def, err := cat.DefaultRecipeFor(ctx, catalogtest.Wire)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, catalogtest.RecipeWire, def.ID)

	raw, err := cat.DefaultRecipeFor(ctx, catalogtest.IronOre)
	require.NoError(t, err)
	assert.Nil(t, raw)

	missing, err := cat.RecipeByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	consumers, err := cat.RecipesConsuming(ctx, catalogtest.IronIngot)
	require.NoError(t, err)
	assert.Equal(t, []string{catalogtest.RecipeIronWire, catalogtest.RecipeIronPlate, catalogtest.RecipeIronRod}, consumers)

	item, err := cat.GetItem(ctx, catalogtest.Screw)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, catalogtest.Screw, item.ID)

	machine, err := cat.GetMachine(ctx, "refinery")
	require.NoError(t, err)
	require.NotNil(t, machine)
}

func TestMemory_HeavyOilOnlyFromByproducts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat := catalogtest.New(t)

	// Both producers list heavy oil as a side output; the tie-break still
	// picks one so the item is not treated as raw.
	def, err := cat.DefaultRecipeFor(ctx, catalogtest.HeavyOil)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, catalogtest.RecipeRubber, def.ID)
}

func TestMemory_SetDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat := catalogtest.New(t)

	require.NoError(t, cat.SetDefault(catalogtest.Wire, catalogtest.RecipeIronWire))
	def, err := cat.DefaultRecipeFor(ctx, catalogtest.Wire)
	require.NoError(t, err)
	assert.Equal(t, catalogtest.RecipeIronWire, def.ID)

	assert.Error(t, cat.SetDefault(catalogtest.Wire, catalogtest.RecipeScrew))
	assert.Error(t, cat.SetDefault(catalogtest.Wire, "unknown"))
}

func TestMemory_AddRecipeRejects(t *testing.T) {
	t.Parallel()
	cat := catalog.NewMemory()

	r := planner.Recipe{ID: "r", Outputs: map[string]float64{"x": 1}}
	require.NoError(t, cat.AddRecipe(r))
	assert.Error(t, cat.AddRecipe(r), "duplicate id")
	assert.Error(t, cat.AddRecipe(planner.Recipe{ID: "bad", Outputs: map[string]float64{"x": 0}}))
}

func TestMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat := catalogtest.New(t)

	r, err := cat.RecipeByID(ctx, catalogtest.RecipeScrew)
	require.NoError(t, err)
	r.Outputs[catalogtest.Screw] = 100

	again, err := cat.RecipeByID(ctx, catalogtest.RecipeScrew)
	require.NoError(t, err)
	assert.Equal(t, 4.0, again.Outputs[catalogtest.Screw])
}
