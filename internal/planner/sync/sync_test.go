package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/db"
)

const itemsYAML = `
- id: iron-ore
  name: Iron Ore
  category: ore
- id: iron-ingot
  name: Iron Ingot
- id: iron-rod
  name: Iron Rod
`

const machinesJSON = `[
  {"id": "smelter", "name": "Smelter", "power_mw": 4},
  {"id": "constructor", "name": "Constructor", "power_mw": 4}
]`

const recipesJSON = `[
  {
    "id": "smelt-iron",
    "name": "Iron Ingot",
    "cycle_time_seconds": 2,
    "machines": ["smelter"],
    "inputs": [{"item_id": "iron-ore", "amount": 1}],
    "outputs": [{"id": "iron-ingot"}]
  },
  {
    "id": "iron-rod",
    "name": "Iron Rod",
    "craft_time_sec": 4,
    "machines": ["constructor"],
    "input_map": {"iron-ingot": 1},
    "output_map": {"iron-rod": 1}
  },
  {
    "id": "cast-rod",
    "name": "Cast Rod",
    "cycle_time_seconds": 1,
    "inputs": [{"item_id": "iron-ore", "quantity": 2}],
    "outputs": [{"item_id": "iron-rod", "quantity": 1}]
  }
]`

const defaultsYAML = `
iron-rod: iron-rod
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	database, err := db.OpenAndInit(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	syncer := NewSyncer(database)
	err = syncer.ImportAll(ctx, Files{
		Items:    writeFile(t, dir, "items.yaml", itemsYAML),
		Machines: writeFile(t, dir, "machines.json", machinesJSON),
		Recipes:  writeFile(t, dir, "recipes.json", recipesJSON),
		Defaults: writeFile(t, dir, "defaults.yml", defaultsYAML),
	})
	require.NoError(t, err)

	store := db.NewCatalogStore(database)

	item, err := store.GetItem(ctx, "iron-ore")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "ore", item.Category)

	smelt, err := store.RecipeByID(ctx, "smelt-iron")
	require.NoError(t, err)
	require.NotNil(t, smelt)
	assert.Equal(t, map[string]float64{"iron-ingot": 1}, smelt.Outputs)
	assert.Equal(t, []string{"smelter"}, smelt.ProducerMachineIDs)

	rod, err := store.RecipeByID(ctx, "iron-rod")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, rod.CycleTimeSeconds, 1e-9)
	assert.Equal(t, map[string]float64{"iron-ingot": 1}, rod.Inputs)

	// cast-rod is faster, but the pinned default wins.
	def, err := store.DefaultRecipeFor(ctx, "iron-rod")
	require.NoError(t, err)
	assert.Equal(t, "iron-rod", def.ID)

	count, err := database.GetSyncMetadata(ctx, "recipes_count")
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	last, err := database.GetSyncMetadata(ctx, "items_last_sync")
	require.NoError(t, err)
	assert.NotEmpty(t, last)

	require.NoError(t, syncer.ClearAll(ctx))
	n, err := store.CountRecipes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImport_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	database, err := db.OpenAndInit(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = database.Close() }()
	syncer := NewSyncer(database)

	err = syncer.ImportRecipesFromFile(ctx, filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "reading file")

	err = syncer.ImportItemsFromFile(ctx, writeFile(t, dir, "bad.json", "{not json"))
	assert.ErrorContains(t, err, "parsing JSON")

	err = syncer.ImportItemsFromFile(ctx, writeFile(t, dir, "bad.yaml", "- id: [unterminated"))
	assert.ErrorContains(t, err, "parsing YAML")

	zero := `[{"id": "broken", "name": "Broken", "output_map": {"x": 0}}]`
	err = syncer.ImportRecipesFromFile(ctx, writeFile(t, dir, "zero.json", zero))
	assert.Error(t, err)

	err = syncer.ImportDefaultsFromFile(ctx, writeFile(t, dir, "defaults.json", `{"x": "nope"}`))
	assert.Error(t, err)
}

func TestTransformRecipe(t *testing.T) {
	t.Parallel()

	r := transformRecipe(RecipeImport{
		ID:           "mixed",
		Inputs:       []AmountImport{{ItemID: "a", Amount: 2}, {ID: "b"}, {}},
		InputMap:     map[string]float64{"a": 1},
		Outputs:      []AmountImport{{ItemID: "c", Quantity: 3}},
		CraftTimeSec: 5,
	})
	assert.Equal(t, map[string]float64{"a": 3, "b": 1}, r.Inputs)
	assert.Equal(t, map[string]float64{"c": 3}, r.Outputs)
	assert.InDelta(t, 5.0, r.CycleTimeSeconds, 1e-9)
}
