package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/config"
	"github.com/rsned/production-planner/pkg/planner"
)

const itemsYAML = `
- id: iron-ore
  name: Iron Ore
- id: iron-ingot
  name: Iron Ingot
- id: iron-rod
  name: Iron Rod
`

const recipesYAML = `
- id: smelt-iron
  name: Iron Ingot
  cycle_time_seconds: 2
  input_map: {iron-ore: 1}
  output_map: {iron-ingot: 1}
- id: iron-rod
  name: Iron Rod
  cycle_time_seconds: 4
  input_map: {iron-ingot: 1}
  output_map: {iron-rod: 1}
`

func TestParseExcess(t *testing.T) {
	t.Parallel()

	got, err := parseExcess([]string{"plan:iron-rod=30", "plan:iron-rod/iron-ingot@1=2.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"plan:iron-rod": 30, "plan:iron-rod/iron-ingot@1": 2.5}, got)

	got, err = parseExcess(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"no-equals", "=3", "p=abc", "p=-1"} {
		_, err := parseExcess([]string{bad})
		assert.Error(t, err, bad)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestImportResolveLookup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvDBPath, filepath.Join(dir, "db", "planner.db"))
	t.Setenv(config.EnvLogLevel, "error")

	items := filepath.Join(dir, "items.yaml")
	recipes := filepath.Join(dir, "recipes.yaml")
	require.NoError(t, os.WriteFile(items, []byte(itemsYAML), 0o644))
	require.NoError(t, os.WriteFile(recipes, []byte(recipesYAML), 0o644))

	run(t, "import", "--items", items, "--recipes", recipes)

	var resolved struct {
		Root   *planner.ProductionNode `json:"root"`
		Totals []planner.ItemTotal     `json:"totals"`
	}
	out := run(t, "resolve", "iron-rod", "--rate", "30", "--excess", "plan:iron-rod=30", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	assert.Equal(t, "plan:iron-rod", resolved.Root.PathID)
	assert.InDelta(t, 60.0, resolved.Root.Children[0].RatePerMinute, 1e-9)
	require.Len(t, resolved.Totals, 3)
	assert.Equal(t, planner.KindTarget, resolved.Totals[0].Kind)
	assert.Equal(t, planner.KindRaw, resolved.Totals[2].Kind)

	text := run(t, "resolve", "iron-rod", "--rate", "30")
	assert.Contains(t, text, "iron-rod 30/min via iron-rod")
	assert.Contains(t, text, "KIND")

	var lookup planner.CatalogLookupResponse
	require.NoError(t, json.Unmarshal([]byte(run(t, "lookup", "iron-ingot", "--json")), &lookup))
	require.NotNil(t, lookup.Item)
	assert.Equal(t, "Iron Ingot", lookup.Item.Name)
	require.NotNil(t, lookup.DefaultRecipe)
	assert.Equal(t, "smelt-iron", lookup.DefaultRecipe.ID)
	assert.Equal(t, []string{"iron-rod"}, lookup.ConsumedBy)

	assert.Contains(t, run(t, "lookup", "--recipe", "iron-rod"), "iron-rod: 1 iron-ingot -> 1 iron-rod in 4s (15 cycles/min per machine)")
}
