package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/pkg/planner"
)

func TestPickDefault(t *testing.T) {
	t.Parallel()

	slow := planner.Recipe{ID: "a-slow", CycleTimeSeconds: 10, Outputs: map[string]float64{"wire": 2}}
	fast := planner.Recipe{ID: "b-fast", CycleTimeSeconds: 4, Outputs: map[string]float64{"wire": 2}}
	bigger := planner.Recipe{ID: "c-bigger", CycleTimeSeconds: 4, Outputs: map[string]float64{"wire": 3}}
	twin := planner.Recipe{ID: "a-twin", CycleTimeSeconds: 4, Outputs: map[string]float64{"wire": 3}}
	side := planner.Recipe{ID: "0-side", CycleTimeSeconds: 1, Outputs: map[string]float64{"slag": 5, "wire": 9}, PrimaryOutput: "slag"}

	tests := []struct {
		name    string
		recipes []planner.Recipe
		want    string
	}{
		{name: "shortest cycle wins", recipes: []planner.Recipe{slow, fast}, want: "b-fast"},
		{name: "larger yield breaks cycle tie", recipes: []planner.Recipe{fast, bigger}, want: "c-bigger"},
		{name: "lowest id breaks full tie", recipes: []planner.Recipe{bigger, twin}, want: "a-twin"},
		{name: "primary producer beats byproduct", recipes: []planner.Recipe{side, slow}, want: "a-slow"},
		{name: "byproduct used when nothing else", recipes: []planner.Recipe{side}, want: "0-side"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickDefault(tt.recipes, "wire")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestPickDefault_NoProducer(t *testing.T) {
	t.Parallel()

	recipes := []planner.Recipe{{ID: "x", CycleTimeSeconds: 1, Outputs: map[string]float64{"plate": 1}}}
	assert.Nil(t, PickDefault(recipes, "wire"))
	assert.Nil(t, PickDefault(nil, "wire"))
}

func TestValidateRecipe(t *testing.T) {
	t.Parallel()

	ok := planner.Recipe{ID: "ok", Inputs: map[string]float64{"a": 1}, Outputs: map[string]float64{"b": 1}}
	assert.NoError(t, ValidateRecipe(ok))

	assert.Error(t, ValidateRecipe(planner.Recipe{Outputs: map[string]float64{"b": 1}}), "missing id")
	assert.Error(t, ValidateRecipe(planner.Recipe{ID: "none"}), "no outputs")
	assert.Error(t, ValidateRecipe(planner.Recipe{ID: "zero", Outputs: map[string]float64{"b": 0}}), "zero output")
	assert.Error(t, ValidateRecipe(planner.Recipe{ID: "neg", Inputs: map[string]float64{"a": -1}, Outputs: map[string]float64{"b": 1}}), "negative input")
	assert.Error(t, ValidateRecipe(planner.Recipe{ID: "prim", Outputs: map[string]float64{"b": 1}, PrimaryOutput: "c"}), "primary not an output")
}
