// Package catalogtest provides a small factory catalog for tests.
package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog"
	"github.com/rsned/production-planner/pkg/planner"
)

// Items used by the factory catalog.
const (
	IronOre         = "iron-ore"
	IronIngot       = "iron-ingot"
	IronRod         = "iron-rod"
	IronPlate       = "iron-plate"
	Screw           = "screw"
	ReinforcedPlate = "reinforced-plate"
	CopperOre       = "copper-ore"
	CopperIngot     = "copper-ingot"
	Wire            = "wire"
	Cable           = "cable"
	CrudeOil        = "crude-oil"
	Plastic         = "plastic"
	Rubber          = "rubber"
	HeavyOil        = "heavy-oil-residue"
)

// Recipes used by the factory catalog.
const (
	RecipeSmeltIron       = "smelt-iron"
	RecipeIronRod         = "iron-rod"
	RecipeIronPlate       = "iron-plate"
	RecipeScrew           = "screw"
	RecipeReinforcedPlate = "reinforced-plate"
	RecipeSmeltCopper     = "smelt-copper"
	RecipeWire            = "wire"
	RecipeIronWire        = "alt-iron-wire"
	RecipeCable           = "cable"
	RecipePlastic         = "plastic"
	RecipeRubber          = "rubber"
)

// Recipes returns the factory recipe list.
func Recipes() []planner.Recipe {
	return []planner.Recipe{
		{ID: RecipeSmeltIron, Name: "Iron Ingot", ProducerMachineIDs: []string{"smelter"}, CycleTimeSeconds: 2,
			Inputs: map[string]float64{IronOre: 1}, Outputs: map[string]float64{IronIngot: 1}},
		{ID: RecipeIronRod, Name: "Iron Rod", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 4,
			Inputs: map[string]float64{IronIngot: 1}, Outputs: map[string]float64{IronRod: 1}},
		{ID: RecipeIronPlate, Name: "Iron Plate", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 6,
			Inputs: map[string]float64{IronIngot: 3}, Outputs: map[string]float64{IronPlate: 2}},
		{ID: RecipeScrew, Name: "Screw", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 6,
			Inputs: map[string]float64{IronRod: 1}, Outputs: map[string]float64{Screw: 4}},
		{ID: RecipeReinforcedPlate, Name: "Reinforced Iron Plate", ProducerMachineIDs: []string{"assembler"}, CycleTimeSeconds: 12,
			Inputs: map[string]float64{IronPlate: 6, Screw: 12}, Outputs: map[string]float64{ReinforcedPlate: 1}},
		{ID: RecipeSmeltCopper, Name: "Copper Ingot", ProducerMachineIDs: []string{"smelter"}, CycleTimeSeconds: 2,
			Inputs: map[string]float64{CopperOre: 1}, Outputs: map[string]float64{CopperIngot: 1}},
		{ID: RecipeWire, Name: "Wire", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 4,
			Inputs: map[string]float64{CopperIngot: 1}, Outputs: map[string]float64{Wire: 2}},
		{ID: RecipeIronWire, Name: "Alternate: Iron Wire", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 24,
			Inputs: map[string]float64{IronIngot: 5}, Outputs: map[string]float64{Wire: 9}},
		{ID: RecipeCable, Name: "Cable", ProducerMachineIDs: []string{"constructor"}, CycleTimeSeconds: 2,
			Inputs: map[string]float64{Wire: 2}, Outputs: map[string]float64{Cable: 1}},
		{ID: RecipePlastic, Name: "Plastic", ProducerMachineIDs: []string{"refinery"}, CycleTimeSeconds: 6,
			Inputs: map[string]float64{CrudeOil: 3}, Outputs: map[string]float64{Plastic: 2, HeavyOil: 1}, PrimaryOutput: Plastic},
		{ID: RecipeRubber, Name: "Rubber", ProducerMachineIDs: []string{"refinery"}, CycleTimeSeconds: 6,
			Inputs: map[string]float64{CrudeOil: 3}, Outputs: map[string]float64{Rubber: 2, HeavyOil: 2}, PrimaryOutput: Rubber},
	}
}

// New returns a Memory catalog loaded with the factory items and recipes.
func New(tb testing.TB) *catalog.Memory {
	tb.Helper()

	cat := catalog.NewMemory()
	for _, id := range []string{
		IronOre, IronIngot, IronRod, IronPlate, Screw, ReinforcedPlate,
		CopperOre, CopperIngot, Wire, Cable, CrudeOil, Plastic, Rubber, HeavyOil,
	} {
		cat.AddItem(planner.Item{ID: id, Name: id})
	}
	for _, m := range []string{"smelter", "constructor", "assembler", "refinery"} {
		cat.AddMachine(planner.Machine{ID: m, Name: m})
	}
	for _, r := range Recipes() {
		require.NoError(tb, cat.AddRecipe(r))
	}
	return cat
}
