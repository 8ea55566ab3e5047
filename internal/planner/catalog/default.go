// Package catalog provides Catalog implementations for the resolver.
package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/rsned/production-planner/pkg/planner"
)

// PickDefault chooses the recipe used for itemID when no override or
// explicit default exists. Primary producers win, then the fastest cycle,
// then the largest yield, then the lowest id.
func PickDefault(recipes []planner.Recipe, itemID string) *planner.Recipe {
	var best *planner.Recipe
	for i := range recipes {
		r := &recipes[i]
		if !r.Produces(itemID) {
			continue
		}
		if best == nil || better(r, best, itemID) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

func better(a, b *planner.Recipe, itemID string) bool {
	if ap, bp := a.IsPrimaryFor(itemID), b.IsPrimaryFor(itemID); ap != bp {
		return ap
	}
	if a.CycleTimeSeconds != b.CycleTimeSeconds {
		return a.CycleTimeSeconds < b.CycleTimeSeconds
	}
	if ao, bo := a.OutputAmount(itemID), b.OutputAmount(itemID); ao != bo {
		return ao > bo
	}
	return a.ID < b.ID
}

// ValidateRecipe checks the structural rules a catalog recipe must follow.
func ValidateRecipe(r planner.Recipe) error {
	if r.ID == "" {
		return fmt.Errorf("recipe has no id")
	}
	if len(r.Outputs) == 0 {
		return fmt.Errorf("recipe %s has no outputs", r.ID)
	}
	for id, amount := range r.Outputs {
		if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return fmt.Errorf("recipe %s output %s has invalid amount %v", r.ID, id, amount)
		}
	}
	for id, amount := range r.Inputs {
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return fmt.Errorf("recipe %s input %s has invalid amount %v", r.ID, id, amount)
		}
	}
	if r.PrimaryOutput != "" && !r.Produces(r.PrimaryOutput) {
		return fmt.Errorf("recipe %s primary output %s is not an output", r.ID, r.PrimaryOutput)
	}
	return nil
}

func sortRecipes(recipes []planner.Recipe) {
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
}
