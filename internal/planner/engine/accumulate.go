package engine

import (
	"sort"

	"github.com/rsned/production-planner/pkg/planner"
)

// Accumulate flattens a tree into a per-node ledger keyed by path id.
// Import nodes are skipped: their demand is carried by the source tree root.
func Accumulate(root *planner.ProductionNode) map[string]planner.AccumulatedEntry {
	ledger := make(map[string]planner.AccumulatedEntry)
	accumulateInto(ledger, "", root)
	return ledger
}

// AccumulateAll merges the ledgers of every tree. Path ids are namespaced
// by tree so entries never collide.
func AccumulateAll(trees map[string]*planner.ProductionNode) map[string]planner.AccumulatedEntry {
	ledger := make(map[string]planner.AccumulatedEntry)
	for treeID, root := range trees {
		accumulateInto(ledger, treeID, root)
	}
	return ledger
}

func accumulateInto(ledger map[string]planner.AccumulatedEntry, treeID string, root *planner.ProductionNode) {
	root.Walk(func(n *planner.ProductionNode) bool {
		if n.IsImport {
			return false
		}
		ledger[n.PathID] = planner.AccumulatedEntry{
			TreeID:              treeID,
			ItemID:              n.ItemID,
			TotalRatePerMinute:  n.RatePerMinute,
			ExcessUnits:         n.ExcessUnits,
			ContributingNodeIDs: []string{n.PathID},
			IsByproduct:         n.IsByproduct,
			SelectedRecipeID:    n.SelectedRecipeID,
			Depth:               n.Depth,
		}
		return true
	})
}

type itemKey struct {
	itemID    string
	recipeID  string
	byproduct bool
}

var kindOrder = map[planner.ItemKind]int{
	planner.KindTarget:       0,
	planner.KindIntermediate: 1,
	planner.KindRaw:          2,
	planner.KindByproduct:    3,
}

// ItemTotals groups a ledger by item and selected recipe.
func ItemTotals(ledger map[string]planner.AccumulatedEntry) []planner.ItemTotal {
	groups := make(map[itemKey]*planner.ItemTotal)
	for _, entry := range ledger {
		key := itemKey{itemID: entry.ItemID, recipeID: entry.SelectedRecipeID, byproduct: entry.IsByproduct}
		total, ok := groups[key]
		if !ok {
			total = &planner.ItemTotal{
				ItemID:   entry.ItemID,
				RecipeID: entry.SelectedRecipeID,
				Kind:     entryKind(entry),
			}
			groups[key] = total
		}
		if entry.Depth == 0 && !entry.IsByproduct {
			total.Kind = planner.KindTarget
		}
		total.TotalRatePerMinute += entry.TotalRatePerMinute
		total.NodeCount += len(entry.ContributingNodeIDs)
	}

	totals := make([]planner.ItemTotal, 0, len(groups))
	for _, t := range groups {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if kindOrder[totals[i].Kind] != kindOrder[totals[j].Kind] {
			return kindOrder[totals[i].Kind] < kindOrder[totals[j].Kind]
		}
		if totals[i].ItemID != totals[j].ItemID {
			return totals[i].ItemID < totals[j].ItemID
		}
		return totals[i].RecipeID < totals[j].RecipeID
	})
	return totals
}

func entryKind(entry planner.AccumulatedEntry) planner.ItemKind {
	switch {
	case entry.IsByproduct:
		return planner.KindByproduct
	case entry.Depth == 0:
		return planner.KindTarget
	case entry.SelectedRecipeID == "":
		return planner.KindRaw
	default:
		return planner.KindIntermediate
	}
}
