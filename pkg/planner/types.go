// Package planner contains the core types for the production planner.
package planner

import "sort"

// ============================================
// CATALOG TYPES
// ============================================

// Item is a catalog item that can be produced or consumed.
type Item struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Machine is a catalog machine able to run recipes.
type Machine struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	PowerMW  float64 `json:"power_mw,omitempty" yaml:"power_mw,omitempty"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
}

// Recipe converts inputs into outputs once per cycle.
type Recipe struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	ProducerMachineIDs []string           `json:"producer_machine_ids,omitempty" yaml:"producer_machine_ids,omitempty"`
	CycleTimeSeconds   float64            `json:"cycle_time_seconds" yaml:"cycle_time_seconds"`
	Inputs             map[string]float64 `json:"inputs" yaml:"inputs"`
	Outputs            map[string]float64 `json:"outputs" yaml:"outputs"`
	// PrimaryOutput names the output the recipe is meant for. Empty means
	// every output is treated as primary.
	PrimaryOutput string `json:"primary_output,omitempty" yaml:"primary_output,omitempty"`
}

// OutputAmount returns how much of itemID one cycle produces.
func (r *Recipe) OutputAmount(itemID string) float64 {
	return r.Outputs[itemID]
}

// Produces reports whether itemID is one of the recipe outputs.
func (r *Recipe) Produces(itemID string) bool {
	_, ok := r.Outputs[itemID]
	return ok
}

// IsPrimaryFor reports whether itemID is the recipe's intended product.
func (r *Recipe) IsPrimaryFor(itemID string) bool {
	if !r.Produces(itemID) {
		return false
	}
	return r.PrimaryOutput == "" || r.PrimaryOutput == itemID
}

// CyclesPerMinute is how often one machine completes the recipe.
func (r *Recipe) CyclesPerMinute() float64 {
	if r.CycleTimeSeconds <= 0 {
		return 0
	}
	return 60 / r.CycleTimeSeconds
}

// InputIDs returns the input item ids in a stable order.
func (r *Recipe) InputIDs() []string {
	return sortedKeys(r.Inputs)
}

// OutputIDs returns the output item ids in a stable order.
func (r *Recipe) OutputIDs() []string {
	return sortedKeys(r.Outputs)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================
// PRODUCTION TREE TYPES
// ============================================

// ProductionNode is one item in a resolved production chain.
//
// PathID is derived from the node position (parent path, item, depth) and
// is stable as long as the tree shape is unchanged. It addresses recipe
// and excess overrides as well as the node cache.
type ProductionNode struct {
	ItemID           string   `json:"item_id"`
	RatePerMinute    float64  `json:"rate_per_minute"`
	PathID           string   `json:"path_id"`
	Depth            int      `json:"depth"`
	IsRoot           bool     `json:"is_root,omitempty"`
	IsByproduct      bool     `json:"is_byproduct,omitempty"`
	SelectedRecipeID string   `json:"selected_recipe_id,omitempty"`
	AvailableRecipes []Recipe `json:"available_recipes,omitempty"`
	ExcessUnits      float64  `json:"excess_units,omitempty"`
	// CyclesPerMinute is the recipe cycles needed to meet demand plus excess.
	CyclesPerMinute    float64           `json:"cycles_per_minute,omitempty"`
	Children           []*ProductionNode `json:"children,omitempty"`
	IsImport           bool              `json:"is_import,omitempty"`
	ImportSourceTreeID string            `json:"import_source_tree_id,omitempty"`
	SavedChildren      []*ProductionNode `json:"saved_children,omitempty"`
	// Unresolved holds the reason a node could not be expanded, e.g. a
	// broken recipe. Such nodes are leaves.
	Unresolved string `json:"unresolved,omitempty"`
}

// ProductionTree is a named production chain rooted at a target item.
type ProductionTree struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ItemID        string          `json:"item_id"`
	RatePerMinute float64         `json:"rate_per_minute"`
	RecipeID      string          `json:"recipe_id,omitempty"`
	Root          *ProductionNode `json:"root"`
}

// ============================================
// ACCUMULATION TYPES
// ============================================

// AccumulatedEntry is one row of the per-node ledger.
type AccumulatedEntry struct {
	TreeID              string   `json:"tree_id,omitempty"`
	ItemID              string   `json:"item_id"`
	TotalRatePerMinute  float64  `json:"total_rate_per_minute"`
	ExcessUnits         float64  `json:"excess_units,omitempty"`
	ContributingNodeIDs []string `json:"contributing_node_ids"`
	IsByproduct         bool     `json:"is_byproduct,omitempty"`
	SelectedRecipeID    string   `json:"selected_recipe_id,omitempty"`
	Depth               int      `json:"depth"`
}

// ItemKind classifies an aggregated item.
type ItemKind string

const (
	KindTarget       ItemKind = "target"
	KindIntermediate ItemKind = "intermediate"
	KindRaw          ItemKind = "raw"
	KindByproduct    ItemKind = "byproduct"
)

// ItemTotal is the per-item aggregate of the ledger.
type ItemTotal struct {
	ItemID             string   `json:"item_id"`
	RecipeID           string   `json:"recipe_id,omitempty"`
	TotalRatePerMinute float64  `json:"total_rate_per_minute"`
	NodeCount          int      `json:"node_count"`
	Kind               ItemKind `json:"kind"`
}

// ============================================
// SNAPSHOT TYPES
// ============================================

// SnapshotVersion is the current snapshot layout version.
const SnapshotVersion = 1

// Snapshot holds everything needed to rebuild a plan.
type Snapshot struct {
	Version         int                `json:"version"`
	Trees           []TreeSnapshot     `json:"trees"`
	RecipeOverrides map[string]string  `json:"recipe_overrides,omitempty"`
	Excess          map[string]float64 `json:"excess,omitempty"`
	Imports         []ImportRecord     `json:"imports,omitempty"`
}

// TreeSnapshot is the persisted form of a ProductionTree.
type TreeSnapshot struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ItemID        string  `json:"item_id"`
	RatePerMinute float64 `json:"rate_per_minute"`
	RecipeID      string  `json:"recipe_id,omitempty"`
}

// ImportRecord describes one consumer node satisfied by a source tree.
type ImportRecord struct {
	ConsumerTreeID string  `json:"consumer_tree_id"`
	ConsumerPathID string  `json:"consumer_path_id"`
	SourceTreeID   string  `json:"source_tree_id"`
	RatePerMinute  float64 `json:"rate_per_minute,omitempty"`
}

// PlanInfo describes a stored plan snapshot.
type PlanInfo struct {
	Name      string `json:"name"`
	TreeCount int    `json:"tree_count"`
	UpdatedAt string `json:"updated_at"`
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// AddTreeRequest is the input for the add_tree tool.
type AddTreeRequest struct {
	TreeID        string  `json:"tree_id,omitempty" validate:"omitempty,max=128,excludesall=:/"`
	Name          string  `json:"name,omitempty" validate:"omitempty,max=256"`
	ItemID        string  `json:"item_id" validate:"required"`
	RatePerMinute float64 `json:"rate_per_minute" validate:"gte=0"`
	RecipeID      string  `json:"recipe_id,omitempty"`
}

// TreeRequest identifies a single tree.
type TreeRequest struct {
	TreeID string `json:"tree_id" validate:"required"`
}

// SetTreeRateRequest is the input for the set_tree_rate tool.
type SetTreeRateRequest struct {
	TreeID        string  `json:"tree_id" validate:"required"`
	RatePerMinute float64 `json:"rate_per_minute" validate:"gte=0"`
}

// SetRecipeRequest is the input for the set_recipe tool.
type SetRecipeRequest struct {
	TreeID   string `json:"tree_id" validate:"required"`
	PathID   string `json:"path_id" validate:"required"`
	RecipeID string `json:"recipe_id,omitempty"`
}

// SetExcessRequest is the input for the set_excess tool.
type SetExcessRequest struct {
	TreeID string  `json:"tree_id" validate:"required"`
	PathID string  `json:"path_id" validate:"required"`
	Units  float64 `json:"units" validate:"gte=0"`
}

// CreateImportRequest is the input for the create_import tool.
type CreateImportRequest struct {
	ConsumerTreeID string `json:"consumer_tree_id" validate:"required"`
	ConsumerPathID string `json:"consumer_path_id" validate:"required"`
	SourceTreeID   string `json:"source_tree_id" validate:"required"`
}

// RemoveImportRequest is the input for the remove_import tool.
type RemoveImportRequest struct {
	ConsumerTreeID string `json:"consumer_tree_id" validate:"required"`
	ConsumerPathID string `json:"consumer_path_id" validate:"required"`
}

// AffectedPathsRequest is the input for the affected_paths tool.
type AffectedPathsRequest struct {
	TreeID string `json:"tree_id" validate:"required"`
	PathID string `json:"path_id" validate:"required"`
}

// PlanQueryRequest optionally narrows a plan read to one tree.
type PlanQueryRequest struct {
	TreeID string `json:"tree_id,omitempty"`
}

// PlanNameRequest identifies a stored plan.
type PlanNameRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// CatalogLookupRequest is the input for the catalog_lookup tool.
type CatalogLookupRequest struct {
	ItemID   string `json:"item_id,omitempty" validate:"required_without=RecipeID"`
	RecipeID string `json:"recipe_id,omitempty"`
}

// CatalogLookupResponse is the output for the catalog_lookup tool.
type CatalogLookupResponse struct {
	Item          *Item    `json:"item,omitempty"`
	Recipe        *Recipe  `json:"recipe,omitempty"`
	DefaultRecipe *Recipe  `json:"default_recipe,omitempty"`
	ProducedBy    []Recipe `json:"produced_by,omitempty"`
	ConsumedBy    []string `json:"consumed_by,omitempty"`
}

// PlanResponse is the output for tools returning the whole plan.
type PlanResponse struct {
	Trees   []*ProductionTree `json:"trees"`
	Imports []ImportRecord    `json:"imports,omitempty"`
}

// AffectedPathsResponse is the output for the affected_paths tool.
type AffectedPathsResponse struct {
	PathIDs []string `json:"path_ids"`
}
