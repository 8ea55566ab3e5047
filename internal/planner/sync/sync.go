// Package sync imports catalog data files into the planner database.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rsned/production-planner/internal/logger"
	"github.com/rsned/production-planner/internal/planner/db"
	"github.com/rsned/production-planner/pkg/planner"
)

// Syncer handles catalog imports.
type Syncer struct {
	db *db.DB
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{db: database}
}

// Files names the catalog files for a full import. Empty entries are skipped.
type Files struct {
	Items    string
	Machines string
	Recipes  string
	Defaults string
}

// RecipeImport is the accepted on-disk recipe format. Amounts may be given
// as a list of entries or, for hand-written files, a plain item to amount map.
type RecipeImport struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	CycleTimeSeconds float64            `json:"cycle_time_seconds,omitempty" yaml:"cycle_time_seconds,omitempty"`
	CraftTimeSec     float64            `json:"craft_time_sec,omitempty" yaml:"craft_time_sec,omitempty"`
	Machines         []string           `json:"machines,omitempty" yaml:"machines,omitempty"`
	Inputs           []AmountImport     `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs          []AmountImport     `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	InputMap         map[string]float64 `json:"input_map,omitempty" yaml:"input_map,omitempty"`
	OutputMap        map[string]float64 `json:"output_map,omitempty" yaml:"output_map,omitempty"`
	PrimaryOutput    string             `json:"primary_output,omitempty" yaml:"primary_output,omitempty"`
}

// AmountImport is one input or output entry of a recipe.
type AmountImport struct {
	ItemID   string  `json:"item_id,omitempty" yaml:"item_id,omitempty"`
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Amount   float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Quantity float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// ImportAll imports every file named in files, items and machines first.
func (s *Syncer) ImportAll(ctx context.Context, files Files) error {
	steps := []struct {
		path string
		fn   func(context.Context, string) error
	}{
		{files.Items, s.ImportItemsFromFile},
		{files.Machines, s.ImportMachinesFromFile},
		{files.Recipes, s.ImportRecipesFromFile},
		{files.Defaults, s.ImportDefaultsFromFile},
	}
	for _, step := range steps {
		if step.path == "" {
			continue
		}
		if err := step.fn(ctx, step.path); err != nil {
			return fmt.Errorf("importing %s: %w", step.path, err)
		}
	}
	return nil
}

// ImportItemsFromFile imports items from a JSON or YAML file.
func (s *Syncer) ImportItemsFromFile(ctx context.Context, path string) error {
	var items []planner.Item
	if err := decodeFile(path, &items); err != nil {
		return err
	}

	if err := db.NewItemStore(s.db).BulkInsertItems(ctx, items); err != nil {
		return fmt.Errorf("inserting items: %w", err)
	}
	return s.recordSync(ctx, "items", len(items))
}

// ImportMachinesFromFile imports machines from a JSON or YAML file.
func (s *Syncer) ImportMachinesFromFile(ctx context.Context, path string) error {
	var machines []planner.Machine
	if err := decodeFile(path, &machines); err != nil {
		return err
	}

	if err := db.NewMachineStore(s.db).BulkInsertMachines(ctx, machines); err != nil {
		return fmt.Errorf("inserting machines: %w", err)
	}
	return s.recordSync(ctx, "machines", len(machines))
}

// ImportRecipesFromFile imports recipes from a JSON or YAML file.
func (s *Syncer) ImportRecipesFromFile(ctx context.Context, path string) error {
	var imports []RecipeImport
	if err := decodeFile(path, &imports); err != nil {
		return err
	}

	recipes := make([]planner.Recipe, 0, len(imports))
	for _, imp := range imports {
		recipes = append(recipes, transformRecipe(imp))
	}

	if err := db.NewRecipeStore(s.db).BulkInsertRecipes(ctx, recipes); err != nil {
		return fmt.Errorf("inserting recipes: %w", err)
	}
	return s.recordSync(ctx, "recipes", len(recipes))
}

// ImportDefaultsFromFile imports an item id to default recipe id mapping.
func (s *Syncer) ImportDefaultsFromFile(ctx context.Context, path string) error {
	var defaults map[string]string
	if err := decodeFile(path, &defaults); err != nil {
		return err
	}

	if err := db.NewRecipeStore(s.db).SetDefaultRecipes(ctx, defaults); err != nil {
		return fmt.Errorf("setting default recipes: %w", err)
	}
	return s.recordSync(ctx, "defaults", len(defaults))
}

// ClearAll removes all recipe data from the database.
func (s *Syncer) ClearAll(ctx context.Context) error {
	return db.NewRecipeStore(s.db).ClearRecipes(ctx)
}

func (s *Syncer) recordSync(ctx context.Context, kind string, count int) error {
	if err := s.db.SetSyncMetadata(ctx, kind+"_last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.db.SetSyncMetadata(ctx, kind+"_count", fmt.Sprintf("%d", count)); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Imported catalog data", "kind", kind, "count", count)
	return nil
}

// decodeFile reads path as YAML when its extension says so, JSON otherwise.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing JSON: %w", err)
		}
	}
	return nil
}

// transformRecipe converts import format to domain format.
func transformRecipe(imp RecipeImport) planner.Recipe {
	recipe := planner.Recipe{
		ID:                 imp.ID,
		Name:               imp.Name,
		CycleTimeSeconds:   imp.CycleTimeSeconds,
		ProducerMachineIDs: imp.Machines,
		PrimaryOutput:      imp.PrimaryOutput,
		Inputs:             make(map[string]float64),
		Outputs:            make(map[string]float64),
	}
	if recipe.CycleTimeSeconds == 0 {
		recipe.CycleTimeSeconds = imp.CraftTimeSec
	}

	addAmounts(recipe.Inputs, imp.Inputs, imp.InputMap)
	addAmounts(recipe.Outputs, imp.Outputs, imp.OutputMap)

	return recipe
}

func addAmounts(dst map[string]float64, entries []AmountImport, plain map[string]float64) {
	for _, e := range entries {
		itemID := e.ItemID
		if itemID == "" {
			itemID = e.ID
		}
		if itemID == "" {
			continue
		}
		amount := e.Amount
		if amount == 0 {
			amount = e.Quantity
		}
		if amount == 0 {
			amount = 1
		}
		dst[itemID] += amount
	}
	for itemID, amount := range plain {
		dst[itemID] += amount
	}
}
