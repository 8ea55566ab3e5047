package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/rsned/production-planner/internal/planner/catalog"
	"github.com/rsned/production-planner/pkg/planner"
)

// RecipeStore handles recipe data access.
type RecipeStore struct {
	db *DB
}

// NewRecipeStore creates a new RecipeStore.
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// RecipeByID retrieves a single recipe with its inputs, outputs and machines.
// It returns nil when the recipe does not exist.
func (s *RecipeStore) RecipeByID(ctx context.Context, id string) (*planner.Recipe, error) {
	recipe := &planner.Recipe{ID: id}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, cycle_time_sec, primary_output
		FROM recipes WHERE id = ?
	`, id).Scan(&recipe.Name, &recipe.CycleTimeSeconds, &recipe.PrimaryOutput)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying recipe: %w", err)
	}

	if recipe.Inputs, err = s.getAmounts(ctx, "recipe_inputs", id); err != nil {
		return nil, err
	}
	if recipe.Outputs, err = s.getAmounts(ctx, "recipe_outputs", id); err != nil {
		return nil, err
	}
	if recipe.ProducerMachineIDs, err = s.getRecipeMachines(ctx, id); err != nil {
		return nil, err
	}

	return recipe, nil
}

// getAmounts reads the item amounts of a recipe from recipe_inputs or
// recipe_outputs.
func (s *RecipeStore) getAmounts(ctx context.Context, table, recipeID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT item_id, amount FROM %s WHERE recipe_id = ?`, table),
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	amounts := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var amount float64
		if err := rows.Scan(&itemID, &amount); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		amounts[itemID] = amount
	}

	return amounts, rows.Err()
}

func (s *RecipeStore) getRecipeMachines(ctx context.Context, recipeID string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT machine_id FROM recipe_machines
		WHERE recipe_id = ?
		ORDER BY machine_id
	`, recipeID)
}

// RecipesProducing returns every recipe with itemID among its outputs,
// ordered by id.
func (s *RecipeStore) RecipesProducing(ctx context.Context, itemID string) ([]planner.Recipe, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT recipe_id FROM recipe_outputs
		WHERE item_id = ?
		ORDER BY recipe_id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding recipes by output: %w", err)
	}

	var recipes []planner.Recipe
	for _, id := range ids {
		r, err := s.RecipeByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading recipe %s: %w", id, err)
		}
		if r != nil {
			recipes = append(recipes, *r)
		}
	}
	return recipes, nil
}

// RecipesConsuming returns the ids of recipes that use itemID as an input.
func (s *RecipeStore) RecipesConsuming(ctx context.Context, itemID string) ([]string, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT DISTINCT recipe_id FROM recipe_inputs
		WHERE item_id = ?
		ORDER BY recipe_id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding recipes using item: %w", err)
	}
	return ids, nil
}

// DefaultRecipeFor returns the pinned default recipe for an item, falling
// back to catalog.PickDefault over its producers. Raw items return nil.
func (s *RecipeStore) DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error) {
	var recipeID string
	err := s.db.QueryRowContext(ctx,
		`SELECT recipe_id FROM default_recipes WHERE item_id = ?`,
		itemID,
	).Scan(&recipeID)
	switch {
	case err == nil:
		return s.RecipeByID(ctx, recipeID)
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("querying default recipe: %w", err)
	}

	recipes, err := s.RecipesProducing(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return catalog.PickDefault(recipes, itemID), nil
}

// SearchRecipes searches recipes by name (case-insensitive partial match).
func (s *RecipeStore) SearchRecipes(ctx context.Context, term string, limit int) ([]string, error) {
	ids, err := s.queryIDs(ctx, `
		SELECT id FROM recipes
		WHERE name LIKE ?
		ORDER BY id
		LIMIT ?
	`, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching recipes: %w", err)
	}
	return ids, nil
}

// CountRecipes returns the total number of recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

// BulkInsertRecipes validates and inserts multiple recipes in a transaction.
// Existing recipes with the same id are replaced.
func (s *RecipeStore) BulkInsertRecipes(ctx context.Context, recipes []planner.Recipe) error {
	for _, r := range recipes {
		if err := catalog.ValidateRecipe(r); err != nil {
			return err
		}
	}

	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		recipeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipes (id, name, cycle_time_sec, primary_output)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				cycle_time_sec = excluded.cycle_time_sec,
				primary_output = excluded.primary_output
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe statement: %w", err)
		}
		defer func() { _ = recipeStmt.Close() }()

		inStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipe_inputs (recipe_id, item_id, amount) VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing input statement: %w", err)
		}
		defer func() { _ = inStmt.Close() }()

		outStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recipe_outputs (recipe_id, item_id, amount) VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing output statement: %w", err)
		}
		defer func() { _ = outStmt.Close() }()

		machineStmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO recipe_machines (recipe_id, machine_id) VALUES (?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing machine statement: %w", err)
		}
		defer func() { _ = machineStmt.Close() }()

		for _, r := range recipes {
			for _, table := range []string{"recipe_inputs", "recipe_outputs", "recipe_machines"} {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = ?`, table), r.ID); err != nil {
					return fmt.Errorf("clearing %s for %s: %w", table, r.ID, err)
				}
			}

			if _, err := recipeStmt.ExecContext(ctx, r.ID, r.Name, r.CycleTimeSeconds, r.PrimaryOutput); err != nil {
				return fmt.Errorf("inserting recipe %s: %w", r.ID, err)
			}
			for _, itemID := range r.InputIDs() {
				if _, err := inStmt.ExecContext(ctx, r.ID, itemID, r.Inputs[itemID]); err != nil {
					return fmt.Errorf("inserting input for %s: %w", r.ID, err)
				}
			}
			for _, itemID := range r.OutputIDs() {
				if _, err := outStmt.ExecContext(ctx, r.ID, itemID, r.Outputs[itemID]); err != nil {
					return fmt.Errorf("inserting output for %s: %w", r.ID, err)
				}
			}
			for _, machineID := range r.ProducerMachineIDs {
				if _, err := machineStmt.ExecContext(ctx, r.ID, machineID); err != nil {
					return fmt.Errorf("inserting machine for %s: %w", r.ID, err)
				}
			}
		}

		return nil
	})
}

// SetDefaultRecipes pins default recipes, keyed by item id.
func (s *RecipeStore) SetDefaultRecipes(ctx context.Context, defaults map[string]string) error {
	items := make([]string, 0, len(defaults))
	for itemID := range defaults {
		items = append(items, itemID)
	}
	sort.Strings(items)

	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		for _, itemID := range items {
			recipeID := defaults[itemID]
			var produces int
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM recipe_outputs WHERE recipe_id = ? AND item_id = ?
			`, recipeID, itemID).Scan(&produces)
			if err != nil {
				return fmt.Errorf("checking default recipe for %s: %w", itemID, err)
			}
			if produces == 0 {
				return fmt.Errorf("default recipe %s does not produce %s", recipeID, itemID)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO default_recipes (item_id, recipe_id) VALUES (?, ?)
				ON CONFLICT(item_id) DO UPDATE SET recipe_id = excluded.recipe_id
			`, itemID, recipeID)
			if err != nil {
				return fmt.Errorf("setting default recipe for %s: %w", itemID, err)
			}
		}
		return nil
	})
}

// ClearRecipes removes all recipe data (for re-sync).
func (s *RecipeStore) ClearRecipes(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys cascade to inputs, outputs, machines and defaults.
		_, err := tx.ExecContext(ctx, `DELETE FROM recipes`)
		return err
	})
}

func (s *RecipeStore) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	return queryStrings(ctx, s.db, query, args...)
}

// queryStrings runs a single-column query and collects the results.
func queryStrings(ctx context.Context, db *DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		out = append(out, v)
	}

	return out, rows.Err()
}
