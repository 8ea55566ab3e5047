package engine

import (
	"context"
	"fmt"

	"github.com/rsned/production-planner/pkg/planner"
)

// CatalogLookup executes the catalog_lookup tool logic.
func (e *Engine) CatalogLookup(ctx context.Context, req planner.CatalogLookupRequest) (*planner.CatalogLookupResponse, error) {
	resp := &planner.CatalogLookupResponse{}

	if req.RecipeID != "" {
		recipe, err := e.catalog.RecipeByID(ctx, req.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up recipe %s: %w", req.RecipeID, err)
		}
		resp.Recipe = recipe
	}

	if req.ItemID == "" {
		return resp, nil
	}

	items, hasItems := e.catalog.(ItemCatalog)
	if hasItems {
		item, err := items.GetItem(ctx, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up item %s: %w", req.ItemID, err)
		}
		resp.Item = item
	}

	producing, err := e.catalog.RecipesProducing(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes producing %s: %w", req.ItemID, err)
	}
	resp.ProducedBy = producing

	def, err := e.catalog.DefaultRecipeFor(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default recipe for %s: %w", req.ItemID, err)
	}
	resp.DefaultRecipe = def

	if hasItems {
		consumers, err := items.RecipesConsuming(ctx, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to list recipes consuming %s: %w", req.ItemID, err)
		}
		resp.ConsumedBy = consumers
	}

	return resp, nil
}
