package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rsned/production-planner/internal/planner/metrics"
	"github.com/rsned/production-planner/pkg/planner"
)

const (
	lookupProducing = "producing"
	lookupRecipe    = "recipe"
	lookupDefault   = "default"
)

// Source is the catalog a Cached wraps.
type Source interface {
	RecipesProducing(ctx context.Context, itemID string) ([]planner.Recipe, error)
	RecipeByID(ctx context.Context, id string) (*planner.Recipe, error)
	DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error)
}

// ItemSource is a Source that also exposes item metadata and consumers.
type ItemSource interface {
	Source
	GetItem(ctx context.Context, id string) (*planner.Item, error)
	RecipesConsuming(ctx context.Context, itemID string) ([]string, error)
}

// Cached memoizes catalog lookups in expiring LRU caches. Misses (nil
// results) are cached too since the resolver asks for raw items often.
// Item and consumer lookups pass straight through.
type Cached struct {
	src       Source
	producing *expirable.LRU[string, []planner.Recipe]
	recipes   *expirable.LRU[string, *planner.Recipe]
	defaults  *expirable.LRU[string, *planner.Recipe]
}

// NewCached wraps src with caches of the given size and TTL.
func NewCached(src Source, size int, ttl time.Duration) *Cached {
	return &Cached{
		src:       src,
		producing: expirable.NewLRU[string, []planner.Recipe](size, nil, ttl),
		recipes:   expirable.NewLRU[string, *planner.Recipe](size, nil, ttl),
		defaults:  expirable.NewLRU[string, *planner.Recipe](size, nil, ttl),
	}
}

// RecipesProducing implements engine.Catalog.
func (c *Cached) RecipesProducing(ctx context.Context, itemID string) ([]planner.Recipe, error) {
	if recipes, ok := c.producing.Get(itemID); ok {
		metrics.CatalogCacheLookups.WithLabelValues(lookupProducing, metrics.ResultHit).Inc()
		return recipes, nil
	}
	metrics.CatalogCacheLookups.WithLabelValues(lookupProducing, metrics.ResultMiss).Inc()

	recipes, err := c.src.RecipesProducing(ctx, itemID)
	if err != nil {
		return nil, err
	}
	c.producing.Add(itemID, recipes)
	return recipes, nil
}

// RecipeByID implements engine.Catalog.
func (c *Cached) RecipeByID(ctx context.Context, id string) (*planner.Recipe, error) {
	if r, ok := c.recipes.Get(id); ok {
		metrics.CatalogCacheLookups.WithLabelValues(lookupRecipe, metrics.ResultHit).Inc()
		return r, nil
	}
	metrics.CatalogCacheLookups.WithLabelValues(lookupRecipe, metrics.ResultMiss).Inc()

	r, err := c.src.RecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.recipes.Add(id, r)
	return r, nil
}

// DefaultRecipeFor implements engine.Catalog.
func (c *Cached) DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error) {
	if r, ok := c.defaults.Get(itemID); ok {
		metrics.CatalogCacheLookups.WithLabelValues(lookupDefault, metrics.ResultHit).Inc()
		return r, nil
	}
	metrics.CatalogCacheLookups.WithLabelValues(lookupDefault, metrics.ResultMiss).Inc()

	r, err := c.src.DefaultRecipeFor(ctx, itemID)
	if err != nil {
		return nil, err
	}
	c.defaults.Add(itemID, r)
	return r, nil
}

// GetItem passes through to the source when it exposes items.
func (c *Cached) GetItem(ctx context.Context, id string) (*planner.Item, error) {
	if items, ok := c.src.(ItemSource); ok {
		return items.GetItem(ctx, id)
	}
	return nil, nil
}

// RecipesConsuming passes through to the source when it exposes consumers.
func (c *Cached) RecipesConsuming(ctx context.Context, itemID string) ([]string, error) {
	if items, ok := c.src.(ItemSource); ok {
		return items.RecipesConsuming(ctx, itemID)
	}
	return nil, nil
}

// Purge drops every cached lookup. Call it after the catalog changes.
func (c *Cached) Purge() {
	c.producing.Purge()
	c.recipes.Purge()
	c.defaults.Purge()
}
