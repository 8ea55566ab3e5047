package catalog_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog"
	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/pkg/planner"
)

type countingSource struct {
	catalog.Source
	calls atomic.Int32
	err   error
}

func (c *countingSource) RecipesProducing(ctx context.Context, itemID string) ([]planner.Recipe, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Source.RecipesProducing(ctx, itemID)
}

func (c *countingSource) DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error) {
	c.calls.Add(1)
	return c.Source.DefaultRecipeFor(ctx, itemID)
}

func TestCached_MemoizesLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := &countingSource{Source: catalogtest.New(t)}
	cached := catalog.NewCached(src, 16, time.Minute)

	first, err := cached.RecipesProducing(ctx, catalogtest.Wire)
	require.NoError(t, err)
	second, err := cached.RecipesProducing(ctx, catalogtest.Wire)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())

	// Raw items cache their nil default too.
	for range 3 {
		def, err := cached.DefaultRecipeFor(ctx, catalogtest.IronOre)
		require.NoError(t, err)
		assert.Nil(t, def)
	}
	assert.Equal(t, int32(2), src.calls.Load())

	cached.Purge()
	_, err = cached.RecipesProducing(ctx, catalogtest.Wire)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := &countingSource{Source: catalogtest.New(t), err: errors.New("catalog offline")}
	cached := catalog.NewCached(src, 16, time.Minute)

	_, err := cached.RecipesProducing(ctx, catalogtest.Wire)
	require.Error(t, err)

	src.err = nil
	recipes, err := cached.RecipesProducing(ctx, catalogtest.Wire)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCached_PassesThroughItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cached := catalog.NewCached(catalogtest.New(t), 16, time.Minute)

	item, err := cached.GetItem(ctx, catalogtest.Screw)
	require.NoError(t, err)
	require.NotNil(t, item)

	consumers, err := cached.RecipesConsuming(ctx, catalogtest.Screw)
	require.NoError(t, err)
	assert.Equal(t, []string{catalogtest.RecipeReinforcedPlate}, consumers)
}
