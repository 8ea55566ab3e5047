package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/pkg/planner"
)

// stubCatalog serves hand-built recipes, including ones a real catalog
// would refuse to load.
type stubCatalog struct {
	recipes  map[string]planner.Recipe
	defaults map[string]string
	fail     map[string]error
}

func newStubCatalog(recipes ...planner.Recipe) *stubCatalog {
	s := &stubCatalog{
		recipes:  make(map[string]planner.Recipe),
		defaults: make(map[string]string),
		fail:     make(map[string]error),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
		for out := range r.Outputs {
			if _, ok := s.defaults[out]; !ok {
				s.defaults[out] = r.ID
			}
		}
	}
	return s
}

func (s *stubCatalog) RecipesProducing(_ context.Context, itemID string) ([]planner.Recipe, error) {
	if err := s.fail[itemID]; err != nil {
		return nil, err
	}
	var out []planner.Recipe
	for _, r := range s.recipes {
		if r.Produces(itemID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubCatalog) RecipeByID(_ context.Context, id string) (*planner.Recipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *stubCatalog) DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error) {
	if err := s.fail[itemID]; err != nil {
		return nil, err
	}
	id, ok := s.defaults[itemID]
	if !ok {
		return nil, nil
	}
	return s.RecipeByID(ctx, id)
}

var errCatalogDown = errors.New("catalog unavailable")

func newFactoryEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return New(catalogtest.New(t), opts...)
}

func resolveTree(t *testing.T, e *Engine, req Request) *planner.ProductionNode {
	t.Helper()
	root, err := e.ResolveTree(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func childByItem(t *testing.T, n *planner.ProductionNode, itemID string) *planner.ProductionNode {
	t.Helper()
	for _, c := range n.Children {
		if c.ItemID == itemID {
			return c
		}
	}
	require.Failf(t, "child not found", "%s has no child %s", n.PathID, itemID)
	return nil
}
