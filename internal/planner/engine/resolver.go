package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rsned/production-planner/internal/logger"
	"github.com/rsned/production-planner/internal/planner/metrics"
	"github.com/rsned/production-planner/pkg/planner"
)

// rateTolerance absorbs floating point drift when comparing rates.
const rateTolerance = 1e-9

// Import marks a node as satisfied by another tree.
type Import struct {
	SourceTreeID  string
	SavedChildren []*planner.ProductionNode
}

// Request describes the resolution of one production tree.
type Request struct {
	TreeID        string
	ItemID        string
	RatePerMinute float64
	// RecipeID is the recipe chosen for the root, if any.
	RecipeID        string
	RecipeOverrides map[string]string
	Excess          map[string]float64
	Imports         map[string]Import
	// Affected lists the path ids that must bypass the cache. When empty the
	// cache is only written to, never read.
	Affected map[string]struct{}
	Cache    Cache
}

// lineage is the chain of item ids from the root down to a node.
type lineage struct {
	itemID string
	parent *lineage
}

func (l *lineage) contains(itemID string) bool {
	for cur := l; cur != nil; cur = cur.parent {
		if cur.itemID == itemID {
			return true
		}
	}
	return false
}

// ResolveTree resolves the root of a tree described by req.
func (e *Engine) ResolveTree(ctx context.Context, req Request) (*planner.ProductionNode, error) {
	if req.RatePerMinute < 0 || math.IsNaN(req.RatePerMinute) || math.IsInf(req.RatePerMinute, 0) {
		return nil, fmt.Errorf("%w: %v", planner.ErrInvalidDemand, req.RatePerMinute)
	}
	return e.resolve(ctx, &req, req.ItemID, req.RatePerMinute, 0, "", nil)
}

// Resolve resolves itemID at the given position. An empty parentPath
// resolves a root.
func (e *Engine) Resolve(ctx context.Context, req Request, itemID string, demand float64, depth int, parentPath string) (*planner.ProductionNode, error) {
	return e.resolve(ctx, &req, itemID, demand, depth, parentPath, nil)
}

func (e *Engine) resolve(
	ctx context.Context,
	req *Request,
	itemID string,
	demand float64,
	depth int,
	parentPath string,
	parents *lineage,
) (*planner.ProductionNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pathID := PathID(req.TreeID, parentPath, itemID, depth)

	if req.Cache != nil && len(req.Affected) > 0 {
		if _, affected := req.Affected[pathID]; affected {
			req.Cache.Invalidate(pathID)
		} else if cached, ok := req.Cache.Get(pathID); ok && SameRate(cached.RatePerMinute, demand) {
			metrics.NodeCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
			return cached, nil
		} else {
			metrics.NodeCacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
		}
	}

	node, err := e.build(ctx, req, itemID, demand, depth, parentPath, pathID, parents)
	if err != nil {
		return nil, err
	}

	if req.Cache != nil {
		req.Cache.Put(pathID, node)
	}
	return node, nil
}

func (e *Engine) build(
	ctx context.Context,
	req *Request,
	itemID string,
	demand float64,
	depth int,
	parentPath string,
	pathID string,
	parents *lineage,
) (*planner.ProductionNode, error) {
	node := &planner.ProductionNode{
		ItemID:        itemID,
		RatePerMinute: demand,
		PathID:        pathID,
		Depth:         depth,
		IsRoot:        parentPath == "",
		ExcessUnits:   req.Excess[pathID],
	}

	available, err := e.catalog.RecipesProducing(ctx, itemID)
	if err != nil {
		return e.unresolved(ctx, node, &planner.CatalogLookupError{Op: "recipes producing", ID: itemID, Err: err})
	}
	node.AvailableRecipes = available

	if imp, ok := req.Imports[pathID]; ok && !node.IsRoot {
		if recipe, err := e.selectRecipe(ctx, req, itemID, pathID, depth); err == nil && recipe != nil {
			node.SelectedRecipeID = recipe.ID
		}
		node.IsImport = true
		node.ImportSourceTreeID = imp.SourceTreeID
		if imp.SavedChildren != nil {
			node.SavedChildren = make([]*planner.ProductionNode, len(imp.SavedChildren))
			for i, c := range imp.SavedChildren {
				node.SavedChildren[i] = c.Clone()
			}
		}
		metrics.NodesResolved.WithLabelValues(metrics.KindImport).Inc()
		return node, nil
	}

	if parents.contains(itemID) {
		return e.unresolved(ctx, node, &planner.RecipeDataError{ItemID: itemID, Reason: "recipe cycle through item"})
	}
	if depth > e.maxDepth {
		return e.unresolved(ctx, node, &planner.RecipeDataError{ItemID: itemID, Reason: "maximum resolution depth exceeded"})
	}

	recipe, err := e.selectRecipe(ctx, req, itemID, pathID, depth)
	if err != nil {
		return e.unresolved(ctx, node, err)
	}
	if recipe == nil {
		metrics.NodesResolved.WithLabelValues(metrics.KindRaw).Inc()
		return node, nil
	}
	node.SelectedRecipeID = recipe.ID

	perCycle := recipe.OutputAmount(itemID)
	if perCycle <= 0 || math.IsNaN(perCycle) {
		return e.unresolved(ctx, node, &planner.RecipeDataError{
			ItemID:   itemID,
			RecipeID: recipe.ID,
			Reason:   fmt.Sprintf("output amount %v is not positive", perCycle),
		})
	}

	cycles := (demand + node.ExcessUnits) / perCycle
	node.CyclesPerMinute = cycles

	inputs := recipe.InputIDs()
	node.Children = make([]*planner.ProductionNode, len(inputs))
	lin := &lineage{itemID: itemID, parent: parents}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, inputID := range inputs {
		childDemand := recipe.Inputs[inputID] * cycles
		g.Go(func() error {
			child, err := e.resolve(gctx, req, inputID, childDemand, depth+1, pathID, lin)
			if err != nil {
				return err
			}
			node.Children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, outID := range recipe.OutputIDs() {
		if outID == itemID {
			continue
		}
		node.Children = append(node.Children, e.byproduct(req, pathID, outID, -(recipe.Outputs[outID] * cycles), depth+1))
	}
	if len(node.Children) == 0 {
		node.Children = nil
	}

	metrics.NodesResolved.WithLabelValues(metrics.KindRecipe).Inc()
	return node, nil
}

// byproduct emits a supply leaf. Byproducts are never recursed into.
func (e *Engine) byproduct(req *Request, parentPath, itemID string, rate float64, depth int) *planner.ProductionNode {
	pathID := ByproductPathID(parentPath, itemID, depth)
	node := &planner.ProductionNode{
		ItemID:        itemID,
		RatePerMinute: rate,
		PathID:        pathID,
		Depth:         depth,
		IsByproduct:   true,
		ExcessUnits:   req.Excess[pathID],
	}
	if req.Cache != nil {
		req.Cache.Put(pathID, node)
	}
	metrics.NodesResolved.WithLabelValues(metrics.KindByproduct).Inc()
	return node
}

// selectRecipe picks the recipe for a node: path override first, then the
// root recipe for depth 0, then the catalog default. A nil recipe with no
// error means the item is a raw material.
func (e *Engine) selectRecipe(ctx context.Context, req *Request, itemID, pathID string, depth int) (*planner.Recipe, error) {
	recipeID := req.RecipeOverrides[pathID]
	if recipeID == "" && depth == 0 {
		recipeID = req.RecipeID
	}

	if recipeID != "" {
		recipe, err := e.catalog.RecipeByID(ctx, recipeID)
		if err != nil {
			return nil, &planner.CatalogLookupError{Op: "recipe by id", ID: recipeID, Err: err}
		}
		if recipe == nil {
			return nil, &planner.RecipeDataError{ItemID: itemID, RecipeID: recipeID, Reason: "recipe does not exist"}
		}
		if !recipe.Produces(itemID) {
			return nil, &planner.RecipeDataError{ItemID: itemID, RecipeID: recipeID, Reason: "recipe does not produce item"}
		}
		return recipe, nil
	}

	recipe, err := e.catalog.DefaultRecipeFor(ctx, itemID)
	if err != nil {
		return nil, &planner.CatalogLookupError{Op: "default recipe", ID: itemID, Err: err}
	}
	return recipe, nil
}

// unresolved turns a catalog or recipe problem into a leaf so the rest of
// the tree still resolves. Context errors are passed through.
func (e *Engine) unresolved(ctx context.Context, node *planner.ProductionNode, cause error) (*planner.ProductionNode, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return nil, cause
	}

	logger.Scoped(ctx, e.logger).Warn("Resolved item as unresolved leaf",
		"item", node.ItemID,
		"path", node.PathID,
		"error", cause)

	node.Children = nil
	node.SelectedRecipeID = ""
	node.CyclesPerMinute = 0
	node.Unresolved = cause.Error()
	metrics.NodesResolved.WithLabelValues(metrics.KindUnresolved).Inc()
	return node, nil
}

// SameRate reports whether two rates are equal within floating point drift.
func SameRate(a, b float64) bool {
	return math.Abs(a-b) <= rateTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
