package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/pkg/planner"
)

// state is everything an edit may change. Edits work on a clone and swap
// it in on success. Nodes are never mutated once resolved, so clones share
// them.
type state struct {
	trees           map[string]*planner.ProductionTree
	order           []string
	recipeOverrides map[string]string
	excess          map[string]float64
	graph           *importGraph
}

func newState() *state {
	return &state{
		trees:           make(map[string]*planner.ProductionTree),
		recipeOverrides: make(map[string]string),
		excess:          make(map[string]float64),
		graph:           newImportGraph(),
	}
}

func (st *state) clone() *state {
	c := &state{
		trees:           make(map[string]*planner.ProductionTree, len(st.trees)),
		order:           append([]string(nil), st.order...),
		recipeOverrides: make(map[string]string, len(st.recipeOverrides)),
		excess:          make(map[string]float64, len(st.excess)),
		graph:           st.graph.clone(),
	}
	for id, t := range st.trees {
		cp := *t
		c.trees[id] = &cp
	}
	for k, v := range st.recipeOverrides {
		c.recipeOverrides[k] = v
	}
	for k, v := range st.excess {
		c.excess[k] = v
	}
	return c
}

func (st *state) addTree(t *planner.ProductionTree) {
	st.trees[t.ID] = t
	st.order = append(st.order, t.ID)
}

// removeTree drops a tree together with the overrides addressed into it.
func (st *state) removeTree(treeID string) {
	delete(st.trees, treeID)
	for i, id := range st.order {
		if id == treeID {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	for p := range st.recipeOverrides {
		if engine.InTree(treeID, p) {
			delete(st.recipeOverrides, p)
		}
	}
	for p := range st.excess {
		if engine.InTree(treeID, p) {
			delete(st.excess, p)
		}
	}
}

func (st *state) rootExcess(t *planner.ProductionTree) float64 {
	return st.excess[engine.PathID(t.ID, "", t.ItemID, 0)]
}

// txn is one atomic transition of the plan. Nothing it does is visible
// until the store commits it.
type txn struct {
	ctx    context.Context
	engine *engine.Engine
	log    *slog.Logger
	st     *state
	cache  *engine.Overlay
	// queue holds trees whose import nodes may have changed rate and must be
	// reconciled against their sources after commit.
	queue []string
}

func (tx *txn) tree(treeID string) (*planner.ProductionTree, error) {
	t, ok := tx.st.trees[treeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", planner.ErrTreeNotFound, treeID)
	}
	return t, nil
}

// enqueue schedules a cascade step for a tree that imports from others.
func (tx *txn) enqueue(treeID string) {
	if len(tx.st.graph.imports(treeID)) == 0 {
		return
	}
	for _, id := range tx.queue {
		if id == treeID {
			return
		}
	}
	tx.queue = append(tx.queue, treeID)
}

func (tx *txn) request(t *planner.ProductionTree) engine.Request {
	var imports map[string]engine.Import
	if links := tx.st.graph.imports(t.ID); len(links) > 0 {
		imports = make(map[string]engine.Import, len(links))
		for _, l := range links {
			imports[l.consumerPathID] = engine.Import{SourceTreeID: l.sourceTreeID, SavedChildren: l.savedChildren}
		}
	}
	return engine.Request{
		TreeID:          t.ID,
		ItemID:          t.ItemID,
		RatePerMinute:   t.RatePerMinute,
		RecipeID:        t.RecipeID,
		RecipeOverrides: tx.st.recipeOverrides,
		Excess:          tx.st.excess,
		Imports:         imports,
		Cache:           tx.cache,
	}
}

// resolve recomputes a tree. With an empty affected set every node is
// recomputed, otherwise nodes outside the set come from the cache.
func (tx *txn) resolve(treeID string, affected map[string]struct{}) error {
	t, err := tx.tree(treeID)
	if err != nil {
		return err
	}

	req := tx.request(t)
	if len(affected) == 0 {
		tx.cache.InvalidatePrefix(engine.TreePrefix(treeID))
	} else {
		req.Affected = affected
	}

	root, err := tx.engine.ResolveTree(tx.ctx, req)
	if err != nil {
		return fmt.Errorf("resolving tree %s: %w", treeID, err)
	}

	updated := *t
	updated.Root = root
	tx.st.trees[treeID] = &updated
	return nil
}
