// Package plan holds the mutable production plan: named trees, recipe and
// excess overrides, and the import links between trees.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rsned/production-planner/internal/logger"
	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/internal/planner/metrics"
	"github.com/rsned/production-planner/pkg/planner"
)

// Edit operation names, used for metrics and logs.
const (
	OpAddTree      = "add_tree"
	OpDeleteTree   = "delete_tree"
	OpSetTreeRate  = "set_tree_rate"
	OpSetRecipe    = "set_recipe"
	OpSetExcess    = "set_excess"
	OpCreateImport = "create_import"
	OpRemoveImport = "remove_import"
	OpRestore      = "restore"
)

// Store is the plan. Edits are serialized; each runs to completion,
// including its import cascade, before the next one starts. Reads never
// block on an edit's resolution work.
type Store struct {
	engine *engine.Engine
	logger *slog.Logger

	// editMu serializes edits and their cascades.
	editMu sync.Mutex

	stateMu sync.RWMutex
	st      *state
	cache   *engine.NodeCache
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for edit logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty plan resolving against eng.
func NewStore(eng *engine.Engine, opts ...Option) *Store {
	s := &Store{
		engine: eng,
		logger: slog.Default(),
		st:     newState(),
		cache:  engine.NewNodeCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	return logger.Scoped(ctx, s.logger)
}

func (s *Store) begin(ctx context.Context) *txn {
	s.stateMu.RLock()
	st := s.st.clone()
	s.stateMu.RUnlock()

	return &txn{
		ctx:    ctx,
		engine: s.engine,
		log:    s.log(ctx),
		st:     st,
		cache:  engine.NewOverlay(s.cache),
	}
}

func (s *Store) commit(tx *txn) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.st = tx.st
	tx.cache.Commit()
}

// edit runs fn as one atomic transition, commits it, then runs the
// deferred cascade it scheduled.
func (s *Store) edit(ctx context.Context, op string, fn func(tx *txn) error) error {
	start := time.Now()
	if _, ok := logger.RequestIDFromContext(ctx); !ok {
		ctx = logger.WithRequestID(ctx, logger.GenerateRequestID())
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	tx := s.begin(ctx)
	err := fn(tx)
	if err == nil {
		s.commit(tx)
		err = s.runCascade(ctx, tx.queue)
	}

	status := metrics.StatusOK
	switch {
	case err != nil && op == OpCreateImport:
		status = metrics.StatusError
		reason := planner.ImportRejectionReason(err)
		if reason != "" {
			metrics.ImportRejections.WithLabelValues(reason).Inc()
		}
		s.log(ctx).Info("Import rejected", "reason", reason, "error", err)
	case err != nil:
		status = metrics.StatusError
		s.log(ctx).Warn("Plan edit rejected", "op", op, "error", err)
	default:
		s.log(ctx).Debug("Plan edit applied", "op", op, "duration", time.Since(start))
	}
	metrics.EditsTotal.WithLabelValues(op, status).Inc()
	metrics.EditDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

// ============================================
// EDITS
// ============================================

// AddTree creates a tree producing req.ItemID. A missing tree id is
// generated.
func (s *Store) AddTree(ctx context.Context, req planner.AddTreeRequest) (*planner.ProductionTree, error) {
	if err := validRate(req.RatePerMinute); err != nil {
		return nil, err
	}
	treeID := req.TreeID
	if treeID == "" {
		treeID = uuid.NewString()
	}
	if strings.ContainsAny(treeID, ":/") {
		return nil, fmt.Errorf("%w: %q must not contain ':' or '/'", planner.ErrInvalidTreeID, treeID)
	}
	name := req.Name
	if name == "" {
		name = req.ItemID
	}

	err := s.edit(ctx, OpAddTree, func(tx *txn) error {
		if _, exists := tx.st.trees[treeID]; exists {
			return fmt.Errorf("%w: %s", planner.ErrTreeExists, treeID)
		}
		if req.RecipeID != "" {
			if err := tx.checkRecipe(req.ItemID, req.RecipeID); err != nil {
				return err
			}
		}
		tx.st.addTree(&planner.ProductionTree{
			ID:            treeID,
			Name:          name,
			ItemID:        req.ItemID,
			RatePerMinute: req.RatePerMinute,
			RecipeID:      req.RecipeID,
		})
		return tx.resolve(treeID, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Tree(treeID)
}

// DeleteTree removes a tree. Trees importing from it get their nodes back
// as local production.
func (s *Store) DeleteTree(ctx context.Context, treeID string) error {
	return s.edit(ctx, OpDeleteTree, func(tx *txn) error {
		return tx.deleteTree(treeID)
	})
}

// SetTreeRate sets a tree's root rate. The rate may not drop below what
// other trees import from it.
func (s *Store) SetTreeRate(ctx context.Context, treeID string, rate float64) error {
	if err := validRate(rate); err != nil {
		return err
	}
	return s.edit(ctx, OpSetTreeRate, func(tx *txn) error {
		t, err := tx.tree(treeID)
		if err != nil {
			return err
		}
		if err := tx.coversExports(treeID, rate); err != nil {
			return err
		}
		updated := *t
		updated.RatePerMinute = rate
		tx.st.trees[treeID] = &updated
		if err := tx.resolve(treeID, nil); err != nil {
			return err
		}
		tx.enqueue(treeID)
		return nil
	})
}

// SetRecipe overrides the recipe used at a node. An empty recipeID clears
// the override.
func (s *Store) SetRecipe(ctx context.Context, treeID, pathID, recipeID string) error {
	return s.edit(ctx, OpSetRecipe, func(tx *txn) error {
		node, err := tx.editableNode(treeID, pathID)
		if err != nil {
			return err
		}
		if recipeID == "" {
			delete(tx.st.recipeOverrides, pathID)
		} else {
			if err := tx.checkRecipe(node.ItemID, recipeID); err != nil {
				return err
			}
			tx.st.recipeOverrides[pathID] = recipeID
		}
		return tx.resolveBranch(treeID, pathID)
	})
}

// SetExcess sets the surplus produced at a node. Zero clears it.
func (s *Store) SetExcess(ctx context.Context, treeID, pathID string, units float64) error {
	if err := validRate(units); err != nil {
		return err
	}
	return s.edit(ctx, OpSetExcess, func(tx *txn) error {
		if _, err := tx.editableNode(treeID, pathID); err != nil {
			return err
		}
		if units == 0 {
			delete(tx.st.excess, pathID)
		} else {
			tx.st.excess[pathID] = units
		}
		return tx.resolveBranch(treeID, pathID)
	})
}

// CreateImport satisfies a consumer node from the root of another tree.
func (s *Store) CreateImport(ctx context.Context, consumerTreeID, consumerPathID, sourceTreeID string) error {
	return s.edit(ctx, OpCreateImport, func(tx *txn) error {
		return tx.createImport(consumerTreeID, consumerPathID, sourceTreeID)
	})
}

// RemoveImport returns an import node to local production.
func (s *Store) RemoveImport(ctx context.Context, consumerTreeID, consumerPathID string) error {
	return s.edit(ctx, OpRemoveImport, func(tx *txn) error {
		return tx.removeImport(consumerTreeID, consumerPathID)
	})
}

func (tx *txn) editableNode(treeID, pathID string) (*planner.ProductionNode, error) {
	t, err := tx.tree(treeID)
	if err != nil {
		return nil, err
	}
	node := t.Root.Find(pathID)
	if node == nil {
		return nil, fmt.Errorf("%w: tree %s path %s", planner.ErrNodeNotFound, treeID, pathID)
	}
	if node.IsByproduct || node.IsImport {
		return nil, fmt.Errorf("%w: %s is a byproduct or import", planner.ErrNodeNotEditable, pathID)
	}
	return node, nil
}

func (tx *txn) checkRecipe(itemID, recipeID string) error {
	recipe, err := tx.engine.Catalog().RecipeByID(tx.ctx, recipeID)
	if err != nil {
		return &planner.CatalogLookupError{Op: "recipe by id", ID: recipeID, Err: err}
	}
	if recipe == nil {
		return &planner.RecipeDataError{ItemID: itemID, RecipeID: recipeID, Reason: "recipe does not exist"}
	}
	if !recipe.Produces(itemID) {
		return &planner.RecipeDataError{ItemID: itemID, RecipeID: recipeID, Reason: "recipe does not produce item"}
	}
	return nil
}

// resolveBranch re-resolves a tree after an edit at pathID, recomputing
// only the affected branch.
func (tx *txn) resolveBranch(treeID, pathID string) error {
	t, err := tx.tree(treeID)
	if err != nil {
		return err
	}
	if err := tx.resolve(treeID, engine.AffectedPaths(t.Root, pathID)); err != nil {
		return err
	}
	tx.enqueue(treeID)
	return nil
}

// coversExports rejects a root rate below the demand imported from the tree.
func (tx *txn) coversExports(treeID string, rate float64) error {
	imported := tx.st.graph.demandOn(treeID)
	if rate < imported && !engine.SameRate(rate, imported) {
		return fmt.Errorf("%w: tree %s rate %v is below the %v/min other trees import from it",
			planner.ErrInvalidDemand, treeID, rate, imported)
	}
	return nil
}

func validRate(rate float64) error {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %v", planner.ErrInvalidDemand, rate)
	}
	return nil
}

// ============================================
// READS
// ============================================

// Tree returns a copy of a tree.
func (s *Store) Tree(treeID string) (*planner.ProductionTree, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	t, ok := s.st.trees[treeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", planner.ErrTreeNotFound, treeID)
	}
	return copyTree(t), nil
}

// Trees returns copies of every tree in creation order.
func (s *Store) Trees() []*planner.ProductionTree {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	out := make([]*planner.ProductionTree, 0, len(s.st.order))
	for _, id := range s.st.order {
		out = append(out, copyTree(s.st.trees[id]))
	}
	return out
}

// Imports returns every import link ordered by consumer path.
func (s *Store) Imports() []planner.ImportRecord {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.st.graph.records()
}

// ExportDemand is the total rate all consumers import from a tree.
func (s *Store) ExportDemand(treeID string) float64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.st.graph.demandOn(treeID)
}

// Accumulate returns the per-node ledger of every tree.
func (s *Store) Accumulate() map[string]planner.AccumulatedEntry {
	return engine.AccumulateAll(s.roots())
}

// AccumulateTree returns the per-node ledger of one tree.
func (s *Store) AccumulateTree(treeID string) (map[string]planner.AccumulatedEntry, error) {
	s.stateMu.RLock()
	t, ok := s.st.trees[treeID]
	s.stateMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", planner.ErrTreeNotFound, treeID)
	}

	ledger := engine.Accumulate(t.Root)
	for k, e := range ledger {
		e.TreeID = treeID
		ledger[k] = e
	}
	return ledger, nil
}

// ItemTotals returns the per-item aggregate over every tree.
func (s *Store) ItemTotals() []planner.ItemTotal {
	return engine.ItemTotals(s.Accumulate())
}

// AffectedPaths returns the nodes an edit at pathID would recompute.
func (s *Store) AffectedPaths(treeID, pathID string) (map[string]struct{}, error) {
	s.stateMu.RLock()
	t, ok := s.st.trees[treeID]
	s.stateMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", planner.ErrTreeNotFound, treeID)
	}
	return engine.AffectedPaths(t.Root, pathID), nil
}

func (s *Store) roots() map[string]*planner.ProductionNode {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	roots := make(map[string]*planner.ProductionNode, len(s.st.trees))
	for id, t := range s.st.trees {
		roots[id] = t.Root
	}
	return roots
}

func copyTree(t *planner.ProductionTree) *planner.ProductionTree {
	cp := *t
	cp.Root = t.Root.Clone()
	return &cp
}
