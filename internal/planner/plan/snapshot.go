package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/pkg/planner"
)

// Snapshot returns everything needed to rebuild the plan.
func (s *Store) Snapshot() planner.Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	snap := planner.Snapshot{
		Version:         planner.SnapshotVersion,
		Trees:           make([]planner.TreeSnapshot, 0, len(s.st.order)),
		RecipeOverrides: make(map[string]string, len(s.st.recipeOverrides)),
		Excess:          make(map[string]float64, len(s.st.excess)),
		Imports:         s.st.graph.records(),
	}
	for _, id := range s.st.order {
		snap.Trees = append(snap.Trees, s.st.trees[id].Snapshot())
	}
	for k, v := range s.st.recipeOverrides {
		snap.RecipeOverrides[k] = v
	}
	for k, v := range s.st.excess {
		snap.Excess[k] = v
	}
	return snap
}

// Restore replaces the plan with the one described by snap. Trees are
// resolved locally first so each import node has children to save, then
// the import links are applied. On error the current plan is kept.
func (s *Store) Restore(ctx context.Context, snap planner.Snapshot) error {
	return s.edit(ctx, OpRestore, func(tx *txn) error {
		if snap.Version != planner.SnapshotVersion {
			return fmt.Errorf("%w: %d", planner.ErrUnsupportedSnapshot, snap.Version)
		}

		tx.st = newState()
		tx.cache.InvalidatePrefix("")

		for _, ts := range snap.Trees {
			if ts.ID == "" || strings.ContainsAny(ts.ID, ":/") {
				return fmt.Errorf("%w: %q", planner.ErrInvalidTreeID, ts.ID)
			}
			if _, exists := tx.st.trees[ts.ID]; exists {
				return fmt.Errorf("%w: %s", planner.ErrTreeExists, ts.ID)
			}
			if err := validRate(ts.RatePerMinute); err != nil {
				return err
			}
			tx.st.addTree(&planner.ProductionTree{
				ID:            ts.ID,
				Name:          ts.Name,
				ItemID:        ts.ItemID,
				RatePerMinute: ts.RatePerMinute,
				RecipeID:      ts.RecipeID,
			})
		}
		for k, v := range snap.RecipeOverrides {
			tx.st.recipeOverrides[k] = v
		}
		for k, v := range snap.Excess {
			if err := validRate(v); err != nil {
				return fmt.Errorf("excess at %s: %w", k, err)
			}
			if v != 0 {
				tx.st.excess[k] = v
			}
		}

		for _, id := range tx.st.order {
			if err := tx.resolve(id, nil); err != nil {
				return err
			}
		}

		affected := make(map[string]map[string]struct{})
		for _, rec := range snap.Imports {
			if err := tx.restoreLink(rec, affected); err != nil {
				return err
			}
		}

		for _, id := range tx.st.order {
			if err := tx.coversExports(id, tx.st.trees[id].RatePerMinute); err != nil {
				return err
			}
		}

		for _, id := range tx.st.order {
			set, ok := affected[id]
			if !ok {
				continue
			}
			if err := tx.resolve(id, set); err != nil {
				return err
			}
			tx.enqueue(id)
		}
		return nil
	})
}

func (tx *txn) restoreLink(rec planner.ImportRecord, affected map[string]map[string]struct{}) error {
	consumer, ok := tx.st.trees[rec.ConsumerTreeID]
	if !ok {
		return &planner.ConsumerNodeNotFoundError{TreeID: rec.ConsumerTreeID, PathID: rec.ConsumerPathID}
	}
	source, ok := tx.st.trees[rec.SourceTreeID]
	if !ok {
		return &planner.SourceTreeNotFoundError{TreeID: rec.SourceTreeID}
	}
	if rec.ConsumerTreeID == rec.SourceTreeID {
		return &planner.CircularImportError{ConsumerTreeID: rec.ConsumerTreeID, SourceTreeID: rec.SourceTreeID}
	}
	if chain := tx.st.graph.path(rec.SourceTreeID, rec.ConsumerTreeID); chain != nil {
		return &planner.CircularImportError{ConsumerTreeID: rec.ConsumerTreeID, SourceTreeID: rec.SourceTreeID, Chain: chain}
	}

	node := consumer.Root.Find(rec.ConsumerPathID)
	if node == nil {
		return &planner.ConsumerNodeNotFoundError{TreeID: rec.ConsumerTreeID, PathID: rec.ConsumerPathID}
	}
	if node.IsRoot || node.IsByproduct || node.ItemID != source.ItemID {
		return fmt.Errorf("%w: %s cannot import from %s", planner.ErrInvalidImport, rec.ConsumerPathID, rec.SourceTreeID)
	}
	if _, dup := tx.st.graph.get(rec.ConsumerPathID); dup {
		return fmt.Errorf("%w: %s imported twice", planner.ErrInvalidImport, rec.ConsumerPathID)
	}

	delete(tx.st.excess, rec.ConsumerPathID)
	tx.st.graph.add(&link{
		consumerTreeID: rec.ConsumerTreeID,
		consumerPathID: rec.ConsumerPathID,
		sourceTreeID:   rec.SourceTreeID,
		rate:           rec.RatePerMinute,
		savedChildren:  node.Children,
	})

	set, ok := affected[rec.ConsumerTreeID]
	if !ok {
		set = make(map[string]struct{})
		affected[rec.ConsumerTreeID] = set
	}
	for p := range engine.AffectedPaths(consumer.Root, rec.ConsumerPathID) {
		set[p] = struct{}{}
	}
	return nil
}
