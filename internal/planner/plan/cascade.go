package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/internal/planner/metrics"
)

// runCascade drains the queue of trees whose import nodes may no longer
// match the demand recorded on their sources. Every step starts from the
// committed state and commits on its own, so a tree is never updated twice
// within one step. The import graph is acyclic, so the queue always drains.
func (s *Store) runCascade(ctx context.Context, queue []string) error {
	// Accepted edits always finish their cascade.
	ctx = context.WithoutCancel(ctx)

	for len(queue) > 0 {
		treeID := queue[0]
		queue = queue[1:]

		tx := s.begin(ctx)
		changed, err := tx.reconcile(treeID)
		if err != nil {
			return fmt.Errorf("cascading from tree %s: %w", treeID, err)
		}
		metrics.CascadeSteps.Inc()
		tx.log.Debug("Cascade step", "tree", treeID, "changed", changed)
		if !changed {
			continue
		}

		s.commit(tx)
		for _, id := range tx.queue {
			if !contains(queue, id) {
				queue = append(queue, id)
			}
		}
	}
	return nil
}

// reconcile compares each import node in a tree with the rate recorded on
// its link and pushes the difference onto the source tree. Import nodes
// that disappeared from the tree are released. It reports whether anything
// changed.
func (tx *txn) reconcile(treeID string) (bool, error) {
	if _, ok := tx.st.trees[treeID]; !ok {
		return false, nil
	}

	changed := false
	deltas := make(map[string]float64)
	for _, l := range tx.st.graph.imports(treeID) {
		// Releasing an earlier link can delete a source and restore
		// this tree, so state is re-read for every link.
		t, ok := tx.st.trees[treeID]
		if !ok {
			break
		}
		if _, live := tx.st.graph.get(l.consumerPathID); !live {
			continue
		}

		node := t.Root.Find(l.consumerPathID)
		if node == nil || !node.IsImport {
			changed = true
			if err := tx.releaseLink(l); err != nil {
				return false, err
			}
			continue
		}
		if engine.SameRate(node.RatePerMinute, l.rate) {
			continue
		}
		changed = true
		deltas[l.sourceTreeID] += node.RatePerMinute - l.rate
		tx.st.graph.setRate(l.consumerPathID, node.RatePerMinute)
	}

	sources := make([]string, 0, len(deltas))
	for id := range deltas {
		sources = append(sources, id)
	}
	sort.Strings(sources)
	for _, id := range sources {
		if err := tx.adjustDemand(id, deltas[id], false); err != nil {
			return false, err
		}
	}
	return changed, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
