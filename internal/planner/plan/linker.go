package plan

import (
	"fmt"
	"sort"

	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/pkg/planner"
)

// createImport turns a consumer node into an import of sourceTreeID and
// adds the node's rate to the source root. Any excess override on the
// consumer node is cleared.
func (tx *txn) createImport(consumerTreeID, consumerPathID, sourceTreeID string) error {
	consumer, ok := tx.st.trees[consumerTreeID]
	if !ok {
		return &planner.ConsumerNodeNotFoundError{TreeID: consumerTreeID, PathID: consumerPathID}
	}
	source, ok := tx.st.trees[sourceTreeID]
	if !ok {
		return &planner.SourceTreeNotFoundError{TreeID: sourceTreeID}
	}

	if consumerTreeID == sourceTreeID {
		return &planner.CircularImportError{ConsumerTreeID: consumerTreeID, SourceTreeID: sourceTreeID}
	}
	if chain := tx.st.graph.path(sourceTreeID, consumerTreeID); chain != nil {
		return &planner.CircularImportError{ConsumerTreeID: consumerTreeID, SourceTreeID: sourceTreeID, Chain: chain}
	}

	node := consumer.Root.Find(consumerPathID)
	if node == nil {
		return &planner.ConsumerNodeNotFoundError{TreeID: consumerTreeID, PathID: consumerPathID}
	}
	switch {
	case node.IsRoot:
		return fmt.Errorf("%w: %s is a tree root", planner.ErrInvalidImport, consumerPathID)
	case node.IsByproduct:
		return fmt.Errorf("%w: %s is a byproduct", planner.ErrInvalidImport, consumerPathID)
	case node.IsImport:
		return fmt.Errorf("%w: %s already imports from %s", planner.ErrInvalidImport, consumerPathID, node.ImportSourceTreeID)
	case node.ItemID != source.ItemID:
		return fmt.Errorf("%w: tree %s produces %s, node needs %s",
			planner.ErrInvalidImport, sourceTreeID, source.ItemID, node.ItemID)
	}

	affected := engine.AffectedPaths(consumer.Root, consumerPathID)
	// An import node produces nothing, so surplus asked of it is dropped.
	delete(tx.st.excess, consumerPathID)
	tx.st.graph.add(&link{
		consumerTreeID: consumerTreeID,
		consumerPathID: consumerPathID,
		sourceTreeID:   sourceTreeID,
		rate:           node.RatePerMinute,
		savedChildren:  node.Children,
	})
	if err := tx.resolve(consumerTreeID, affected); err != nil {
		return err
	}

	return tx.adjustDemand(sourceTreeID, node.RatePerMinute, false)
}

// removeImport turns an import node back into a local node.
func (tx *txn) removeImport(consumerTreeID, consumerPathID string) error {
	consumer, ok := tx.st.trees[consumerTreeID]
	if !ok {
		return &planner.ConsumerNodeNotFoundError{TreeID: consumerTreeID, PathID: consumerPathID}
	}

	l, ok := tx.st.graph.get(consumerPathID)
	if !ok || l.consumerTreeID != consumerTreeID {
		if consumer.Root.Find(consumerPathID) == nil {
			return &planner.ConsumerNodeNotFoundError{TreeID: consumerTreeID, PathID: consumerPathID}
		}
		return fmt.Errorf("%w: %s is not an import", planner.ErrInvalidImport, consumerPathID)
	}

	return tx.releaseLink(l)
}

// releaseLink drops an import edge: the consumer node, if still present,
// resolves its own children again and the source root loses the imported
// rate.
func (tx *txn) releaseLink(l *link) error {
	tx.st.graph.remove(l.consumerPathID)
	// Cached nodes under the consumer path still describe the import.
	tx.cache.InvalidatePrefix(l.consumerPathID)

	if consumer, ok := tx.st.trees[l.consumerTreeID]; ok {
		if affected := engine.AffectedPaths(consumer.Root, l.consumerPathID); len(affected) > 0 {
			if err := tx.resolve(l.consumerTreeID, affected); err != nil {
				return err
			}
		}
	}

	return tx.adjustDemand(l.sourceTreeID, -l.rate, true)
}

// adjustDemand adds delta to a source root's rate and re-resolves the
// source. When release is set, a source left with no rate and no excess is
// deleted; otherwise the rate is clamped at zero.
func (tx *txn) adjustDemand(sourceTreeID string, delta float64, release bool) error {
	t, ok := tx.st.trees[sourceTreeID]
	if !ok {
		return nil
	}

	rate := t.RatePerMinute + delta
	if rate < 0 || engine.SameRate(rate, 0) {
		rate = 0
	}
	if release && rate == 0 && tx.st.rootExcess(t) <= 0 {
		tx.log.Info("Deleting source tree with no remaining demand", "tree", sourceTreeID)
		return tx.deleteTree(sourceTreeID)
	}

	updated := *t
	updated.RatePerMinute = rate
	tx.st.trees[sourceTreeID] = &updated
	if err := tx.resolve(sourceTreeID, nil); err != nil {
		return err
	}
	tx.enqueue(sourceTreeID)
	return nil
}

// deleteTree removes a tree. Consumers importing from it are restored to
// local nodes and re-resolved, and the tree's own imports are released,
// all within the same transition.
func (tx *txn) deleteTree(treeID string) error {
	if _, err := tx.tree(treeID); err != nil {
		return err
	}

	restore := make(map[string]map[string]struct{})
	for _, l := range tx.st.graph.importers(treeID) {
		tx.st.graph.remove(l.consumerPathID)
		tx.cache.InvalidatePrefix(l.consumerPathID)

		consumer, ok := tx.st.trees[l.consumerTreeID]
		if !ok {
			continue
		}
		set, ok := restore[l.consumerTreeID]
		if !ok {
			set = make(map[string]struct{})
			restore[l.consumerTreeID] = set
		}
		for p := range engine.AffectedPaths(consumer.Root, l.consumerPathID) {
			set[p] = struct{}{}
		}
	}

	own := tx.st.graph.imports(treeID)
	for _, l := range own {
		tx.st.graph.remove(l.consumerPathID)
	}

	tx.st.removeTree(treeID)
	tx.cache.InvalidatePrefix(engine.TreePrefix(treeID))

	consumers := make([]string, 0, len(restore))
	for id := range restore {
		consumers = append(consumers, id)
	}
	sort.Strings(consumers)
	for _, id := range consumers {
		if _, ok := tx.st.trees[id]; !ok || len(restore[id]) == 0 {
			continue
		}
		if err := tx.resolve(id, restore[id]); err != nil {
			return err
		}
	}

	for _, l := range own {
		if err := tx.adjustDemand(l.sourceTreeID, -l.rate, true); err != nil {
			return err
		}
	}
	return nil
}
