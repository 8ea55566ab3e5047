package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rsned/production-planner/internal/planner/catalog/catalogtest"
	"github.com/rsned/production-planner/internal/planner/engine"
	"github.com/rsned/production-planner/pkg/planner"
)

func newFactoryStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(engine.New(catalogtest.New(t)))
}

func addTree(t *testing.T, s *Store, treeID, itemID string, rate float64) *planner.ProductionTree {
	t.Helper()
	tree, err := s.AddTree(context.Background(), planner.AddTreeRequest{TreeID: treeID, ItemID: itemID, RatePerMinute: rate})
	require.NoError(t, err)
	return tree
}

func mustTree(t *testing.T, s *Store, treeID string) *planner.ProductionTree {
	t.Helper()
	tree, err := s.Tree(treeID)
	require.NoError(t, err)
	return tree
}

func mustNode(t *testing.T, s *Store, treeID, pathID string) *planner.ProductionNode {
	t.Helper()
	node := mustTree(t, s, treeID).Root.Find(pathID)
	require.NotNil(t, node, "node %s not found in tree %s", pathID, treeID)
	return node
}

// assertGraphConsistent checks that every link points at an import node of
// the right source and that every source root carries at least the demand
// imported from it.
func assertGraphConsistent(t *testing.T, s *Store) {
	t.Helper()
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	for _, l := range s.st.graph.links {
		consumer, ok := s.st.trees[l.consumerTreeID]
		require.True(t, ok, "consumer tree %s missing", l.consumerTreeID)
		node := consumer.Root.Find(l.consumerPathID)
		require.NotNil(t, node, "consumer node %s missing", l.consumerPathID)
		require.True(t, node.IsImport, "%s is not an import", l.consumerPathID)
		require.Equal(t, l.sourceTreeID, node.ImportSourceTreeID)
		require.True(t, engine.SameRate(l.rate, node.RatePerMinute), "%s link rate %v node rate %v",
			l.consumerPathID, l.rate, node.RatePerMinute)
		_, ok = s.st.trees[l.sourceTreeID]
		require.True(t, ok, "source tree %s missing", l.sourceTreeID)
	}
	for id, tree := range s.st.trees {
		require.GreaterOrEqual(t, tree.RatePerMinute+1e-9, s.st.graph.demandOn(id), "tree %s", id)
	}
}
