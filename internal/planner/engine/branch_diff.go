package engine

import "github.com/rsned/production-planner/pkg/planner"

// AffectedPaths returns the path ids that must bypass the cache after an
// edit at changedPathID: the changed node, all of its descendants and all
// of its ancestors. An empty result means the path was not found and the
// caller should recompute everything.
func AffectedPaths(root *planner.ProductionNode, changedPathID string) map[string]struct{} {
	affected := make(map[string]struct{})
	if root == nil || changedPathID == "" {
		return affected
	}
	markBranch(root, changedPathID, affected)
	return affected
}

func markBranch(node *planner.ProductionNode, changedPathID string, affected map[string]struct{}) bool {
	if node.PathID == changedPathID {
		node.Walk(func(n *planner.ProductionNode) bool {
			affected[n.PathID] = struct{}{}
			return true
		})
		return true
	}

	found := false
	for _, child := range node.Children {
		if markBranch(child, changedPathID, affected) {
			found = true
			break
		}
	}
	if found {
		affected[node.PathID] = struct{}{}
	}
	return found
}
