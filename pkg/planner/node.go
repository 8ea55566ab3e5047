package planner

// IsLeaf reports whether the node has no resolved children.
func (n *ProductionNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Clone returns a deep copy of the node and its subtree.
func (n *ProductionNode) Clone() *ProductionNode {
	if n == nil {
		return nil
	}
	c := *n
	if n.AvailableRecipes != nil {
		c.AvailableRecipes = append([]Recipe(nil), n.AvailableRecipes...)
	}
	c.Children = cloneNodes(n.Children)
	c.SavedChildren = cloneNodes(n.SavedChildren)
	return &c
}

func cloneNodes(nodes []*ProductionNode) []*ProductionNode {
	if nodes == nil {
		return nil
	}
	out := make([]*ProductionNode, len(nodes))
	for i, child := range nodes {
		out[i] = child.Clone()
	}
	return out
}

// Walk visits the node and its children in pre-order. Returning false from
// fn stops descent into that node's children. Saved children of import
// nodes are not visited.
func (n *ProductionNode) Walk(fn func(*ProductionNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the node with the given path id, or nil.
func (n *ProductionNode) Find(pathID string) *ProductionNode {
	var found *ProductionNode
	n.Walk(func(cur *ProductionNode) bool {
		if found != nil {
			return false
		}
		if cur.PathID == pathID {
			found = cur
			return false
		}
		return true
	})
	return found
}

// Snapshot returns the persisted form of the tree.
func (t *ProductionTree) Snapshot() TreeSnapshot {
	return TreeSnapshot{
		ID:            t.ID,
		Name:          t.Name,
		ItemID:        t.ItemID,
		RatePerMinute: t.RatePerMinute,
		RecipeID:      t.RecipeID,
	}
}
