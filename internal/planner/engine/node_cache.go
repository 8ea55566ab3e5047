package engine

import (
	"strings"
	"sync"

	"github.com/rsned/production-planner/pkg/planner"
)

// Cache memoizes resolved nodes by path id.
type Cache interface {
	Get(pathID string) (*planner.ProductionNode, bool)
	Put(pathID string, node *planner.ProductionNode)
	Invalidate(pathID string)
}

// NodeCache is a plain path id to node map with no eviction. It is owned by
// a single plan and safe for concurrent use by sibling resolutions.
type NodeCache struct {
	mu    sync.RWMutex
	nodes map[string]*planner.ProductionNode
}

// NewNodeCache creates an empty cache.
func NewNodeCache() *NodeCache {
	return &NodeCache{nodes: make(map[string]*planner.ProductionNode)}
}

// Get retrieves a cached node.
func (c *NodeCache) Get(pathID string) (*planner.ProductionNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[pathID]
	return n, ok
}

// Put stores a node, replacing any previous entry.
func (c *NodeCache) Put(pathID string, node *planner.ProductionNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[pathID] = node
}

// Invalidate removes a single entry.
func (c *NodeCache) Invalidate(pathID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodes, pathID)
}

// InvalidatePrefix removes every entry whose path id starts with prefix.
func (c *NodeCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.nodes {
		if strings.HasPrefix(k, prefix) {
			delete(c.nodes, k)
		}
	}
}

// InvalidateAll clears the cache.
func (c *NodeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = make(map[string]*planner.ProductionNode)
}

// Size returns the number of cached nodes.
func (c *NodeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Overlay stages cache writes on top of a NodeCache so an edit that fails
// part way leaves the base untouched. Commit publishes the staged writes.
type Overlay struct {
	base *NodeCache

	mu      sync.RWMutex
	writes  map[string]*planner.ProductionNode
	removed map[string]struct{}
	prefix  []string
}

// NewOverlay creates an overlay over base.
func NewOverlay(base *NodeCache) *Overlay {
	return &Overlay{
		base:    base,
		writes:  make(map[string]*planner.ProductionNode),
		removed: make(map[string]struct{}),
	}
}

// Get returns the staged entry if any, otherwise the base entry.
func (o *Overlay) Get(pathID string) (*planner.ProductionNode, bool) {
	o.mu.RLock()
	if n, ok := o.writes[pathID]; ok {
		o.mu.RUnlock()
		return n, true
	}
	_, gone := o.removed[pathID]
	for _, p := range o.prefix {
		if strings.HasPrefix(pathID, p) {
			gone = true
			break
		}
	}
	o.mu.RUnlock()
	if gone {
		return nil, false
	}
	return o.base.Get(pathID)
}

// Put stages a write.
func (o *Overlay) Put(pathID string, node *planner.ProductionNode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes[pathID] = node
	delete(o.removed, pathID)
}

// Invalidate stages a removal.
func (o *Overlay) Invalidate(pathID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.writes, pathID)
	o.removed[pathID] = struct{}{}
}

// InvalidatePrefix stages removal of every entry under prefix.
func (o *Overlay) InvalidatePrefix(prefix string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k := range o.writes {
		if strings.HasPrefix(k, prefix) {
			delete(o.writes, k)
		}
	}
	o.prefix = append(o.prefix, prefix)
}

// Commit applies staged changes to the base cache.
func (o *Overlay) Commit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.prefix {
		o.base.InvalidatePrefix(p)
	}
	for k := range o.removed {
		o.base.Invalidate(k)
	}
	for k, n := range o.writes {
		o.base.Put(k, n)
	}
	o.writes = make(map[string]*planner.ProductionNode)
	o.removed = make(map[string]struct{})
	o.prefix = nil
}
