package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsned/production-planner/pkg/planner"
)

func TestNodeCache(t *testing.T) {
	t.Parallel()
	c := NewNodeCache()
	n := &planner.ProductionNode{ItemID: "x", PathID: "t:x"}

	_, ok := c.Get("t:x")
	assert.False(t, ok)

	c.Put("t:x", n)
	c.Put("t:x/y@1", &planner.ProductionNode{})
	c.Put("u:x", &planner.ProductionNode{})
	got, ok := c.Get("t:x")
	assert.True(t, ok)
	assert.Same(t, n, got)

	c.Invalidate("t:x")
	_, ok = c.Get("t:x")
	assert.False(t, ok)

	c.InvalidatePrefix(TreePrefix("t"))
	assert.Equal(t, 1, c.Size())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Size())
}

func TestOverlay_StagesUntilCommit(t *testing.T) {
	t.Parallel()
	base := NewNodeCache()
	kept := &planner.ProductionNode{PathID: "t:a"}
	base.Put("t:a", kept)
	base.Put("t:b", &planner.ProductionNode{PathID: "t:b"})
	base.Put("u:a", &planner.ProductionNode{PathID: "u:a"})

	o := NewOverlay(base)
	staged := &planner.ProductionNode{PathID: "t:c"}
	o.Put("t:c", staged)
	o.Invalidate("t:b")
	o.InvalidatePrefix(TreePrefix("u"))

	got, ok := o.Get("t:c")
	assert.True(t, ok)
	assert.Same(t, staged, got)
	_, ok = o.Get("t:b")
	assert.False(t, ok)
	_, ok = o.Get("u:a")
	assert.False(t, ok)
	got, ok = o.Get("t:a")
	assert.True(t, ok)
	assert.Same(t, kept, got)

	// Base is untouched until commit.
	assert.Equal(t, 3, base.Size())
	_, ok = base.Get("t:c")
	assert.False(t, ok)

	o.Commit()
	assert.Equal(t, 2, base.Size())
	_, ok = base.Get("t:c")
	assert.True(t, ok)
	_, ok = base.Get("u:a")
	assert.False(t, ok)
}

func TestOverlay_PutAfterPrefixInvalidate(t *testing.T) {
	t.Parallel()
	base := NewNodeCache()
	base.Put("t:a", &planner.ProductionNode{PathID: "t:a"})

	o := NewOverlay(base)
	o.InvalidatePrefix(TreePrefix("t"))
	fresh := &planner.ProductionNode{PathID: "t:a", RatePerMinute: 2}
	o.Put("t:a", fresh)
	o.Commit()

	got, ok := base.Get("t:a")
	assert.True(t, ok)
	assert.Same(t, fresh, got)
}
