// Package engine contains the production-dependency resolution logic.
package engine

import (
	"context"
	"log/slog"

	"github.com/rsned/production-planner/pkg/planner"
)

// Catalog is the read-only recipe lookup the resolver depends on.
// Lookups that find nothing return (nil, nil).
type Catalog interface {
	RecipesProducing(ctx context.Context, itemID string) ([]planner.Recipe, error)
	RecipeByID(ctx context.Context, id string) (*planner.Recipe, error)
	DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error)
}

// ItemCatalog is implemented by catalogs that also expose item metadata
// and reverse (consumer) lookups.
type ItemCatalog interface {
	Catalog
	GetItem(ctx context.Context, id string) (*planner.Item, error)
	RecipesConsuming(ctx context.Context, itemID string) ([]string, error)
}

const (
	defaultMaxDepth    = 64
	defaultConcurrency = 8
)

// Engine resolves production trees against a catalog.
type Engine struct {
	catalog     Catalog
	maxDepth    int
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth bounds recursion depth. Deeper items become unresolved leaves.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithConcurrency bounds how many sibling subtrees resolve in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger used for resolution warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a new Engine over the given catalog.
func New(cat Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:     cat,
		maxDepth:    defaultMaxDepth,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}
