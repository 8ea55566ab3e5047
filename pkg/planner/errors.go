package planner

import (
	"errors"
	"fmt"
	"strings"
)

// Error message constants. Tests match on these with assert.Contains.
const (
	ErrMsgRecipeData          = "invalid recipe data"
	ErrMsgCatalogLookup       = "catalog lookup failed"
	ErrMsgCircularImport      = "circular import"
	ErrMsgSourceTreeNotFound  = "source tree not found"
	ErrMsgConsumerNotFound    = "consumer node not found"
	ErrMsgTreeNotFound        = "tree not found"
	ErrMsgTreeExists          = "tree already exists"
	ErrMsgInvalidTreeID       = "invalid tree id"
	ErrMsgNodeNotFound        = "node not found"
	ErrMsgNodeNotEditable     = "node cannot be edited"
	ErrMsgInvalidImport       = "invalid import"
	ErrMsgInvalidDemand       = "invalid demand"
	ErrMsgPlanNotFound        = "plan not found"
	ErrMsgUnsupportedSnapshot = "unsupported snapshot version"
)

// Sentinel errors. Wrap with fmt.Errorf("%w: ...", ErrXxx) for context.
var (
	ErrTreeNotFound        = errors.New(ErrMsgTreeNotFound)
	ErrTreeExists          = errors.New(ErrMsgTreeExists)
	ErrInvalidTreeID       = errors.New(ErrMsgInvalidTreeID)
	ErrNodeNotFound        = errors.New(ErrMsgNodeNotFound)
	ErrNodeNotEditable     = errors.New(ErrMsgNodeNotEditable)
	ErrInvalidImport       = errors.New(ErrMsgInvalidImport)
	ErrInvalidDemand       = errors.New(ErrMsgInvalidDemand)
	ErrPlanNotFound        = errors.New(ErrMsgPlanNotFound)
	ErrUnsupportedSnapshot = errors.New(ErrMsgUnsupportedSnapshot)
)

// RecipeDataError reports malformed catalog data: a zero or negative output
// amount, or an override naming a recipe that does not exist.
type RecipeDataError struct {
	ItemID   string
	RecipeID string
	Reason   string
}

func (e *RecipeDataError) Error() string {
	return fmt.Sprintf("%s: recipe %q for item %q: %s", ErrMsgRecipeData, e.RecipeID, e.ItemID, e.Reason)
}

// CatalogLookupError reports a failed or empty catalog lookup.
type CatalogLookupError struct {
	Op  string
	ID  string
	Err error
}

func (e *CatalogLookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %q", ErrMsgCatalogLookup, e.Op, e.ID)
	}
	return fmt.Sprintf("%s: %s %q: %v", ErrMsgCatalogLookup, e.Op, e.ID, e.Err)
}

func (e *CatalogLookupError) Unwrap() error { return e.Err }

// CircularImportError rejects an import that would close a cycle between trees.
type CircularImportError struct {
	ConsumerTreeID string
	SourceTreeID   string
	// Chain is the existing import path from the source back to the consumer.
	Chain []string
}

func (e *CircularImportError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("%s: tree %q cannot import from %q", ErrMsgCircularImport, e.ConsumerTreeID, e.SourceTreeID)
	}
	return fmt.Sprintf("%s: tree %q cannot import from %q (%s)",
		ErrMsgCircularImport, e.ConsumerTreeID, e.SourceTreeID, strings.Join(e.Chain, " -> "))
}

// SourceTreeNotFoundError reports an import naming a missing source tree.
type SourceTreeNotFoundError struct {
	TreeID string
}

func (e *SourceTreeNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMsgSourceTreeNotFound, e.TreeID)
}

// ConsumerNodeNotFoundError reports an import naming a missing consumer node.
type ConsumerNodeNotFoundError struct {
	TreeID string
	PathID string
}

func (e *ConsumerNodeNotFoundError) Error() string {
	return fmt.Sprintf("%s: tree %q path %q", ErrMsgConsumerNotFound, e.TreeID, e.PathID)
}

// ImportRejectionReason maps an import error to a short machine-readable reason.
func ImportRejectionReason(err error) string {
	var circular *CircularImportError
	var source *SourceTreeNotFoundError
	var consumer *ConsumerNodeNotFoundError
	switch {
	case errors.As(err, &circular):
		return "circular"
	case errors.As(err, &source):
		return "source_not_found"
	case errors.As(err, &consumer):
		return "consumer_not_found"
	case errors.Is(err, ErrInvalidImport):
		return "invalid_import"
	case errors.Is(err, ErrTreeNotFound):
		return "tree_not_found"
	default:
		return ""
	}
}
