package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rsned/production-planner/pkg/planner"
)

// Memory is an in-process catalog. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]planner.Item
	machines map[string]planner.Machine
	recipes  map[string]planner.Recipe
	// producers and consumers index recipe ids by item id.
	producers map[string][]string
	consumers map[string][]string
	defaults  map[string]string
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		items:     make(map[string]planner.Item),
		machines:  make(map[string]planner.Machine),
		recipes:   make(map[string]planner.Recipe),
		producers: make(map[string][]string),
		consumers: make(map[string][]string),
		defaults:  make(map[string]string),
	}
}

// AddItem registers or replaces an item.
func (m *Memory) AddItem(item planner.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// AddMachine registers or replaces a machine.
func (m *Memory) AddMachine(machine planner.Machine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.machines[machine.ID] = machine
}

// AddRecipe validates and registers a recipe. Recipe ids must be unique.
func (m *Memory) AddRecipe(r planner.Recipe) error {
	if err := ValidateRecipe(r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.recipes[r.ID]; exists {
		return fmt.Errorf("recipe %s already exists", r.ID)
	}
	m.recipes[r.ID] = cloneRecipe(r)
	for _, out := range r.OutputIDs() {
		m.producers[out] = append(m.producers[out], r.ID)
	}
	for _, in := range r.InputIDs() {
		m.consumers[in] = append(m.consumers[in], r.ID)
	}
	return nil
}

// SetDefault pins the default recipe for an item.
func (m *Memory) SetDefault(itemID, recipeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[recipeID]
	if !ok {
		return fmt.Errorf("recipe %s not found", recipeID)
	}
	if !r.Produces(itemID) {
		return fmt.Errorf("recipe %s does not produce %s", recipeID, itemID)
	}
	m.defaults[itemID] = recipeID
	return nil
}

// GetItem returns the item or nil when unknown.
func (m *Memory) GetItem(_ context.Context, id string) (*planner.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// GetMachine returns the machine or nil when unknown.
func (m *Memory) GetMachine(_ context.Context, id string) (*planner.Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[id]
	if !ok {
		return nil, nil
	}
	return &machine, nil
}

// RecipesProducing returns every recipe with itemID among its outputs,
// ordered by id.
func (m *Memory) RecipesProducing(_ context.Context, itemID string) ([]planner.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.producers[itemID]
	if len(ids) == 0 {
		return nil, nil
	}
	recipes := make([]planner.Recipe, 0, len(ids))
	for _, id := range ids {
		recipes = append(recipes, cloneRecipe(m.recipes[id]))
	}
	sortRecipes(recipes)
	return recipes, nil
}

// RecipesConsuming returns the ids of recipes that take itemID as input.
func (m *Memory) RecipesConsuming(_ context.Context, itemID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := append([]string(nil), m.consumers[itemID]...)
	sort.Strings(ids)
	return ids, nil
}

// RecipeByID returns the recipe or nil when unknown.
func (m *Memory) RecipeByID(_ context.Context, id string) (*planner.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	r = cloneRecipe(r)
	return &r, nil
}

// DefaultRecipeFor returns the pinned default, falling back to PickDefault.
// A nil recipe means the item is raw.
func (m *Memory) DefaultRecipeFor(ctx context.Context, itemID string) (*planner.Recipe, error) {
	m.mu.RLock()
	pinned, ok := m.defaults[itemID]
	m.mu.RUnlock()
	if ok {
		return m.RecipeByID(ctx, pinned)
	}

	recipes, err := m.RecipesProducing(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return PickDefault(recipes, itemID), nil
}

func cloneRecipe(r planner.Recipe) planner.Recipe {
	out := r
	out.ProducerMachineIDs = append([]string(nil), r.ProducerMachineIDs...)
	out.Inputs = make(map[string]float64, len(r.Inputs))
	for k, v := range r.Inputs {
		out.Inputs[k] = v
	}
	out.Outputs = make(map[string]float64, len(r.Outputs))
	for k, v := range r.Outputs {
		out.Outputs[k] = v
	}
	return out
}
