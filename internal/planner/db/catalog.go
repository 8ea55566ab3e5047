package db

// CatalogStore combines item and recipe access into the catalog the
// resolution engine reads from.
type CatalogStore struct {
	*RecipeStore
	*ItemStore
	*MachineStore
}

// NewCatalogStore creates a CatalogStore over db.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{
		RecipeStore:  NewRecipeStore(db),
		ItemStore:    NewItemStore(db),
		MachineStore: NewMachineStore(db),
	}
}
