package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/production-planner/pkg/planner"
)

// MachineStore handles machine data access.
type MachineStore struct {
	db *DB
}

// NewMachineStore creates a new MachineStore.
func NewMachineStore(db *DB) *MachineStore {
	return &MachineStore{db: db}
}

// GetMachine retrieves a single machine by ID.
func (s *MachineStore) GetMachine(ctx context.Context, id string) (*planner.Machine, error) {
	machine := &planner.Machine{ID: id}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, power_mw, category FROM machines WHERE id = ?
	`, id).Scan(&machine.Name, &machine.PowerMW, &machine.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying machine: %w", err)
	}

	return machine, nil
}

// GetAllMachines retrieves every machine ordered by id.
func (s *MachineStore) GetAllMachines(ctx context.Context) ([]planner.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, power_mw, category FROM machines ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all machines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var machines []planner.Machine
	for rows.Next() {
		var m planner.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.PowerMW, &m.Category); err != nil {
			return nil, fmt.Errorf("scanning machine: %w", err)
		}
		machines = append(machines, m)
	}

	return machines, rows.Err()
}

// RecipesForMachine returns the ids of recipes a machine can run.
func (s *MachineStore) RecipesForMachine(ctx context.Context, machineID string) ([]string, error) {
	ids, err := queryStrings(ctx, s.db, `
		SELECT recipe_id FROM recipe_machines
		WHERE machine_id = ?
		ORDER BY recipe_id
	`, machineID)
	if err != nil {
		return nil, fmt.Errorf("querying recipes for machine: %w", err)
	}
	return ids, nil
}

// BulkInsertMachines inserts or replaces multiple machines in a transaction.
func (s *MachineStore) BulkInsertMachines(ctx context.Context, machines []planner.Machine) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO machines (id, name, power_mw, category)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing machine statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, m := range machines {
			if m.ID == "" {
				return fmt.Errorf("machine %q has no id", m.Name)
			}
			if _, err := stmt.ExecContext(ctx, m.ID, m.Name, m.PowerMW, m.Category); err != nil {
				return fmt.Errorf("inserting machine %s: %w", m.ID, err)
			}
		}
		return nil
	})
}
