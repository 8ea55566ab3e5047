package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsned/production-planner/pkg/planner"
)

// PlanStore persists plan snapshots by name.
type PlanStore struct {
	db *DB
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// SavePlan stores a snapshot under name, replacing any previous version.
func (s *PlanStore) SavePlan(ctx context.Context, name string, snap planner.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (name, snapshot, tree_count, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			snapshot = excluded.snapshot,
			tree_count = excluded.tree_count,
			updated_at = excluded.updated_at
	`, name, string(data), len(snap.Trees))
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", name, err)
	}

	return nil
}

// LoadPlan returns the snapshot stored under name.
func (s *PlanStore) LoadPlan(ctx context.Context, name string) (*planner.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM plans WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", planner.ErrPlanNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	var snap planner.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", name, err)
	}
	return &snap, nil
}

// ListPlans returns every stored plan ordered by name.
func (s *PlanStore) ListPlans(ctx context.Context) ([]planner.PlanInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, tree_count, updated_at FROM plans ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	plans := []planner.PlanInfo{}
	for rows.Next() {
		var p planner.PlanInfo
		if err := rows.Scan(&p.Name, &p.TreeCount, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// DeletePlan removes a stored plan.
func (s *PlanStore) DeletePlan(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", planner.ErrPlanNotFound, name)
	}
	return nil
}
