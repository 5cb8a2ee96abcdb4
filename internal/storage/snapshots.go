package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/solheim/stonadskjerne/internal/common"
	"github.com/solheim/stonadskjerne/internal/model"
)

// SaveSimulationSnapshot stores the simulation a revision was accepted
// with. The snapshot is what the claim consistency check recomputes the
// error payments from, long after the Ledger state has moved on.
func (s *SQLiteStorage) SaveSimulationSnapshot(ctx context.Context, revisionID uuid.UUID, sim model.SimulationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	snapshot, err := json.Marshal(sim)
	if err != nil {
		return fmt.Errorf("failed to encode simulation snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulation_snapshots (revision_id, snapshot, computed_date)
		VALUES (?, ?, ?)
		ON CONFLICT(revision_id) DO UPDATE SET snapshot = excluded.snapshot, computed_date = excluded.computed_date
	`, revisionID.String(), string(snapshot), sim.ComputedDate)
	if err != nil {
		return fmt.Errorf("failed to save simulation snapshot: %w", err)
	}
	return nil
}

// GetSimulationSnapshot loads the simulation snapshot for a revision.
func (s *SQLiteStorage) GetSimulationSnapshot(ctx context.Context, revisionID uuid.UUID) (*model.SimulationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var snapshot string
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM simulation_snapshots WHERE revision_id = ?
	`, revisionID.String()).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load simulation snapshot: %w", err)
	}

	var sim model.SimulationResult
	if err := json.Unmarshal([]byte(snapshot), &sim); err != nil {
		return nil, fmt.Errorf("failed to decode simulation snapshot for revision %s: %w", revisionID, err)
	}
	return &sim, nil
}
