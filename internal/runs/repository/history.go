package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/arrest"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/runs/domain"
)

// History persists completed runs and simulation traces in PostgreSQL.
type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// InsertRun stores one run row. The params and result payloads land in
// jsonb columns.
func (h *History) InsertRun(ctx context.Context, run *domain.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		paramsJSON = []byte("{}")
	}

	query := `
		INSERT INTO analysis_runs (
			id, network_id, content_hash, kind, params, status,
			cached, duration_ms, error_message, result
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err = h.db.QueryRowContext(ctx, query,
		run.ID,
		run.NetworkID,
		run.ContentHash,
		run.Kind,
		paramsJSON,
		run.Status,
		run.Cached,
		run.DurationMs,
		run.Error,
		[]byte(run.Result),
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves one run including its result payload.
func (h *History) Get(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	query := `
		SELECT id, network_id, content_hash, kind, params, status,
		       cached, duration_ms, error_message, result, created_at
		FROM analysis_runs
		WHERE id = $1
	`

	var (
		run        domain.AnalysisRun
		paramsJSON []byte
		result     []byte
	)
	err := h.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.NetworkID,
		&run.ContentHash,
		&run.Kind,
		&paramsJSON,
		&run.Status,
		&run.Cached,
		&run.DurationMs,
		&run.Error,
		&result,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &run.Params); err != nil {
			run.Params = domain.AnalysisParams{}
		}
	}
	run.Result = json.RawMessage(result)
	return &run, nil
}

// ListByNetwork returns runs for one network, newest first. Result payloads
// are omitted; fetch a single run to get its payload.
func (h *History) ListByNetwork(ctx context.Context, networkID string, limit int) ([]domain.AnalysisRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, network_id, content_hash, kind, params, status,
		       cached, duration_ms, error_message, created_at
		FROM analysis_runs
		WHERE network_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := h.db.QueryContext(ctx, query, networkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalysisRun
	for rows.Next() {
		var (
			run        domain.AnalysisRun
			paramsJSON []byte
		)
		err := rows.Scan(
			&run.ID,
			&run.NetworkID,
			&run.ContentHash,
			&run.Kind,
			&paramsJSON,
			&run.Status,
			&run.Cached,
			&run.DurationMs,
			&run.Error,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &run.Params); err != nil {
				run.Params = domain.AnalysisParams{}
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}

// InsertTrace stores a simulation's snapshots in a single transaction, one
// row per removal step.
func (h *History) InsertTrace(ctx context.Context, runID string, snaps []arrest.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_trace (
			run_id, step, node, effective_arrests, remaining_nodes,
			remaining_edges, components, risky_edges, kemeny
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		var kemenyJSON []byte
		if snap.Kemeny != nil {
			kemenyJSON, err = json.Marshal(snap.Kemeny)
			if err != nil {
				kemenyJSON = nil
			}
		}

		_, err = stmt.ExecContext(ctx,
			runID,
			snap.Step,
			snap.Node,
			snap.EffectiveArrests,
			snap.RemainingNodes,
			snap.RemainingEdges,
			snap.Components,
			snap.RiskyEdges,
			kemenyJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trace step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TraceByRun retrieves a simulation's snapshots ordered by step.
func (h *History) TraceByRun(ctx context.Context, runID string) ([]arrest.Snapshot, error) {
	query := `
		SELECT step, node, effective_arrests, remaining_nodes,
		       remaining_edges, components, risky_edges, kemeny
		FROM analysis_trace
		WHERE run_id = $1
		ORDER BY step ASC
	`

	rows, err := h.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	var snaps []arrest.Snapshot
	for rows.Next() {
		var (
			snap       arrest.Snapshot
			kemenyJSON []byte
		)
		err := rows.Scan(
			&snap.Step,
			&snap.Node,
			&snap.EffectiveArrests,
			&snap.RemainingNodes,
			&snap.RemainingEdges,
			&snap.Components,
			&snap.RiskyEdges,
			&kemenyJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace step: %w", err)
		}
		if len(kemenyJSON) > 0 {
			if err := json.Unmarshal(kemenyJSON, &snap.Kemeny); err != nil {
				snap.Kemeny = nil
			}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trace: %w", err)
	}
	return snaps, nil
}

// PurgeOlderThan deletes runs past the retention cutoff along with their
// trace rows, and reports how many runs went away.
func (h *History) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM analysis_trace
		WHERE run_id IN (SELECT id FROM analysis_runs WHERE created_at < $1)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge trace rows: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM analysis_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge runs: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return purged, nil
}
