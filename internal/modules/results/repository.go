// Package results persists evaluation outcomes so runs can be inspected and
// compared after the fact.
package results

import (
	"database/sql"
	"fmt"

	"github.com/aristath/eiten/internal/database"
	"github.com/aristath/eiten/internal/modules/evaluation"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository stores evaluation results as msgpack blobs keyed by
// (run_id, strategy, phase).
type Repository struct {
	db *database.DB
}

// NewRepository creates a results repository and ensures its schema.
func NewRepository(db *database.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS run_results (
			run_id     TEXT NOT NULL,
			strategy   TEXT NOT NULL,
			phase      TEXT NOT NULL,
			status     TEXT NOT NULL,
			payload    BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, strategy, phase)
		);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create run_results table: %w", err)
	}
	return nil
}

// Save persists every result of one run in a single transaction.
func (r *Repository) Save(results []evaluation.Result) error {
	return database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO run_results (run_id, strategy, phase, status, payload)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, result := range results {
			payload, err := msgpack.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode result %s/%s: %w", result.Strategy, result.Phase, err)
			}
			if _, err := stmt.Exec(
				result.RunID, result.Strategy, string(result.Phase), string(result.Status), payload,
			); err != nil {
				return fmt.Errorf("failed to insert result %s/%s: %w", result.Strategy, result.Phase, err)
			}
		}
		return nil
	})
}

// LoadRun returns every stored result of a run, in insertion order.
func (r *Repository) LoadRun(runID string) ([]evaluation.Result, error) {
	rows, err := r.db.Query(
		"SELECT payload FROM run_results WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []evaluation.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan result for run %s: %w", runID, err)
		}
		var result evaluation.Result
		if err := msgpack.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("failed to decode result for run %s: %w", runID, err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results for run %s: %w", runID, err)
	}

	return results, nil
}

// ListRuns returns the distinct run IDs, most recent first.
func (r *Repository) ListRuns() ([]string, error) {
	rows, err := r.db.Query(
		"SELECT run_id FROM run_results GROUP BY run_id ORDER BY MAX(created_at) DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		runs = append(runs, runID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}
