package marketdata

import (
	"database/sql"
	"fmt"

	"github.com/aristath/eiten/internal/database"
)

// Repository caches fetched closing-price series in SQLite so repeated runs
// against the same universe do not hammer the quote API.
type Repository struct {
	db *database.DB
}

// NewRepository creates a price cache repository and ensures its schema.
func NewRepository(db *database.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS price_history (
			symbol      TEXT    NOT NULL,
			granularity INTEGER NOT NULL,
			position    INTEGER NOT NULL,
			close       REAL    NOT NULL,
			PRIMARY KEY (symbol, granularity, position)
		);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create price_history table: %w", err)
	}
	return nil
}

// SaveCloses replaces the cached series for (symbol, granularity).
func (r *Repository) SaveCloses(symbol string, granularityMinutes int, closes []float64) error {
	return database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM price_history WHERE symbol = ? AND granularity = ?",
			symbol, granularityMinutes,
		); err != nil {
			return fmt.Errorf("failed to clear cached closes for %s: %w", symbol, err)
		}

		stmt, err := tx.Prepare(
			"INSERT INTO price_history (symbol, granularity, position, close) VALUES (?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for position, close := range closes {
			if _, err := stmt.Exec(symbol, granularityMinutes, position, close); err != nil {
				return fmt.Errorf("failed to insert close for %s: %w", symbol, err)
			}
		}
		return nil
	})
}

// LoadCloses returns the cached series for (symbol, granularity) in original
// order, or nil when nothing is cached.
func (r *Repository) LoadCloses(symbol string, granularityMinutes int) ([]float64, error) {
	rows, err := r.db.Query(
		"SELECT close FROM price_history WHERE symbol = ? AND granularity = ? ORDER BY position",
		symbol, granularityMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var close float64
		if err := rows.Scan(&close); err != nil {
			return nil, fmt.Errorf("failed to scan close for %s: %w", symbol, err)
		}
		closes = append(closes, close)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached closes for %s: %w", symbol, err)
	}

	return closes, nil
}
