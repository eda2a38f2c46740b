package results

import (
	"path/filepath"
	"testing"

	"github.com/aristath/eiten/internal/database"
	"github.com/aristath/eiten/internal/modules/evaluation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "results.db"),
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(db)
	require.NoError(t, err)
	return repo
}

func sampleResults(runID string) []evaluation.Result {
	return []evaluation.Result{
		{
			RunID:    runID,
			Strategy: "Minimum Variance Portfolio (MVP)",
			Phase:    evaluation.PhaseBacktest,
			Status:   evaluation.StatusCompleted,
			Values:   []float64{1.0, 1.02, 1.015},
			Market:   []float64{1.0, 1.01, 1.03},
			Summary: evaluation.Summary{
				FinalValue:  1.015,
				TotalReturn: 0.015,
				SharpeRatio: 1.2,
				MaxDrawdown: 0.0049,
			},
		},
		{
			RunID:    runID,
			Strategy: "Minimum Variance Portfolio (MVP)",
			Phase:    evaluation.PhaseSimulation,
			Status:   evaluation.StatusFailed,
			Error:    "phase data missing: no historical prices for AAPL",
		},
	}
}

func TestRepository_SaveAndLoadRun(t *testing.T) {
	repo := newTestRepository(t)

	stored := sampleResults("run-abc")
	require.NoError(t, repo.Save(stored))

	loaded, err := repo.LoadRun("run-abc")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, stored[0], loaded[0])
	assert.Equal(t, stored[1], loaded[1])
}

func TestRepository_SaveIsIdempotentPerCell(t *testing.T) {
	repo := newTestRepository(t)

	first := sampleResults("run-abc")
	require.NoError(t, repo.Save(first))

	// Re-saving the same run replaces cells instead of duplicating them.
	first[0].Summary.FinalValue = 2.0
	require.NoError(t, repo.Save(first))

	loaded, err := repo.LoadRun("run-abc")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2.0, loaded[0].Summary.FinalValue)
}

func TestRepository_LoadUnknownRun(t *testing.T) {
	repo := newTestRepository(t)

	loaded, err := repo.LoadRun("nope")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRepository_ListRuns(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(sampleResults("run-1")))
	require.NoError(t, repo.Save(sampleResults("run-2")))

	runs, err := repo.ListRuns()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, runs)
}
