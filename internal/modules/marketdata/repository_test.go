package marketdata

import (
	"path/filepath"
	"testing"

	"github.com/aristath/eiten/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "prices.db"),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(db)
	require.NoError(t, err)
	return repo
}

func TestRepository_SaveAndLoadCloses(t *testing.T) {
	repo := newTestRepository(t)

	closes := []float64{100.5, 101.25, 99.875}
	require.NoError(t, repo.SaveCloses("AAPL", 3600, closes))

	loaded, err := repo.LoadCloses("AAPL", 3600)
	require.NoError(t, err)
	assert.Equal(t, closes, loaded)
}

func TestRepository_SaveReplacesExistingSeries(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SaveCloses("AAPL", 3600, []float64{1, 2, 3, 4}))
	require.NoError(t, repo.SaveCloses("AAPL", 3600, []float64{5, 6}))

	loaded, err := repo.LoadCloses("AAPL", 3600)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, loaded)
}

func TestRepository_GranularitiesAreIndependent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SaveCloses("AAPL", 3600, []float64{1, 2}))
	require.NoError(t, repo.SaveCloses("AAPL", 60, []float64{3, 4}))

	daily, err := repo.LoadCloses("AAPL", 3600)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, daily)

	hourly, err := repo.LoadCloses("AAPL", 60)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, hourly)
}

func TestRepository_LoadMissingSymbol(t *testing.T) {
	repo := newTestRepository(t)

	loaded, err := repo.LoadCloses("MISSING", 3600)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
