package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Schedule: "*/30 * * * *",
		Paths: &config.PathsConfig{
			Torrents: filepath.Join(root, "torrents"),
			Library:  filepath.Join(root, "library"),
		},
		Database: &config.DatabaseConfig{Path: filepath.Join(root, "data", "test.db")},
		Directories: &config.DirectoriesConfig{
			Movies:      "movies",
			Shows:       "shows",
			AnimeMovies: "anime_movies",
			AnimeShows:  "anime_shows",
		},
		Metadata: &config.MetadataConfig{URL: "http://localhost", APIKey: "test"},
	}
	require.NoError(t, os.MkdirAll(cfg.Paths.Torrents, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.Library, "movies", "Heat (1995) {imdb-tt0113277}"), 0o755))
	return cfg
}

func TestReconcileOnce(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, reconcileOnce(context.Background(), cfg))
	assert.FileExists(t, cfg.Database.Path)
}

func TestReconcileOnce_ReturnsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reconcileOnce(ctx, testConfig(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
