/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lrucache/lrucache"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Cache.MaxEntries)
		require.Equal(t, 5, cfg.Sim.Workers)
		require.Equal(t, 1000, cfg.Sim.OpsPerWorker)
		require.Equal(t, 60, cfg.Sim.GetPercent)
		require.Equal(t, 100*time.Microsecond, cfg.Sim.MaxOpDelay)
		require.Equal(t, logOutputStdout, cfg.Log.Output)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
cache:
  maxEntries: 128
sim:
  workers: 3
  opsPerWorker: 100
  maxOpDelay: 2ms
log:
  level: debug
  format: json
`), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 128, cfg.Cache.MaxEntries)
		require.Equal(t, 3, cfg.Sim.Workers)
		require.Equal(t, 100, cfg.Sim.OpsPerWorker)
		require.Equal(t, 2*time.Millisecond, cfg.Sim.MaxOpDelay)
		require.Equal(t, "debug", cfg.Log.Level)
		require.Equal(t, logFormatJSON, cfg.Log.Format)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("CACHESIM_CACHE_MAXENTRIES", "64")
		cfg, err := loadConfig("")
		require.NoError(t, err)
		require.Equal(t, 64, cfg.Cache.MaxEntries)
	})

	t.Run("invalid cache capacity", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache:\n  maxEntries: 0\n"), 0o600))

		_, err := loadConfig(path)
		require.ErrorIs(t, err, lrucache.ErrInvalidMaxEntries)
	})

	t.Run("invalid operation mix", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sim:\n  getPercent: 80\n  addPercent: 30\n"), 0o600))

		_, err := loadConfig(path)
		require.Error(t, err)
	})

	t.Run("file output requires path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  output: file\n"), 0o600))

		_, err := loadConfig(path)
		require.Error(t, err)
	})
}
