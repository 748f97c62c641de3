package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join(DefaultConfigDir, DefaultDatabaseFile), cfg.SQLite.Path)
	assert.Empty(t, cfg.Tracking)
}

func TestWriteDefaultAndLoad(t *testing.T) {
	dir := t.TempDir()

	require.False(t, Exists(dir))
	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ".papertrail/versions.db", cfg.SQLite.Path)

	t.Run("second init fails", func(t *testing.T) {
		err := WriteDefault(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run 'papertrail init' first")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "sqlite: [not a mapping")
		_, err := Load(dir)
		assert.Error(t, err)
	})

	t.Run("tracking section", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, `
sqlite:
  path: custom/versions.db
tracking:
  Widget:
    ignore: [secret]
    skip: [cached_total]
    timestamp_columns: [touched_at]
    record_diffs: true
    track_associations: true
    meta:
      source: yaml
`)
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "custom/versions.db", cfg.SQLite.Path)

		spec, ok := cfg.Tracking["Widget"]
		require.True(t, ok)
		assert.Equal(t, []string{"secret"}, spec.Ignore)
		assert.True(t, spec.RecordDiffs)
		assert.True(t, spec.TrackAssociations)
	})

	t.Run("env override", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "sqlite:\n  path: from-file.db\n")
		t.Setenv("PAPERTRAIL_DB_PATH", "from-env.db")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "from-env.db", cfg.SQLite.Path)
	})
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Default()
	want.SQLite.Path = "elsewhere.db"
	want.Tracking = map[string]PolicySpec{
		"Order": {Only: []string{"status"}, RecordDiffs: true},
	}

	require.NoError(t, Write(dir, want))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPolicySpec_Policy(t *testing.T) {
	spec := PolicySpec{
		Ignore:            []string{"secret"},
		Skip:              []string{"cached_total"},
		Only:              []string{"status", "total"},
		TimestampColumns:  []string{"touched_at"},
		TrackAssociations: true,
		RecordDiffs:       true,
		Meta:              map[string]any{"source": "yaml", "app": "shop"},
	}

	pol := spec.Policy()

	assert.Equal(t, map[string]bool{"secret": true}, pol.ResolvedIgnore(nil))
	assert.Equal(t, map[string]bool{"cached_total": true}, pol.ResolvedSkip(nil))
	assert.Equal(t, map[string]bool{"status": true, "total": true}, pol.ResolvedOnly(nil))
	assert.Equal(t, map[string]bool{"touched_at": true}, pol.Timestamps())
	assert.True(t, pol.TrackAssociations)
	assert.True(t, pol.RecordDiffs)

	// Meta fields come out in deterministic key order.
	require.Len(t, pol.Meta, 2)
	assert.Equal(t, entities.MetadataField{Key: "app", Value: "shop"}, pol.Meta[0])
	assert.Equal(t, entities.MetadataField{Key: "source", Value: "yaml"}, pol.Meta[1])
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, DefaultConfigDir)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, DefaultConfigFile), []byte(content), 0644))
}
