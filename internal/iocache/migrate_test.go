package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, path, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrate_SQLite(t *testing.T) {
	tests := []struct {
		target MigrationTarget
		first  string
		second string
	}{
		{StoreMigrations, snapshotsTable, historiesTable},
		{RunMigrations, runsTable, releaseSummariesTable},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "migrate.db")

			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, -1))
			assert.True(t, tableExists(t, path, tt.first))
			assert.True(t, tableExists(t, path, tt.second))
			assert.True(t, tableExists(t, path, tt.target.migrationsTable()))

			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, -1), "already up to date")

			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, 1))
			assert.True(t, tableExists(t, path, tt.first))
			assert.False(t, tableExists(t, path, tt.second))

			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, 0))
			assert.False(t, tableExists(t, path, tt.first))

			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, 0), "already at zero")
			require.NoError(t, Migrate(tt.target, schema.SQLiteBackend, path, 2))
			assert.True(t, tableExists(t, path, tt.second))
		})
	}
}

func TestMigrate_TargetsShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	require.NoError(t, Migrate(StoreMigrations, schema.SQLiteBackend, path, -1))
	require.NoError(t, Migrate(RunMigrations, schema.SQLiteBackend, path, -1))

	require.NoError(t, Migrate(RunMigrations, schema.SQLiteBackend, path, 0))
	assert.True(t, tableExists(t, path, snapshotsTable), "rolling back runs leaves snapshots alone")
	assert.False(t, tableExists(t, path, runsTable))
}

func TestMigrate_MatchesRuntimeSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	require.NoError(t, Migrate(StoreMigrations, schema.SQLiteBackend, path, -1))

	store, err := NewSnapshotStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Put("demo", testSnapshot(1, "app.Core")))
	got, err := store.Get("demo", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.Core"}, got.ClassNames())
}

func TestMigrate_Rejects(t *testing.T) {
	err := Migrate(StoreMigrations, schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoneBackend")

	err = Migrate(MigrationTarget("cache"), schema.SQLiteBackend, filepath.Join(t.TempDir(), "x.db"), -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration target")
}
