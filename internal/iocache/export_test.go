package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteStoreExport(t *testing.T) {
	t.Run("classes and runs", func(t *testing.T) {
		snapshots := NewMemoryStore()
		require.NoError(t, snapshots.Put("demo", testSnapshot(1, "app.Core")))
		require.NoError(t, snapshots.Put("demo", testSnapshot(2, "app.Core", "app.Repo")))
		require.NoError(t, snapshots.Put("other", testSnapshot(1, "o.Main")))

		runs, err := NewRunStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = runs.Close() }()
		runID, err := runs.BeginRun("demo", schema.ExtractRun, time.Now(), nil)
		require.NoError(t, err)
		require.NoError(t, runs.EndRun(runID, time.Now(), 2, 3))

		out := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteStoreExport(NewStoreManager(snapshots, runs), "", out))
		assert.FileExists(t, out+".classes.parquet")
		assert.FileExists(t, out+".runs.parquet")
	})

	t.Run("single system without run tracking", func(t *testing.T) {
		snapshots := NewMemoryStore()
		require.NoError(t, snapshots.Put("demo", testSnapshot(1, "app.Core")))

		out := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteStoreExport(NewStoreManager(snapshots, nil), "demo", out))
		assert.FileExists(t, out+".classes.parquet")
		assert.NoFileExists(t, out+".runs.parquet")
	})

	t.Run("nothing to export", func(t *testing.T) {
		err := ExecuteStoreExport(NewStoreManager(NewMemoryStore(), nil), "", filepath.Join(t.TempDir(), "export"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no snapshots found")
	})

	t.Run("output file required", func(t *testing.T) {
		err := ExecuteStoreExport(NewStoreManager(NewMemoryStore(), nil), "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-file")
	})

	t.Run("store failure", func(t *testing.T) {
		store := &MockSnapshotStore{}
		store.On("ListRSNs", "demo").Return(nil, assert.AnError)
		mgr := &MockStoreManager{}
		mgr.On("GetSnapshotStore").Return(store)

		err := ExecuteStoreExport(mgr, "demo", filepath.Join(t.TempDir(), "export"))
		assert.ErrorIs(t, err, assert.AnError)
		store.AssertExpectations(t)
		mgr.AssertNotCalled(t, "GetRunStore")
	})
}
