package iocache

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(rsn int, classes ...string) *schema.VersionSnapshot {
	snap := schema.NewVersionSnapshot(rsn, fmt.Sprintf("v%d", rsn), time.Date(2021, 1, rsn, 12, 0, 0, 0, time.UTC))
	for _, name := range classes {
		c := schema.NewClassRecord(name)
		c.SuperClassName = schema.RootObjectType
		c.Methods.Add("run()V")
		c.Dependencies.Add("java.util.List")
		c.Set(schema.MethodCount, 1)
		c.ExternalCalls["java.util.List"] = 2
		snap.Classes[name] = c
	}
	snap.ExternalUsage["java.util.List"] = len(classes)
	snap.Status = schema.PostProcessed
	return snap
}

// snapshotStores returns one fresh store per backend that runs without a server.
func snapshotStores(t *testing.T) map[string]contract.SnapshotStore {
	t.Helper()
	sqliteStore, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	memStore, err := NewSnapshotStore(schema.NoneBackend, "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqliteStore.Close()
		_ = memStore.Close()
	})
	return map[string]contract.SnapshotStore{"sqlite": sqliteStore, "none": memStore}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			want := testSnapshot(1, "app.Core", "app.Repo")
			require.NoError(t, store.Put("demo", want))

			got, err := store.Get("demo", 1)
			require.NoError(t, err)
			assert.Equal(t, want.RSN, got.RSN)
			assert.Equal(t, want.ReleaseID, got.ReleaseID)
			assert.True(t, want.LastModified.Equal(got.LastModified))
			assert.Equal(t, want.LastModifiedDays, got.LastModifiedDays)
			assert.Equal(t, schema.PostProcessed, got.Status)
			assert.Equal(t, []string{"app.Core", "app.Repo"}, got.ClassNames())
			assert.Equal(t, 2, got.ExternalUsage["java.util.List"])

			core := got.Classes["app.Core"]
			assert.True(t, core.Methods.Has("run()V"))
			assert.Equal(t, 1, core.Get(schema.MethodCount))
			assert.Equal(t, 2, core.ExternalCalls["java.util.List"])
			assert.Len(t, core.Metrics, len(schema.MetricCatalog), "every metric key is present after reading back")
		})
	}
}

func TestSnapshotStoreReturnsPrivateCopies(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put("demo", testSnapshot(1, "app.Core")))

			first, err := store.Get("demo", 1)
			require.NoError(t, err)
			first.Classes["app.Core"].Set(schema.Age, 99)

			second, err := store.Get("demo", 1)
			require.NoError(t, err)
			assert.Zero(t, second.Classes["app.Core"].Get(schema.Age))
		})
	}
}

func TestSnapshotStoreOverwrite(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put("demo", testSnapshot(1, "app.Core")))
			require.NoError(t, store.Put("demo", testSnapshot(1, "app.Core", "app.Extra")))

			got, err := store.Get("demo", 1)
			require.NoError(t, err)
			assert.Len(t, got.Classes, 2)

			rsns, err := store.ListRSNs("demo")
			require.NoError(t, err)
			assert.Equal(t, []int{1}, rsns)
		})
	}
}

func TestSnapshotStoreMissing(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("demo", 7)
			assert.ErrorIs(t, err, contract.ErrSnapshotNotFound)

			ok, err := store.Exists("demo", 7)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = store.GetHistory("demo")
			assert.ErrorIs(t, err, contract.ErrHistoryNotFound)
		})
	}
}

func TestSnapshotStoreListings(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, rsn := range []int{3, 1, 2} {
				require.NoError(t, store.Put("beta", testSnapshot(rsn, "b.B")))
			}
			require.NoError(t, store.Put("alpha", testSnapshot(1, "a.A")))
			for _, key := range []string{"beta", "alpha"} {
				require.NoError(t, store.PutHistory(&schema.EvolutionHistory{Key: key, Releases: map[int]string{1: "1.0"}}))
			}

			systems, err := store.ListSystems()
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "beta"}, systems)

			rsns, err := store.ListRSNs("beta")
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, rsns)

			ok, err := store.Exists("beta", 2)
			require.NoError(t, err)
			assert.True(t, ok)

			status, err := store.GetStatus()
			require.NoError(t, err)
			assert.True(t, status.Connected)
			assert.Equal(t, 2, status.TotalSystems)
			assert.Equal(t, 4, status.TotalSnapshots)
			assert.False(t, status.LastWriteTime.IsZero())
		})
	}
}

func TestSnapshotStoreHistory(t *testing.T) {
	for name, store := range snapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			want := &schema.EvolutionHistory{
				Key:      "ant",
				Releases: map[int]string{1: "1.1", 2: "1.2"},
				Metadata: map[string]string{schema.MetaName: "Apache Ant", schema.MetaShortName: "Apache"},
				Includes: []string{"org.apache.tools"},
				Excludes: []string{"junit"},
			}
			require.NoError(t, store.PutHistory(want))

			got, err := store.GetHistory("ant")
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, []int{1, 2}, got.RSNs())
		})
	}
}

func TestSnapshotStoreDetectsCorruption(t *testing.T) {
	store, err := NewSnapshotStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Put("demo", testSnapshot(1, "app.Core")))

	impl := store.(*SnapshotStoreImpl)
	var payload []byte
	require.NoError(t, impl.db.QueryRow(`SELECT payload FROM "classdrift_snapshots"`).Scan(&payload))
	tampered := bytes.Replace(payload, []byte("app.Core"), []byte("app.Cora"), 1)
	_, err = impl.db.Exec(`UPDATE "classdrift_snapshots" SET payload = ?`, tampered)
	require.NoError(t, err)

	_, err = store.Get("demo", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestNewSnapshotStoreUnsupportedBackend(t *testing.T) {
	_, err := NewSnapshotStore(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"classdrift_snapshots", false},
		{"_private", false},
		{"", true},
		{"1table", true},
		{"drop;table", true},
		{"name with space", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteAndPlaceholders(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "$4", placeholder(schema.PostgreSQLBackend, 4))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 4))
}
