package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/iocache"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContiguousRSNs(t *testing.T) {
	tests := []struct {
		name    string
		stored  []int
		rsns    []int
		want    []int
		wantErr error
	}{
		{"all present", []int{1, 2, 3}, []int{1, 2, 3}, []int{1, 2, 3}, nil},
		{"trailing gap trimmed", []int{1, 2}, []int{1, 2, 3, 4}, []int{1, 2}, nil},
		{"interior gap", []int{1, 3}, []int{1, 2, 3}, nil, contract.ErrNonContiguousHistory},
		{"leading gap", []int{2, 3}, []int{1, 2, 3}, nil, contract.ErrNonContiguousHistory},
		{"numbering gap", []int{1, 3}, []int{1, 3}, nil, contract.ErrNonContiguousHistory},
		{"nothing stored", nil, []int{1, 2}, nil, contract.ErrSnapshotNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := iocache.NewMemoryStore()
			for _, rsn := range tt.stored {
				require.NoError(t, store.Put("demo", schema.NewVersionSnapshot(rsn, "v", time.Now())))
			}
			got, err := contiguousRSNs(store, "demo", tt.rsns)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvolveHistory(t *testing.T) {
	store := iocache.NewMemoryStore()
	mgr := iocache.NewStoreManager(store, nil)
	ctx := context.Background()
	cfg := testConfig()

	_, err := ExtractHistory(ctx, cfg, loadDemo(t), mgr)
	require.NoError(t, err)

	res, err := EvolveHistory(ctx, cfg, "demo", mgr)
	require.NoError(t, err)
	require.Len(t, res.Summaries, 2, "the never-extracted third release is trimmed")
	assert.Equal(t, 2, res.Summaries[0].Added)
	assert.Equal(t, 1, res.Summaries[1].Added)
	assert.Equal(t, 2, res.Summaries[1].Unchanged)
	assert.Empty(t, res.Renames)

	snap, err := store.Get("demo", 2)
	require.NoError(t, err)
	assert.Equal(t, schema.Finalized, snap.Status)
	assert.Equal(t, 1, snap.Classes["org.demo.Core"].Get(schema.BornRSN))
	assert.Equal(t, 2, snap.Classes["org.demo.Extra"].Get(schema.BornRSN))
}

func TestEvolveHistoryErrors(t *testing.T) {
	t.Run("unknown system", func(t *testing.T) {
		mgr := iocache.NewStoreManager(iocache.NewMemoryStore(), nil)
		_, err := EvolveHistory(context.Background(), testConfig(), "ghost", mgr)
		assert.ErrorIs(t, err, contract.ErrHistoryNotFound)
	})

	t.Run("no store", func(t *testing.T) {
		_, err := EvolveHistory(context.Background(), testConfig(), "demo", iocache.NewStoreManager(nil, nil))
		assert.Error(t, err)
	})

	t.Run("interior gap", func(t *testing.T) {
		store := iocache.NewMemoryStore()
		require.NoError(t, store.PutHistory(&schema.EvolutionHistory{Key: "demo", Releases: map[int]string{1: "a", 2: "b", 3: "c"}}))
		for _, rsn := range []int{1, 3} {
			require.NoError(t, store.Put("demo", schema.NewVersionSnapshot(rsn, "v", time.Now())))
		}
		_, err := EvolveHistory(context.Background(), testConfig(), "demo", iocache.NewStoreManager(store, nil))
		assert.True(t, errors.Is(err, contract.ErrNonContiguousHistory))
	})
}

func TestEvolveHistorySingleRelease(t *testing.T) {
	store := iocache.NewMemoryStore()
	require.NoError(t, store.PutHistory(&schema.EvolutionHistory{Key: "solo", Releases: map[int]string{1: "1.0"}}))
	snap := schema.NewVersionSnapshot(1, "1.0", time.Now())
	snap.Classes["a.A"] = schema.NewClassRecord("a.A")
	require.NoError(t, store.Put("solo", snap))

	res, err := EvolveHistory(context.Background(), testConfig(), "solo", iocache.NewStoreManager(store, nil))
	require.NoError(t, err)
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, 1, res.Summaries[0].Added)
}
