package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/classdrift/core/algo"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// GetSystems lists every stored system with its release counts.
func GetSystems(_ context.Context, mgr contract.StoreManager) ([]schema.SystemInfo, error) {
	store, err := snapshotStore(mgr)
	if err != nil {
		return nil, err
	}
	keys, err := store.ListSystems()
	if err != nil {
		return nil, err
	}
	systems := make([]schema.SystemInfo, 0, len(keys))
	for _, key := range keys {
		hist, err := store.GetHistory(key)
		if err != nil {
			return nil, err
		}
		rsns, err := store.ListRSNs(key)
		if err != nil {
			return nil, err
		}
		systems = append(systems, schema.SystemInfo{
			Key:      key,
			Name:     hist.Metadata[schema.MetaName],
			Type:     hist.Metadata[schema.MetaType],
			Releases: len(hist.Releases),
			Stored:   len(rsns),
		})
	}
	return algo.RankSystems(systems), nil
}

// GetReleaseSummaries tallies the evolution statuses of every stored release of a system.
func GetReleaseSummaries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ReleaseSummary, error) {
	store, err := snapshotStore(mgr)
	if err != nil {
		return nil, err
	}
	rsns, err := storedRSNs(store, cfg.System)
	if err != nil {
		return nil, err
	}
	summaries := make([]schema.ReleaseSummary, 0, len(rsns))
	for _, rsn := range rsns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := store.Get(cfg.System, rsn)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, schema.SummarizeSnapshot(snap))
	}
	return summaries, nil
}

// GetClassListing returns the classes of one release (the latest when cfg.RSN is 0),
// ordered by the sort metric descending and cut to the result limit.
func GetClassListing(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.ClassListing, error) {
	store, err := snapshotStore(mgr)
	if err != nil {
		return nil, err
	}
	rsn := cfg.RSN
	if rsn == 0 {
		rsns, err := storedRSNs(store, cfg.System)
		if err != nil {
			return nil, err
		}
		rsn = rsns[len(rsns)-1]
	}
	snap, err := store.Get(cfg.System, rsn)
	if err != nil {
		return nil, err
	}

	classes := make([]*schema.ClassRecord, 0, len(snap.Classes))
	for _, name := range snap.ClassNames() {
		classes = append(classes, snap.Classes[name])
	}
	sortBy := cmp.Or(cfg.SortMetric, schema.Instability)
	total := len(classes)
	classes = algo.RankClasses(classes, sortBy, cfg.ResultLimit)
	return &schema.ClassListing{
		System:       cfg.System,
		RSN:          snap.RSN,
		ReleaseID:    snap.ReleaseID,
		LastModified: snap.LastModified,
		Total:        total,
		SortedBy:     sortBy,
		Classes:      classes,
	}, nil
}

// GetClassTimeline follows one class back through the stored releases. Renames are
// followed so the timeline continues under the class's earlier name.
func GetClassTimeline(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.ClassTimelineEntry, error) {
	if cfg.ClassName == "" {
		return nil, errors.New("class name is required")
	}
	store, err := snapshotStore(mgr)
	if err != nil {
		return nil, err
	}
	rsns, err := storedRSNs(store, cfg.System)
	if err != nil {
		return nil, err
	}

	name := cfg.ClassName
	var timeline []schema.ClassTimelineEntry
	for _, rsn := range slices.Backward(rsns) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := store.Get(cfg.System, rsn)
		if err != nil {
			return nil, err
		}
		c, ok := snap.Classes[name]
		if !ok {
			if len(timeline) > 0 {
				break
			}
			continue
		}
		timeline = append(timeline, schema.ClassTimelineEntry{
			RSN:       snap.RSN,
			ReleaseID: snap.ReleaseID,
			Name:      c.Name,
			Metrics:   c.Metrics,
		})
		if c.RenamedFrom != "" {
			name = c.RenamedFrom
		}
	}
	if len(timeline) == 0 {
		return nil, fmt.Errorf("class %s not found in %s", cfg.ClassName, cfg.System)
	}
	slices.Reverse(timeline)
	return timeline, nil
}

func snapshotStore(mgr contract.StoreManager) (contract.SnapshotStore, error) {
	store := mgr.GetSnapshotStore()
	if store == nil {
		return nil, errors.New("snapshot store is not configured")
	}
	return store, nil
}

// storedRSNs returns the stored releases of a system, failing when there are none.
func storedRSNs(store contract.SnapshotStore, system string) ([]int, error) {
	rsns, err := store.ListRSNs(system)
	if err != nil {
		return nil, err
	}
	if len(rsns) == 0 {
		return nil, fmt.Errorf("system %s: %w", system, contract.ErrSnapshotNotFound)
	}
	return rsns, nil
}
