package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/classdrift/core/evolution"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// EvolveHistory runs the evolution passes over the stored releases of a system.
func EvolveHistory(ctx context.Context, cfg *contract.Config, system string, mgr contract.StoreManager) (*evolution.Result, error) {
	store := mgr.GetSnapshotStore()
	if store == nil {
		return nil, errors.New("snapshot store is not configured")
	}
	hist, err := store.GetHistory(system)
	if err != nil {
		return nil, fmt.Errorf("evolve %s: %w", system, err)
	}

	rsns, err := contiguousRSNs(store, system, hist.RSNs())
	if err != nil {
		return nil, err
	}

	runStore := mgr.GetRunStore()
	ctx = beginRun(ctx, runStore, system, schema.EvolveRun, map[string]any{
		"releases": len(rsns),
		"first":    rsns[0],
		"last":     rsns[len(rsns)-1],
	})

	contract.LogProgress(cfg, "🧬", "Evolving %s across %d releases...", system, len(rsns))
	res, err := evolution.NewEngine(store, system).Run(ctx, rsns)
	if err != nil {
		return nil, err
	}
	if len(rsns) == 1 {
		contract.LogWarn(fmt.Sprintf("Evolving %s", system), contract.ErrTooFewReleases)
	}

	classes := 0
	for _, s := range res.Summaries {
		classes += s.Classes
		recordSummary(ctx, runStore, s)
	}
	for _, r := range res.Renames {
		contract.LogProgress(cfg, "✏️", "Release %d: %s renamed to %s", r.RSN, r.From, r.To)
	}
	endRun(ctx, runStore, len(rsns), classes)
	return res, nil
}

// contiguousRSNs returns the releases to evolve. Missing trailing releases are
// trimmed with a warning; a missing release followed by a stored one is an error.
func contiguousRSNs(store contract.VersionStore, system string, rsns []int) ([]int, error) {
	present := make([]bool, len(rsns))
	last := -1
	for i, rsn := range rsns {
		ok, err := store.Exists(system, rsn)
		if err != nil {
			return nil, fmt.Errorf("check %s release %d: %w", system, rsn, err)
		}
		present[i] = ok
		if ok {
			last = i
		}
	}
	if last < 0 {
		return nil, fmt.Errorf("evolve %s: %w", system, contract.ErrSnapshotNotFound)
	}
	for i := 0; i <= last; i++ {
		if !present[i] {
			return nil, fmt.Errorf("evolve %s: release %d is missing: %w", system, rsns[i], contract.ErrNonContiguousHistory)
		}
		if i > 0 && rsns[i] != rsns[i-1]+1 {
			return nil, fmt.Errorf("evolve %s: release %d follows %d: %w", system, rsns[i], rsns[i-1], contract.ErrNonContiguousHistory)
		}
	}
	if last < len(rsns)-1 {
		contract.LogWarn(fmt.Sprintf("Evolving %s", system),
			fmt.Errorf("releases %d to %d were never extracted and are skipped", rsns[last+1], rsns[len(rsns)-1]))
	}
	return rsns[:last+1], nil
}
