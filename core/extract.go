package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/classdrift/core/bytecode"
	"github.com/huangsam/classdrift/core/graph"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/descriptor"
	"github.com/huangsam/classdrift/schema"
	"golang.org/x/sync/errgroup"
)

// ExtractResult summarizes one extraction run over a history.
type ExtractResult struct {
	System    string
	Extracted []int // RSNs stored in the Version Store
	Classes   int   // classes stored across all releases
	Failed    []*contract.VersionExtractionError
}

// ExtractHistory extracts every release of a descriptor into the snapshot store.
// A release that fails is logged and left out; the run continues with the next one.
func ExtractHistory(ctx context.Context, cfg *contract.Config, d *descriptor.Descriptor, mgr contract.StoreManager) (*ExtractResult, error) {
	store := mgr.GetSnapshotStore()
	if store == nil {
		return nil, errors.New("snapshot store is not configured")
	}
	system := d.SystemKey()

	// --- 0. Begin Run Tracking (if configured) ---
	runStore := mgr.GetRunStore()
	ctx = beginRun(ctx, runStore, system, schema.ExtractRun, map[string]any{
		"descriptor": cfg.DescriptorPath,
		"releases":   len(d.Releases),
		"workers":    cfg.Workers,
		"includes":   d.Include,
		"excludes":   d.Exclude,
	})

	// --- 1. Table of contents ---
	if err := store.PutHistory(d.History()); err != nil {
		return nil, fmt.Errorf("store history of %s: %w", system, err)
	}

	// --- 2. Releases in RSN order ---
	res := &ExtractResult{System: system}
	extractor := bytecode.NewExtractor(cfg.Analysis)
	engine := graph.NewEngine(cfg.Analysis)
	filter := d.Filter()
	for _, r := range d.Releases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		contract.LogProgress(cfg, "📦", "Extracting %s release %d (%s)...", system, r.RSN, r.ID)

		snap, err := extractRelease(ctx, cfg, extractor, engine, filter, r, d.ReleasePath(r))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			verr := &contract.VersionExtractionError{System: system, RSN: r.RSN, Err: err}
			contract.LogWarn("Skipping release", verr)
			res.Failed = append(res.Failed, verr)
			continue
		}
		if err := store.Put(system, snap); err != nil {
			return nil, fmt.Errorf("store %s release %d: %w", system, r.RSN, err)
		}
		res.Extracted = append(res.Extracted, r.RSN)
		res.Classes += len(snap.Classes)
		recordSummary(ctx, runStore, schema.SummarizeSnapshot(snap))
	}

	// --- 3. End Run Tracking ---
	endRun(ctx, runStore, len(res.Extracted), res.Classes)
	return res, nil
}

// extractRelease reads, decodes, filters and post-processes one release.
func extractRelease(ctx context.Context, cfg *contract.Config, extractor *bytecode.Extractor, engine *graph.Engine,
	filter contract.PackageFilter, r descriptor.Release, path string,
) (*schema.VersionSnapshot, error) {
	content, err := readRelease(path)
	if err != nil {
		return nil, err
	}
	if len(content.entries) == 0 {
		return nil, fmt.Errorf("no class files in %s", path)
	}

	records, err := decodeEntries(ctx, extractor, content.entries, cfg.Workers)
	if err != nil {
		return nil, err
	}

	snap := schema.NewVersionSnapshot(r.RSN, r.ID, content.lastModified)
	for _, c := range records {
		if c == nil || !filter.Keep(c.PackageName) {
			continue
		}
		if _, dup := snap.Classes[c.Name]; dup {
			contract.LogWarn(fmt.Sprintf("Release %d", r.RSN), fmt.Errorf("duplicate class %s, keeping the first entry", c.Name))
			continue
		}
		snap.Classes[c.Name] = c
	}

	stats := engine.Process(snap)
	if n := len(stats.Missing); n > 0 {
		contract.LogProgress(cfg, "🔗", "Release %d: %d references outside the analyzed classes", r.RSN, n)
	}
	return snap, nil
}

// decodeEntries decodes class entries with at most workers goroutines. Results keep
// the entry order; entries that fail to decode are logged and left nil.
func decodeEntries(ctx context.Context, extractor *bytecode.Extractor, entries []classEntry, workers int) ([]*schema.ClassRecord, error) {
	records := make([]*schema.ClassRecord, len(entries))
	decodeErrs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := extractor.Extract(entry.name, entry.data)
			if err != nil {
				var de *contract.DecodeError
				if errors.As(err, &de) {
					decodeErrs[i] = err
					return nil
				}
				return err
			}
			records[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range decodeErrs {
		if err != nil {
			contract.LogWarn("Skipping class", err)
		}
	}
	return records, nil
}

// beginRun starts run tracking and stores the run ID in the context.
func beginRun(ctx context.Context, runStore contract.RunStore, system string, kind schema.RunKind, params map[string]any) context.Context {
	if runStore == nil {
		return ctx
	}
	runID, err := runStore.BeginRun(system, kind, time.Now(), params)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx
	}
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	return ctx
}

func recordSummary(ctx context.Context, runStore contract.RunStore, summary schema.ReleaseSummary) {
	runID := runIDFrom(ctx)
	if runStore == nil || runID == 0 {
		return
	}
	if err := runStore.RecordReleaseSummary(runID, summary); err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to record summary of release %d", summary.RSN), err)
	}
}

func endRun(ctx context.Context, runStore contract.RunStore, releases, classes int) {
	runID := runIDFrom(ctx)
	if runStore == nil || runID == 0 {
		return
	}
	if err := runStore.EndRun(runID, time.Now(), releases, classes); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
