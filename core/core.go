// Package core drives extraction and evolution runs over a history and
// answers report queries against the snapshot store.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/descriptor"
	"github.com/huangsam/classdrift/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteExtract loads the descriptor at cfg.DescriptorPath and extracts every release.
func ExecuteExtract(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	_, err := runExtract(ctx, cfg, mgr)
	return err
}

// ExecuteEvolve runs the evolution passes over the stored releases of cfg.System.
func ExecuteEvolve(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		contract.LogProgress(cfg, "🔎", "Evolving %s with %s store", cfg.System, cfg.StoreBackend)
	}
	res, err := EvolveHistory(ctx, cfg, cfg.System, mgr)
	if err != nil {
		return err
	}
	contract.LogProgress(cfg, "✅", "Evolved %d releases of %s (%d renames, %d skipped ancestors) in %v",
		len(res.Summaries), cfg.System, len(res.Renames), len(res.Skipped), time.Since(start).Round(time.Millisecond))
	return nil
}

// ExecuteRun extracts a history and evolves it right away, then prints the release report.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	extracted, err := runExtract(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if len(extracted.Extracted) == 0 {
		return fmt.Errorf("no release of %s could be extracted", extracted.System)
	}

	runCfg := cfg.Clone()
	runCfg.System = extracted.System
	if _, err := EvolveHistory(WithSuppressHeader(ctx), runCfg, runCfg.System, mgr); err != nil {
		return err
	}
	summaries, err := GetReleaseSummaries(ctx, runCfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteReleaseSummaries(runCfg.System, summaries, runCfg, time.Since(start))
}

// ExecuteSystems prints the stored systems.
func ExecuteSystems(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	systems, err := GetSystems(ctx, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteSystems(systems, cfg)
}

// ExecuteReleases prints the per-release evolution summary of cfg.System.
func ExecuteReleases(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	summaries, err := GetReleaseSummaries(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteReleaseSummaries(cfg.System, summaries, cfg, time.Since(start))
}

// ExecuteClasses prints the classes of one release of cfg.System.
func ExecuteClasses(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	listing, err := GetClassListing(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteClassListing(listing, cfg, time.Since(start))
}

// ExecuteClassTimeline prints the history of cfg.ClassName across the releases of cfg.System.
func ExecuteClassTimeline(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	timeline, err := GetClassTimeline(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteClassTimeline(cfg.System, timeline, cfg, time.Since(start))
}

// ExecuteMetrics prints the metric alias table. It needs no store.
func ExecuteMetrics(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	return outwriter.WriteMetricDefinitions(cfg)
}

// ExecuteRuns prints the tracked runs.
func ExecuteRuns(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	runStore := mgr.GetRunStore()
	if runStore == nil {
		return fmt.Errorf("run tracking is not configured")
	}
	runs, err := runStore.GetAllRuns()
	if err != nil {
		return err
	}
	return outwriter.WriteRuns(runs, cfg)
}

func runExtract(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*ExtractResult, error) {
	start := time.Now()
	d, err := descriptor.Load(cfg.DescriptorPath)
	if err != nil {
		return nil, err
	}
	if !shouldSuppressHeader(ctx) {
		contract.LogProgress(cfg, "🔎", "Extracting %q as %s: %d releases, %d workers, %s store",
			d.Name, d.SystemKey(), len(d.Releases), cfg.Workers, cfg.StoreBackend)
	}
	res, err := ExtractHistory(ctx, cfg, d, mgr)
	if err != nil {
		return nil, err
	}
	contract.LogProgress(cfg, "✅", "Extracted %d of %d releases (%d classes) in %v",
		len(res.Extracted), len(d.Releases), res.Classes, time.Since(start).Round(time.Millisecond))
	return res, nil
}
