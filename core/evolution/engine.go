package evolution

import (
	"context"
	"fmt"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// Result summarizes one evolution run over a system.
type Result struct {
	Summaries []schema.ReleaseSummary
	Renames   []Rename
	// Skipped holds the classes whose first appearance could not be found.
	Skipped []*contract.AncestorLookupError
}

// Engine computes the cross-release metrics of one system. Every pass fetches
// snapshots from the store and writes them back before moving to the next RSN,
// so at most two snapshots are resident at once.
type Engine struct {
	store  contract.VersionStore
	system string
}

// NewEngine returns an engine for one system over the given store.
func NewEngine(store contract.VersionStore, system string) *Engine {
	return &Engine{store: store, system: system}
}

// Run executes the passes in order over the given ascending, contiguous RSNs.
// Each pass completes for every release before the next one starts:
// per-pair diff, first-appearance indexing, distance since birth, then rename
// detection, which also finalizes every release.
func (e *Engine) Run(ctx context.Context, rsns []int) (*Result, error) {
	if len(rsns) == 0 {
		return nil, fmt.Errorf("evolve %s: %w", e.system, contract.ErrTooFewReleases)
	}
	res := &Result{}

	if err := e.diffReleases(ctx, rsns); err != nil {
		return nil, err
	}

	first, err := e.indexFirstAppearances(ctx, rsns)
	if err != nil {
		return nil, err
	}

	for _, rsn := range rsns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := e.load(rsn)
		if err != nil {
			return nil, err
		}
		res.Skipped = append(res.Skipped, e.distanceSinceBirth(snap, first)...)
		if err := e.save(snap); err != nil {
			return nil, err
		}
	}

	renames, summaries, err := e.renameAndFinalize(ctx, rsns)
	if err != nil {
		return nil, err
	}
	res.Renames = renames
	res.Summaries = summaries
	return res, nil
}

func (e *Engine) load(rsn int) (*schema.VersionSnapshot, error) {
	snap, err := e.store.Get(e.system, rsn)
	if err != nil {
		return nil, fmt.Errorf("load %s release %d: %w", e.system, rsn, err)
	}
	return snap, nil
}

func (e *Engine) save(snap *schema.VersionSnapshot) error {
	if err := e.store.Put(e.system, snap); err != nil {
		return fmt.Errorf("store %s release %d: %w", e.system, snap.RSN, err)
	}
	return nil
}

// diffReleases classifies every release against its predecessor.
func (e *Engine) diffReleases(ctx context.Context, rsns []int) error {
	var prev *schema.VersionSnapshot
	for i, rsn := range rsns {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur, err := e.load(rsn)
		if err != nil {
			return err
		}
		if i == 0 {
			diffFirst(cur)
		} else {
			diffPair(prev, cur)
			if err := e.save(prev); err != nil {
				return err
			}
		}
		prev = cur
	}
	return e.save(prev)
}

// indexFirstAppearances scans every release in order and keeps the earliest record
// of each class name.
func (e *Engine) indexFirstAppearances(ctx context.Context, rsns []int) (map[string]*schema.ClassRecord, error) {
	first := make(map[string]*schema.ClassRecord)
	for _, rsn := range rsns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := e.load(rsn)
		if err != nil {
			return nil, err
		}
		for _, name := range snap.ClassNames() {
			if _, seen := first[name]; !seen {
				first[name] = snap.Classes[name].Clone()
			}
		}
	}
	return first, nil
}

// renameAndFinalize matches the deleted classes of every release with the added
// classes of the next one, then marks each release finalized and tallies it.
func (e *Engine) renameAndFinalize(ctx context.Context, rsns []int) ([]Rename, []schema.ReleaseSummary, error) {
	var renames []Rename
	summaries := make([]schema.ReleaseSummary, 0, len(rsns))
	var prev *schema.VersionSnapshot
	for _, rsn := range rsns {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cur, err := e.load(rsn)
		if err != nil {
			return nil, nil, err
		}
		if prev != nil {
			renames = append(renames, detectRenames(prev, cur)...)
		}
		cur.Status = schema.Finalized
		for _, c := range cur.Classes {
			c.Status = schema.Finalized
		}
		if err := e.save(cur); err != nil {
			return nil, nil, err
		}
		summaries = append(summaries, schema.SummarizeSnapshot(cur))
		prev = cur
	}
	return renames, summaries, nil
}

// distanceSinceBirth compares every class of a snapshot with its first appearance.
func (e *Engine) distanceSinceBirth(snap *schema.VersionSnapshot, first map[string]*schema.ClassRecord) []*contract.AncestorLookupError {
	var skipped []*contract.AncestorLookupError
	for _, name := range snap.ClassNames() {
		c := snap.Classes[name]
		born := c.Get(schema.BornRSN)
		switch {
		case born > snap.RSN:
			contract.LogWarn(fmt.Sprintf("%s in %s release %d", name, e.system, snap.RSN),
				fmt.Errorf("born in later release %d", born))
			continue
		case born == snap.RSN:
			markNewBorn(c)
			continue
		}
		ancestor, ok := first[name]
		if !ok {
			lookupErr := &contract.AncestorLookupError{System: e.system, Class: name, RSN: snap.RSN}
			contract.LogWarn("Skipping distance since birth", lookupErr)
			skipped = append(skipped, lookupErr)
			continue
		}
		birthDistance(c, ancestor)
	}
	return skipped
}
