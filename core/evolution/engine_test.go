package evolution

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore copies snapshots on the way in and out so the engine cannot rely on
// shared pointers between passes.
type mapStore struct {
	snaps map[int]*schema.VersionSnapshot
}

var _ contract.VersionStore = &mapStore{} // Compile-time check

func newMapStore(snaps ...*schema.VersionSnapshot) *mapStore {
	s := &mapStore{snaps: map[int]*schema.VersionSnapshot{}}
	for _, v := range snaps {
		s.snaps[v.RSN] = cloneSnapshot(v)
	}
	return s
}

func cloneSnapshot(v *schema.VersionSnapshot) *schema.VersionSnapshot {
	out := *v
	out.Classes = make(map[string]*schema.ClassRecord, len(v.Classes))
	for k, c := range v.Classes {
		out.Classes[k] = c.Clone()
	}
	return &out
}

func (s *mapStore) Get(_ string, rsn int) (*schema.VersionSnapshot, error) {
	v, ok := s.snaps[rsn]
	if !ok {
		return nil, contract.ErrSnapshotNotFound
	}
	return cloneSnapshot(v), nil
}

func (s *mapStore) Exists(_ string, rsn int) (bool, error) {
	_, ok := s.snaps[rsn]
	return ok, nil
}

func (s *mapStore) Put(_ string, v *schema.VersionSnapshot) error {
	s.snaps[v.RSN] = cloneSnapshot(v)
	return nil
}

func (s *mapStore) class(rsn int, name string) *schema.ClassRecord {
	return s.snaps[rsn].Classes[name]
}

type recordOpt func(*schema.ClassRecord)

func withMethods(names ...string) recordOpt {
	return func(c *schema.ClassRecord) {
		for _, n := range names {
			c.Methods.Add(n + "()V")
			c.MethodNames.Add(n)
		}
		c.Set(schema.MethodCount, len(c.Methods))
	}
}

func withFields(names ...string) recordOpt {
	return func(c *schema.ClassRecord) {
		for _, n := range names {
			c.Fields.Add(n + ":I")
		}
		c.Set(schema.FieldCount, len(c.Fields))
	}
}

func withDeps(names ...string) recordOpt {
	return func(c *schema.ClassRecord) {
		for _, n := range names {
			c.Dependencies.Add(n)
		}
		c.Set(schema.OutDegree, len(c.Dependencies))
	}
}

func withMetric(m schema.Metric, v int) recordOpt {
	return func(c *schema.ClassRecord) { c.Set(m, v) }
}

func record(name string, opts ...recordOpt) *schema.ClassRecord {
	c := schema.NewClassRecord(name)
	c.SuperClassName = schema.RootObjectType
	for _, o := range opts {
		o(c)
	}
	return c
}

func release(rsn int, classes ...*schema.ClassRecord) *schema.VersionSnapshot {
	v := schema.NewVersionSnapshot(rsn, fmt.Sprintf("v%d", rsn), time.Date(2020, 1, rsn, 0, 0, 0, 0, time.UTC))
	for _, c := range classes {
		v.Classes[c.Name] = c
	}
	v.Status = schema.PostProcessed
	return v
}

func run(t *testing.T, store *mapStore) *Result {
	t.Helper()
	var rsns []int
	for rsn := 1; rsn <= len(store.snaps); rsn++ {
		rsns = append(rsns, rsn)
	}
	res, err := NewEngine(store, "demo").Run(context.Background(), rsns)
	require.NoError(t, err)
	return res
}

func TestSingleRelease(t *testing.T) {
	store := newMapStore(release(1, record("a.A"), record("a.B")))
	res := run(t, store)

	for _, name := range []string{"a.A", "a.B"} {
		c := store.class(1, name)
		assert.Equal(t, schema.StatusAdded, c.Get(schema.EvolutionStatusMetric))
		assert.Equal(t, 0, c.Get(schema.Age))
		assert.Equal(t, 1, c.Get(schema.BornRSN))
		assert.Equal(t, schema.BirthNewBorn, c.Get(schema.BirthStatusMetric))
	}
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, 2, res.Summaries[0].Added)
	assert.Equal(t, schema.Finalized, store.snaps[1].Status)
}

func TestUnchangedClass(t *testing.T) {
	a := record("a.A", withMethods("run"), withMetric(schema.BranchCount, 3))
	store := newMapStore(release(1, a), release(2, a.Clone()))
	run(t, store)

	c := store.class(2, "a.A")
	assert.Equal(t, schema.StatusUnchanged, c.Get(schema.EvolutionStatusMetric))
	assert.Equal(t, 2, c.Get(schema.Age))
	assert.Equal(t, 0, c.Get(schema.EvolutionDistance))
	assert.Equal(t, 1, c.Get(schema.BornRSN))
	assert.Equal(t, schema.BirthNeverModified, c.Get(schema.BirthStatusMetric))
	assert.Equal(t, schema.StatusUnchanged, store.class(1, "a.A").Get(schema.NextVersionStatusMetric))
}

func TestDeletedClass(t *testing.T) {
	store := newMapStore(
		release(1, record("a.A"), record("a.B", withMethods("gone"))),
		release(2, record("a.A")),
	)
	res := run(t, store)

	assert.Equal(t, schema.StatusDeleted, store.class(1, "a.B").Get(schema.NextVersionStatusMetric))
	assert.True(t, store.snaps[1].HasDeletedClasses)
	assert.False(t, store.snaps[2].HasDeletedClasses)
	assert.Equal(t, 1, res.Summaries[0].Deleted)
	assert.Empty(t, res.Renames)
}

func TestRenameDetected(t *testing.T) {
	methods := withMethods("a", "b", "c", "d", "e")
	foo := record("a.Foo", methods, withFields("x", "y"), withDeps("a.Dep", "a.Other"),
		withMetric(schema.BranchCount, 10))
	foo2 := record("a.Foo2", methods, withFields("x", "y"), withDeps("a.Dep", "a.Other"),
		withMetric(schema.BranchCount, 12))
	store := newMapStore(
		release(1, record("a.Keep"), foo),
		release(2, record("a.Keep"), foo2),
		release(3, record("a.Keep"), foo2.Clone()),
	)
	res := run(t, store)

	require.Equal(t, []Rename{{RSN: 2, From: "a.Foo", To: "a.Foo2"}}, res.Renames)
	c := store.class(2, "a.Foo2")
	assert.Equal(t, schema.StatusModified, c.Get(schema.EvolutionStatusMetric))
	assert.Equal(t, 200, c.Get(schema.EvolutionDistance))
	assert.Equal(t, 1, c.Get(schema.ModifiedMetricCount))
	assert.Equal(t, 1, c.Get(schema.ModificationFrequency))
	assert.Equal(t, "a.Foo", c.RenamedFrom)
	assert.True(t, c.Flag(schema.Renamed))

	// renames run after the birth pass, so birth data stays keyed by name
	assert.Equal(t, 2, c.Get(schema.BornRSN))
	assert.Equal(t, schema.BirthNewBorn, c.Get(schema.BirthStatusMetric))
	assert.Equal(t, 0, c.Get(schema.DistanceMovedSinceBirth))

	// the next release was diffed against the unrenamed class
	next := store.class(3, "a.Foo2")
	assert.Equal(t, schema.StatusUnchanged, next.Get(schema.EvolutionStatusMetric))
	assert.Equal(t, 2, next.Get(schema.Age))
	assert.Equal(t, 2, next.Get(schema.BornRSN))
	assert.Equal(t, 0, next.Get(schema.ModificationFrequency))
	assert.Empty(t, next.RenamedFrom)

	assert.Equal(t, 1, res.Summaries[1].Renamed)
	assert.Equal(t, 0, res.Summaries[1].Added)
	assert.Equal(t, 1, res.Summaries[1].Modified)
}

func TestRenameAmbiguousMatchDiscarded(t *testing.T) {
	methods := withMethods("a", "b", "c", "d", "e")
	store := newMapStore(
		release(1, record("a.Foo", methods)),
		release(2, record("a.Foo2", methods), record("a.Foo3", methods)),
	)
	res := run(t, store)

	assert.Empty(t, res.Renames)
	for _, name := range []string{"a.Foo2", "a.Foo3"} {
		c := store.class(2, name)
		assert.Equal(t, schema.StatusAdded, c.Get(schema.EvolutionStatusMetric))
		assert.Empty(t, c.RenamedFrom)
	}
}

func TestRenameSharedTargetDiscarded(t *testing.T) {
	methods := withMethods("a", "b", "c", "d", "e")
	store := newMapStore(
		release(1, record("a.Foo", methods), record("a.Fooo", methods)),
		release(2, record("a.Foo2", methods)),
	)
	res := run(t, store)

	// both deleted classes match the one added class, so neither claims it
	assert.Empty(t, res.Renames)
	c := store.class(2, "a.Foo2")
	assert.Equal(t, schema.StatusAdded, c.Get(schema.EvolutionStatusMetric))
	assert.Empty(t, c.RenamedFrom)
	assert.False(t, c.Flag(schema.Renamed))
	assert.Equal(t, 0, res.Summaries[1].Renamed)
}

func TestRunFinalizesReleases(t *testing.T) {
	store := newMapStore(
		release(1, record("a.A"), record("a.B")),
		release(2, record("a.A")),
	)
	run(t, store)

	for rsn, snap := range store.snaps {
		assert.Equal(t, schema.Finalized, snap.Status, rsn)
		for name, c := range snap.Classes {
			assert.Equal(t, schema.Finalized, c.Status, name)
		}
	}
}

func TestAgeMonotonicity(t *testing.T) {
	base := record("a.A", withMethods("run"))
	changed := record("a.A", withMethods("run", "stop"), withMetric(schema.BranchCount, 4))
	store := newMapStore(
		release(1, base),
		release(2, base.Clone()),
		release(3, base.Clone()),
		release(4, changed),
		release(5, changed.Clone()),
		release(6, changed.Clone()),
	)
	run(t, store)

	var ages, statuses, freqs []int
	for rsn := 1; rsn <= 6; rsn++ {
		c := store.class(rsn, "a.A")
		ages = append(ages, c.Get(schema.Age))
		statuses = append(statuses, c.Get(schema.EvolutionStatusMetric))
		freqs = append(freqs, c.Get(schema.ModificationFrequency))
	}
	assert.Equal(t, []int{0, 2, 3, 1, 2, 3}, ages)
	assert.Equal(t, []int{
		schema.StatusAdded, schema.StatusUnchanged, schema.StatusUnchanged,
		schema.StatusModified, schema.StatusUnchanged, schema.StatusUnchanged,
	}, statuses)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, freqs)
	assert.Equal(t, schema.BirthModifiedAfterBirth, store.class(6, "a.A").Get(schema.BirthStatusMetric))
	assert.Equal(t, 412, store.class(6, "a.A").Get(schema.DistanceMovedSinceBirth))
}

func TestEvolutionPartition(t *testing.T) {
	store := newMapStore(
		release(1, record("a.Same"), record("a.Changed"), record("a.Dropped", withMethods("x"))),
		release(2, record("a.Same"), record("a.Changed", withMetric(schema.ThrowCount, 1)),
			record("a.Fresh", withFields("f", "g", "h"), withDeps("z.Z"))),
	)
	run(t, store)

	prev, cur := store.snaps[1], store.snaps[2]
	union := map[string]bool{}
	for n := range prev.Classes {
		union[n] = true
	}
	for n := range cur.Classes {
		union[n] = true
	}
	for name := range union {
		categories := 0
		if c, ok := cur.Classes[name]; ok {
			switch c.Get(schema.EvolutionStatusMetric) {
			case schema.StatusAdded, schema.StatusModified, schema.StatusUnchanged:
				categories++
			}
		} else if prev.Classes[name].Get(schema.NextVersionStatusMetric) == schema.StatusDeleted {
			categories++
		}
		assert.Equal(t, 1, categories, name)
	}
	assert.Equal(t, schema.StatusUnchanged, cur.Classes["a.Same"].Get(schema.EvolutionStatusMetric))
	assert.Equal(t, schema.StatusModified, cur.Classes["a.Changed"].Get(schema.EvolutionStatusMetric))
	assert.Equal(t, schema.StatusAdded, cur.Classes["a.Fresh"].Get(schema.EvolutionStatusMetric))
}

func TestReappearingClassUsesFirstAppearance(t *testing.T) {
	original := record("a.Back", withMethods("one"))
	reborn := record("a.Back", withMethods("one"), withMetric(schema.NewCount, 3))
	store := newMapStore(
		release(1, original),
		release(2, record("a.Other")),
		release(3, reborn, record("a.Other")),
		release(4, reborn.Clone(), record("a.Other")),
	)
	run(t, store)

	// born again in release 3, so release 4 compares against release 1
	c := store.class(4, "a.Back")
	assert.Equal(t, 3, c.Get(schema.BornRSN))
	assert.Equal(t, schema.BirthModifiedAfterBirth, c.Get(schema.BirthStatusMetric))
	assert.Equal(t, 300, c.Get(schema.DistanceMovedSinceBirth))
	assert.Equal(t, schema.BirthNewBorn, store.class(3, "a.Back").Get(schema.BirthStatusMetric))
}

func TestRunErrors(t *testing.T) {
	_, err := NewEngine(newMapStore(), "demo").Run(context.Background(), nil)
	require.ErrorIs(t, err, contract.ErrTooFewReleases)

	_, err = NewEngine(newMapStore(release(1)), "demo").Run(context.Background(), []int{1, 2})
	require.ErrorIs(t, err, contract.ErrSnapshotNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewEngine(newMapStore(release(1)), "demo").Run(ctx, []int{1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunIsRepeatable(t *testing.T) {
	methods := withMethods("a", "b", "c", "d", "e")
	store := newMapStore(
		release(1, record("a.Foo", methods), record("a.A")),
		release(2, record("a.Foo2", methods), record("a.A")),
	)
	first := run(t, store)
	second := run(t, store)
	assert.Equal(t, first, second)
}
