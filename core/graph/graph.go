// Package graph turns the class records of one snapshot into a dependency graph
// and derives the structural metrics of every class.
package graph

import (
	"maps"
	"math"
	"slices"

	"github.com/huangsam/classdrift/core/bytecode"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// Stats summarizes one run of the engine over a snapshot.
type Stats struct {
	Classes       int
	NestedMerged  int
	NestedDropped int
	// Missing lists references to classes outside the analyzed set. They are never fatal.
	Missing []*contract.MissingCollaboratorDataError
}

// Engine annotates a snapshot in place. It keeps no state between snapshots.
type Engine struct {
	settings contract.AnalysisSettings
}

// NewEngine returns a graph engine using the given namespace settings.
func NewEngine(settings contract.AnalysisSettings) *Engine {
	return &Engine{settings: settings}
}

// Process runs every pass over the snapshot. The order of the passes matters.
func (e *Engine) Process(snap *schema.VersionSnapshot) Stats {
	classes := snap.Classes
	var stats Stats

	splitCalls(classes)
	stats.NestedMerged, stats.NestedDropped = mergeNested(classes)
	for _, c := range classes {
		bytecode.RemoveRedundantDependencies(c, e.settings)
	}
	stats.Missing = e.resolveDependencies(snap)
	for _, c := range classes {
		assignLayer(c)
	}
	propagateTaint(classes, schema.IsIOClass)
	propagateTaint(classes, schema.IsGUIClass)
	for _, c := range classes {
		c.Set(schema.ClusteringCoefficient, clustering(classes, c))
	}
	inheritanceMetrics(classes)

	for _, c := range classes {
		c.Status = schema.PostProcessed
	}
	snap.Status = schema.PostProcessed
	stats.Classes = len(classes)
	return stats
}

// sortedNames gives every pass a deterministic visiting order.
func sortedNames(classes map[string]*schema.ClassRecord) []string {
	return slices.Sorted(maps.Keys(classes))
}

// splitCalls sorts the external calls of every class into calls on classes of this
// snapshot (internal library) and calls on anything else (external library).
func splitCalls(classes map[string]*schema.ClassRecord) {
	for _, c := range classes {
		clear(c.InternalLibCalls)
		clear(c.ExternalLibCalls)
		c.Set(schema.InternalLibCallCount, 0)
		c.Set(schema.ExternalLibCallCount, 0)
		for target, n := range c.ExternalCalls {
			if _, ok := classes[target]; ok {
				c.InternalLibCalls[target] += n
				c.Inc(schema.InternalLibCallCount, n)
			} else {
				c.ExternalLibCalls[target] += n
				c.Inc(schema.ExternalLibCallCount, n)
			}
		}
	}
}

// mergeNested folds every nested class into its outermost enclosing class and
// removes it from the snapshot. Nested classes without an enclosing class are dropped.
func mergeNested(classes map[string]*schema.ClassRecord) (merged, dropped int) {
	for _, name := range sortedNames(classes) {
		nested := classes[name]
		if !nested.IsNested() {
			continue
		}
		delete(classes, name)
		outer, ok := classes[schema.OutermostName(name)]
		if !ok {
			dropped++
			continue
		}
		mergeInto(outer, nested)
		merged++
	}
	return merged, dropped
}

func mergeInto(outer, nested *schema.ClassRecord) {
	for m, v := range nested.Metrics {
		switch schema.KindOf(m) {
		case schema.Additive:
			outer.Inc(m, v)
		case schema.Taint:
			if v != 0 {
				outer.SetFlag(m, true)
			}
		}
	}
	outer.Inc(schema.InnerClassCnt, 1)

	outer.Methods.AddAll(nested.Methods)
	outer.MethodNames.AddAll(nested.MethodNames)
	outer.Fields.AddAll(nested.Fields)
	outer.Dependencies.AddAll(nested.Dependencies)
	outer.Interfaces.AddAll(nested.Interfaces)
	for _, pair := range []struct{ dst, src map[string]int }{
		{outer.ExternalCalls, nested.ExternalCalls},
		{outer.InternalLibCalls, nested.InternalLibCalls},
		{outer.ExternalLibCalls, nested.ExternalLibCalls},
	} {
		for k, v := range pair.src {
			pair.dst[k] += v
		}
	}
	recomputeDerived(outer)
}

// recomputeDerived refreshes the parser-derived metrics of a class whose
// additive metrics and interface set have grown.
func recomputeDerived(c *schema.ClassRecord) {
	if size := c.Get(schema.RawSize); size > 0 {
		c.Set(schema.NormalizedBranchCount, c.Get(schema.BranchCount)*100/size)
	} else {
		c.Set(schema.NormalizedBranchCount, 0)
	}
	c.Set(schema.InterfaceCnt, len(c.Interfaces))
}

// resolveDependencies builds the user, child and internal dependency edges, then
// derives degree, usage and distance metrics once every edge is known.
func (e *Engine) resolveDependencies(snap *schema.VersionSnapshot) []*contract.MissingCollaboratorDataError {
	classes := snap.Classes
	names := sortedNames(classes)
	var missing []*contract.MissingCollaboratorDataError

	for _, c := range classes {
		clear(c.Users)
		clear(c.Children)
		clear(c.InternalDependencies)
		c.Set(schema.InternalLibUsageCount, 0)
	}

	for _, name := range names {
		c := classes[name]
		load := c.Get(schema.ILoadCount) + c.Get(schema.LoadFieldCount) +
			c.Get(schema.RLoadCount) + c.Get(schema.ConstantLoadCount)
		store := c.Get(schema.IStoreCount) + c.Get(schema.StoreFieldCount) +
			c.Get(schema.RStoreCount) + c.Get(schema.InitializedFieldCount)
		c.Set(schema.LoadCount, load)
		c.Set(schema.StoreCount, store)
		if load+store > 0 {
			c.Set(schema.LoadRatio, load*10/(load+store))
		} else {
			c.Set(schema.LoadRatio, 0)
		}

		if super, ok := classes[c.SuperClassName]; ok {
			if c.SuperClassName != name {
				super.Users.Add(name)
				super.Children.Add(name)
			}
		} else if c.SuperClassName != "" && c.SuperClassName != schema.RootObjectType {
			missing = append(missing, &contract.MissingCollaboratorDataError{
				Class: name, Ref: c.SuperClassName, Kind: "superclass",
			})
		}
		for _, itf := range c.Interfaces.Sorted() {
			if parent, ok := classes[itf]; ok {
				if itf != name {
					parent.Users.Add(name)
					parent.Children.Add(name)
				}
			} else {
				missing = append(missing, &contract.MissingCollaboratorDataError{
					Class: name, Ref: itf, Kind: "interface",
				})
			}
		}
		for dep := range c.Dependencies {
			if used, ok := classes[dep]; ok && dep != name {
				c.InternalDependencies.Add(dep)
				used.Users.Add(name)
			}
		}
	}

	for _, name := range names {
		c := classes[name]
		c.Set(schema.InDegree, len(c.Users))
		c.Set(schema.OutDegree, len(c.Dependencies))
		c.Set(schema.InternalOutDegree, len(c.InternalDependencies))
		c.Set(schema.ExternalOutDegree, len(c.ExternalCalls))

		for dep := range c.Dependencies {
			if _, ok := classes[dep]; ok {
				continue
			}
			snap.ExternalUsage[dep]++
			if contract.HasAnyPrefix(dep, e.settings.UtilityPrefixes) {
				snap.UtilityUsage[dep]++
			}
		}
		c.Set(schema.DistanceMoved, Magnitude(c))
		for target, n := range c.InternalLibCalls {
			if used, ok := classes[target]; ok {
				used.Inc(schema.InternalLibUsageCount, n)
			}
		}
	}
	return missing
}

// Magnitude is the scaled distance of a class from the origin of the distance metric space.
func Magnitude(c *schema.ClassRecord) int {
	var sum float64
	for _, m := range schema.DistanceMetrics {
		v := float64(c.Get(m))
		sum += v * v
	}
	return int(math.Sqrt(sum) * schema.DistanceScale)
}

// assignLayer sets instability and the structural layer from the degree metrics.
func assignLayer(c *schema.ClassRecord) {
	in, out := c.Get(schema.InDegree), c.Get(schema.OutDegree)
	if in+out > 0 {
		c.Set(schema.Instability, out*1000/(in+out))
	} else {
		c.Set(schema.Instability, 0)
	}
	c.Set(schema.Layer, LayerOf(in, c.Get(schema.InternalOutDegree)))
}

// LayerOf maps an in-degree and internal out-degree pair to its layer.
func LayerOf(in, internalOut int) int {
	switch {
	case in > 0 && internalOut == 0:
		return schema.LayerFoundation
	case in > 0 && internalOut > 0:
		return schema.LayerMid
	case in == 0 && internalOut > 0:
		return schema.LayerTop
	default:
		return schema.LayerFree
	}
}

// propagateTaint flags every transitive user of a flagged class, breadth first.
func propagateTaint(classes map[string]*schema.ClassRecord, flag schema.Metric) {
	var queue []string
	for _, name := range sortedNames(classes) {
		if classes[name].Flag(flag) {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, user := range classes[name].Users.Sorted() {
			u, ok := classes[user]
			if !ok || u.Flag(flag) {
				continue
			}
			u.SetFlag(flag, true)
			queue = append(queue, user)
		}
	}
}

// clustering returns round(coefficient × 10) over the internal dependency neighborhood.
func clustering(classes map[string]*schema.ClassRecord, c *schema.ClassRecord) int {
	hood := c.InternalDependencies.Clone()
	delete(hood, c.Name)
	k := len(hood)
	if k < 2 {
		return 0
	}
	links := 0
	for member := range hood {
		for dep := range classes[member].InternalDependencies {
			if dep != member && hood.Has(dep) {
				links++
			}
		}
	}
	coefficient := float64(links) / float64(k*(k-1))
	return int(math.Round(coefficient * 10))
}
