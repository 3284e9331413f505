// Package evolution tracks how the classes of a system change across its releases.
package evolution

import (
	"math"

	"github.com/huangsam/classdrift/schema"
)

// Equal reports whether later is a structurally unchanged revision of earlier:
// same name and superclass, identical comparison metrics, and method, field and
// dependency sets that only grew.
func Equal(earlier, later *schema.ClassRecord) bool {
	if earlier.Name != later.Name || earlier.SuperClassName != later.SuperClassName {
		return false
	}
	if MismatchCount(earlier, later) > 0 {
		return false
	}
	return later.Methods.ContainsAll(earlier.Methods) &&
		later.Fields.ContainsAll(earlier.Fields) &&
		later.Dependencies.ContainsAll(earlier.Dependencies)
}

// MismatchCount is the number of comparison metrics that differ between two revisions.
func MismatchCount(a, b *schema.ClassRecord) int {
	n := 0
	for _, m := range schema.ComparisonMetrics {
		if a.Get(m) != b.Get(m) {
			n++
		}
	}
	return n
}

// rawDistance is the Euclidean distance between two revisions over the distance metrics.
func rawDistance(a, b *schema.ClassRecord) float64 {
	var sum float64
	for _, m := range schema.DistanceMetrics {
		d := float64(a.Get(m) - b.Get(m))
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Distance is the scaled distance stored in the evolution metrics.
func Distance(a, b *schema.ClassRecord) int {
	return int(rawDistance(a, b) * schema.DistanceScale)
}

// overlap is |a ∩ b| / max(|a|, |b|) as a percentage. Two empty sets overlap fully.
func overlap(a, b schema.StringSet) float64 {
	larger := max(len(a), len(b))
	if larger == 0 {
		return 100
	}
	return float64(a.IntersectionSize(b)) * 100 / float64(larger)
}

// combinedOverlap treats methods and fields as one member set.
func combinedOverlap(a, b *schema.ClassRecord) float64 {
	return overlap(members(a), members(b))
}

func members(c *schema.ClassRecord) schema.StringSet {
	out := make(schema.StringSet, len(c.Methods)+len(c.Fields))
	for m := range c.Methods {
		out.Add("m:" + m)
	}
	for f := range c.Fields {
		out.Add("f:" + f)
	}
	return out
}
