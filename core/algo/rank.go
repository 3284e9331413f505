// Package algo holds the ordering rules shared by the reports.
package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/classdrift/schema"
)

// RankClasses sorts classes by a metric in descending order and returns the
// top 'limit' classes. Ties keep their incoming order, so callers pass classes
// sorted by name for a stable result. A limit of zero or less keeps every class.
func RankClasses(classes []*schema.ClassRecord, metric schema.Metric, limit int) []*schema.ClassRecord {
	slices.SortStableFunc(classes, func(a, b *schema.ClassRecord) int {
		return cmp.Compare(b.Get(metric), a.Get(metric))
	})
	if limit > 0 && len(classes) > limit {
		return classes[:limit]
	}
	return classes
}

// RankSystems orders system listings by stored release count, largest first,
// then by key.
func RankSystems(systems []schema.SystemInfo) []schema.SystemInfo {
	slices.SortFunc(systems, func(a, b schema.SystemInfo) int {
		return cmp.Or(cmp.Compare(b.Stored, a.Stored), cmp.Compare(a.Key, b.Key))
	})
	return systems
}
