package evolution

import (
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/huangsam/classdrift/schema"
)

// shortNameSimilarity is the Jaro-Winkler score above which two short names count as the same.
const shortNameSimilarity = 0.9

// Rename records a deleted class recognized under a new name in the next release.
type Rename struct {
	RSN  int    `json:"rsn"`
	From string `json:"from"`
	To   string `json:"to"`
}

// candidate holds the measurements shared by every clone predicate for one
// (deleted, added) pair.
type candidate struct {
	deleted, added *schema.ClassRecord

	sameShortName bool
	distance      float64 // unscaled
	methods       float64
	fields        float64
	deps          float64
	users         float64
	combined      float64
}

func newCandidate(deleted, added *schema.ClassRecord) candidate {
	return candidate{
		deleted:       deleted,
		added:         added,
		sameShortName: sameShortName(deleted.ShortName, added.ShortName),
		distance:      rawDistance(deleted, added),
		methods:       overlap(deleted.Methods, added.Methods),
		fields:        overlap(deleted.Fields, added.Fields),
		deps:          overlap(deleted.Dependencies, added.Dependencies),
		users:         overlap(deleted.Users, added.Users),
		combined:      combinedOverlap(deleted, added),
	}
}

func sameShortName(a, b string) bool {
	if a == b {
		return true
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	return err == nil && score >= shortNameSimilarity
}

func (c candidate) sameFlag(m schema.Metric) bool {
	return c.deleted.Get(m) == c.added.Get(m)
}

// clonePredicates is evaluated in order and short-circuits on the first match.
// Each rule was tuned on its own; keep them separate.
var clonePredicates = []func(c candidate) bool{
	func(c candidate) bool {
		return strings.EqualFold(c.deleted.Name, c.added.Name)
	},
	func(c candidate) bool {
		return c.sameFlag(schema.IsInterface) && c.sameShortName &&
			c.sameFlag(schema.IsAbstract) && c.users >= 80
	},
	func(c candidate) bool {
		return c.sameShortName && c.sameFlag(schema.IsAbstract) &&
			c.deps > 70 && c.fields > 70 && c.methods > 70
	},
	func(c candidate) bool {
		return c.sameShortName && c.distance < 15
	},
	func(c candidate) bool {
		return c.sameShortName && c.distance < 30 &&
			c.methods > 50 && c.fields > 50 && c.deps > 50
	},
	func(c candidate) bool {
		return c.sameShortName && c.combined > 49.9 && c.distance < 100
	},
	func(c candidate) bool {
		return c.sameShortName && c.methods > 70
	},
	func(c candidate) bool {
		return c.deleted.Flag(schema.IsException) && c.added.Flag(schema.IsException) &&
			c.distance < 1 && c.users >= 90
	},
	func(c candidate) bool {
		return c.combined >= 95 && (c.distance == 0 || c.sameFlag(schema.IsAbstract))
	},
	func(c candidate) bool {
		return c.sameFlag(schema.IsAbstract) && c.methods == 100 &&
			len(c.deleted.Methods) == len(c.added.Methods) && c.distance < 1
	},
}

// IsClone reports whether added looks like deleted under another name.
func IsClone(deleted, added *schema.ClassRecord) bool {
	c := newCandidate(deleted, added)
	for _, p := range clonePredicates {
		if p(c) {
			return true
		}
	}
	return false
}

// detectRenames matches the classes deleted from prev with the classes added in cur.
// Only one-to-one matches are applied; a deleted class matching several added
// classes, or an added class claimed by several deleted classes, is left alone.
func detectRenames(prev, cur *schema.VersionSnapshot) []Rename {
	if !prev.HasDeletedClasses {
		return nil
	}
	var deleted, added []string
	for _, name := range prev.ClassNames() {
		if prev.Classes[name].Get(schema.NextVersionStatusMetric) == schema.StatusDeleted {
			deleted = append(deleted, name)
		}
	}
	for _, name := range cur.ClassNames() {
		c := cur.Classes[name]
		if c.Get(schema.EvolutionStatusMetric) == schema.StatusAdded && c.RenamedFrom == "" {
			added = append(added, name)
		}
	}
	if len(deleted) == 0 || len(added) == 0 {
		return nil
	}

	matches := make(map[string][]string, len(deleted))
	claims := make(map[string]int, len(added))
	for _, d := range deleted {
		for _, a := range added {
			if IsClone(prev.Classes[d], cur.Classes[a]) {
				matches[d] = append(matches[d], a)
			}
		}
		if len(matches[d]) == 1 {
			claims[matches[d][0]]++
		}
	}

	var renames []Rename
	for _, d := range deleted {
		if len(matches[d]) != 1 {
			continue
		}
		a := matches[d][0]
		if claims[a] != 1 {
			continue
		}
		applyRename(prev.Classes[d], cur.Classes[a])
		renames = append(renames, Rename{RSN: cur.RSN, From: d, To: a})
	}
	slices.SortFunc(renames, func(x, y Rename) int { return strings.Compare(x.To, y.To) })
	return renames
}

// applyRename turns an added class into a modified revision of the deleted one.
// Birth metrics stay keyed by name, so the added class keeps its own born RSN.
func applyRename(deleted, added *schema.ClassRecord) {
	markModified(deleted, added)
	added.RenamedFrom = deleted.Name
	added.SetFlag(schema.Renamed, true)
}
