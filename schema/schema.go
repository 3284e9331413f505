// Package schema has models, metric names and constants for all parts of classdrift.
package schema

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"
)

// StringSet is an unordered set of names that serializes as a sorted JSON array.
type StringSet map[string]struct{}

// NewStringSet returns a set holding the given items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts an item into the set.
func (s StringSet) Add(item string) { s[item] = struct{}{} }

// Has reports whether the item is in the set.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// AddAll inserts every item of other into s.
func (s StringSet) AddAll(other StringSet) {
	for it := range other {
		s[it] = struct{}{}
	}
}

// Sorted returns the items in lexical order.
func (s StringSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// ContainsAll reports whether every item of other is also in s.
func (s StringSet) ContainsAll(other StringSet) bool {
	for it := range other {
		if _, ok := s[it]; !ok {
			return false
		}
	}
	return true
}

// IntersectionSize counts the items present in both sets.
func (s StringSet) IntersectionSize(other StringSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for it := range small {
		if _, ok := large[it]; ok {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	maps.Copy(out, s)
	return out
}

// MarshalJSON writes the set as a sorted array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON reads the set from an array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// ClassRecord is one class in one snapshot.
type ClassRecord struct {
	Name           string         `json:"name"`
	ShortName      string         `json:"short_name"`
	PackageName    string         `json:"package_name"`
	SuperClassName string         `json:"super_class_name"`
	OuterClassName string         `json:"outer_class_name,omitempty"`
	Metrics        map[Metric]int `json:"metrics"`

	Methods              StringSet `json:"methods"`      // name + descriptor
	MethodNames          StringSet `json:"method_names"` // name only
	Fields               StringSet `json:"fields"`       // name:descriptor
	Dependencies         StringSet `json:"dependencies"`
	InternalDependencies StringSet `json:"internal_dependencies"`
	Interfaces           StringSet `json:"interfaces"`
	Users                StringSet `json:"users"`
	Children             StringSet `json:"children"`

	ExternalCalls    map[string]int `json:"external_calls"`
	InternalLibCalls map[string]int `json:"internal_lib_calls"`
	ExternalLibCalls map[string]int `json:"external_lib_calls"`

	Status      ProcessingStatus `json:"status"`
	Fingerprint uint64           `json:"fingerprint"`
	RenamedFrom string           `json:"renamed_from,omitempty"`
}

// NewClassRecord returns a record with every metric key present and empty collections.
func NewClassRecord(name string) *ClassRecord {
	c := &ClassRecord{Name: name}
	c.ShortName, c.PackageName = SplitQualifiedName(name)
	c.EnsureDefaults()
	return c
}

// EnsureDefaults fills any missing metric key with zero and allocates nil collections.
// Records read back from storage go through here so missing keys never leak out.
func (c *ClassRecord) EnsureDefaults() {
	if c.Metrics == nil {
		c.Metrics = make(map[Metric]int, len(MetricCatalog))
	}
	for _, info := range MetricCatalog {
		if _, ok := c.Metrics[info.Name]; !ok {
			c.Metrics[info.Name] = 0
		}
	}
	for _, set := range []*StringSet{
		&c.Methods, &c.MethodNames, &c.Fields, &c.Dependencies,
		&c.InternalDependencies, &c.Interfaces, &c.Users, &c.Children,
	} {
		if *set == nil {
			*set = make(StringSet)
		}
	}
	for _, m := range []*map[string]int{&c.ExternalCalls, &c.InternalLibCalls, &c.ExternalLibCalls} {
		if *m == nil {
			*m = make(map[string]int)
		}
	}
}

// Get returns the value of a metric.
func (c *ClassRecord) Get(m Metric) int { return c.Metrics[m] }

// Set assigns the value of a metric.
func (c *ClassRecord) Set(m Metric, v int) { c.Metrics[m] = v }

// Inc adds delta to a metric.
func (c *ClassRecord) Inc(m Metric, delta int) { c.Metrics[m] += delta }

// Flag reports whether a 0/1 metric is set.
func (c *ClassRecord) Flag(m Metric) bool { return c.Metrics[m] != 0 }

// SetFlag stores a boolean as 0/1.
func (c *ClassRecord) SetFlag(m Metric, v bool) {
	if v {
		c.Metrics[m] = 1
	} else {
		c.Metrics[m] = 0
	}
}

// IsNested reports whether the record names a nested class.
func (c *ClassRecord) IsNested() bool { return strings.Contains(c.Name, NestedSeparator) }

// Clone returns a deep copy of the record.
func (c *ClassRecord) Clone() *ClassRecord {
	out := *c
	out.Metrics = maps.Clone(c.Metrics)
	out.Methods = c.Methods.Clone()
	out.MethodNames = c.MethodNames.Clone()
	out.Fields = c.Fields.Clone()
	out.Dependencies = c.Dependencies.Clone()
	out.InternalDependencies = c.InternalDependencies.Clone()
	out.Interfaces = c.Interfaces.Clone()
	out.Users = c.Users.Clone()
	out.Children = c.Children.Clone()
	out.ExternalCalls = maps.Clone(c.ExternalCalls)
	out.InternalLibCalls = maps.Clone(c.InternalLibCalls)
	out.ExternalLibCalls = maps.Clone(c.ExternalLibCalls)
	out.EnsureDefaults()
	return &out
}

// MethodRecord is the transient per-method accumulator produced by the parser.
type MethodRecord struct {
	Name          string // name + descriptor, e.g. run(I)V
	ShortName     string
	Metrics       map[Metric]int
	ExternalCalls map[string]int
	Dependencies  StringSet
}

// NewMethodRecord returns an empty accumulator.
func NewMethodRecord(name, descriptor string) *MethodRecord {
	return &MethodRecord{
		Name:          name + descriptor,
		ShortName:     name,
		Metrics:       make(map[Metric]int),
		ExternalCalls: make(map[string]int),
		Dependencies:  make(StringSet),
	}
}

// VersionSnapshot is the full set of class records extracted from one release.
type VersionSnapshot struct {
	RSN               int                     `json:"rsn"`
	ReleaseID         string                  `json:"release_id"`
	LastModified      time.Time               `json:"last_modified"`
	LastModifiedDays  int                     `json:"last_modified_days"`
	HasDeletedClasses bool                    `json:"has_deleted_classes"`
	Classes           map[string]*ClassRecord `json:"classes"`
	Status            ProcessingStatus        `json:"status"`

	// ExternalUsage counts how many classes of this release use each external class.
	ExternalUsage map[string]int `json:"external_usage"`
	// UtilityUsage is the subset of ExternalUsage under the common utility namespaces.
	UtilityUsage map[string]int `json:"utility_usage"`
}

// NewVersionSnapshot returns an empty snapshot for a release.
func NewVersionSnapshot(rsn int, releaseID string, lastModified time.Time) *VersionSnapshot {
	return &VersionSnapshot{
		RSN:              rsn,
		ReleaseID:        releaseID,
		LastModified:     lastModified,
		LastModifiedDays: DaysSinceEpoch(lastModified),
		Classes:          make(map[string]*ClassRecord),
		ExternalUsage:    make(map[string]int),
		UtilityUsage:     make(map[string]int),
	}
}

// EnsureDefaults repairs a snapshot read back from storage.
func (v *VersionSnapshot) EnsureDefaults() {
	if v.Classes == nil {
		v.Classes = make(map[string]*ClassRecord)
	}
	if v.ExternalUsage == nil {
		v.ExternalUsage = make(map[string]int)
	}
	if v.UtilityUsage == nil {
		v.UtilityUsage = make(map[string]int)
	}
	for _, c := range v.Classes {
		c.EnsureDefaults()
	}
}

// ClassNames returns the class names in lexical order.
func (v *VersionSnapshot) ClassNames() []string {
	return slices.Sorted(maps.Keys(v.Classes))
}

// EvolutionHistory is the table of contents of one software system.
type EvolutionHistory struct {
	Key      string            `json:"key"`
	Releases map[int]string    `json:"releases"` // RSN -> release id
	Metadata map[string]string `json:"metadata"`
	Includes []string          `json:"includes"`
	Excludes []string          `json:"excludes"`
}

// Metadata keys of an EvolutionHistory.
const (
	MetaName        = "name"
	MetaShortName   = "short-name"
	MetaType        = "type"
	MetaDescription = "description"
	MetaCommercial  = "commercial"
)

// RSNs returns the release sequence numbers in ascending order.
func (h *EvolutionHistory) RSNs() []int {
	return slices.Sorted(maps.Keys(h.Releases))
}

// ShortNameOf returns the first whitespace-delimited token of a system name.
func ShortNameOf(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SplitQualifiedName returns the short name and the package name of a dotted class name.
func SplitQualifiedName(name string) (short, pkg string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[idx+1:], name[:idx]
}

// OutermostName returns the part of a class name before the first nesting separator.
func OutermostName(name string) string {
	if idx := strings.Index(name, NestedSeparator); idx >= 0 {
		return name[:idx]
	}
	return name
}

// TextualParent returns the part of a class name before the last nesting separator,
// or "" for a top-level class.
func TextualParent(name string) string {
	if idx := strings.LastIndex(name, NestedSeparator); idx >= 0 {
		return name[:idx]
	}
	return ""
}

// DaysSinceEpoch normalizes a timestamp to whole days since the Unix epoch.
func DaysSinceEpoch(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return int(t.Unix() / 86400)
}
