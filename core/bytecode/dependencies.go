package bytecode

import (
	"strings"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// RemoveRedundantDependencies normalizes the dependency set of a class in place.
//
// The promotion pass runs first: every entry that embeds a reference type
// (descriptor, array or internal form, nested name) contributes the dotted name of
// its outermost class. The removal pass then drops raw forms, primitives, nested
// names, the class itself and the ignored set. Running it twice is a no-op.
func RemoveRedundantDependencies(c *schema.ClassRecord, settings contract.AnalysisSettings) {
	var promoted []string
	for dep := range c.Dependencies {
		if name, ok := resolveTypeName(dep); ok {
			promoted = append(promoted, schema.OutermostName(name))
		}
	}
	for _, p := range promoted {
		c.Dependencies.Add(p)
	}

	for dep := range c.Dependencies {
		if isRawForm(dep) ||
			strings.Contains(dep, schema.NestedSeparator) ||
			dep == c.Name ||
			settings.IsIgnored(dep) {
			delete(c.Dependencies, dep)
		}
	}
}

// flagNamespaces marks a class as I/O or GUI adjacent when any of its resolved
// dependencies lives under a configured namespace prefix.
func flagNamespaces(c *schema.ClassRecord, settings contract.AnalysisSettings) {
	for dep := range c.Dependencies {
		name, ok := resolveTypeName(dep)
		if !ok {
			continue
		}
		if contract.HasAnyPrefix(name, settings.IOPrefixes) {
			c.SetFlag(schema.IsIOClass, true)
		}
		if contract.HasAnyPrefix(name, settings.GUIPrefixes) {
			c.SetFlag(schema.IsGUIClass, true)
		}
	}
}
