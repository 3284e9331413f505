package contract

import (
	"strings"
	"testing"
)

// FuzzPackageFilterKeep fuzzes the package filter with random packages and patterns.
func FuzzPackageFilterKeep(f *testing.F) {
	seeds := []struct {
		pkg      string
		includes string // comma-separated
		excludes string // comma-separated
	}{
		{"org.apache.tools.ant", "org.apache", ""},
		{"org.apache.tools.ant.test", "", "**.test"},
		{"junit.framework", "org", "junit"},
		{"", "", ""},
		{"a.b.c", "a.*.c", "[b"},
	}
	for _, seed := range seeds {
		f.Add(seed.pkg, seed.includes, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, pkg, includes, excludes string) {
		filter := PackageFilter{
			Includes: SplitList(includes),
			Excludes: SplitList(excludes),
		}
		_ = filter.ValidatePatterns()
		_ = filter.Keep(pkg)
		_ = HasAnyPrefix(pkg, strings.Split(includes, ","))
	})
}
