package schema

import (
	"strings"
	"unicode/utf8"
)

// packageInitial returns the first rune of a package segment, using the rune for Unicode safety.
func packageInitial(part string) string {
	r, size := utf8.DecodeRuneInString(part)
	if size == 0 || r == utf8.RuneError {
		return part
	}
	return string(r)
}

// AbbreviateName formats "org.apache.tools.ant.Main" to "o.a.t.a.Main".
// The short name is kept whole, nested class suffixes included. Names
// without a package are returned unchanged.
func AbbreviateName(name string) string {
	short, pkg := SplitQualifiedName(strings.TrimSpace(name))
	if pkg == "" {
		return short
	}
	parts := strings.Split(pkg, ".")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(packageInitial(p))
		b.WriteByte('.')
	}
	b.WriteString(short)
	return b.String()
}

// AbbreviateNames applies AbbreviateName to every name in the slice.
func AbbreviateNames(names []string) []string {
	abbreviated := make([]string, len(names))
	for i, name := range names {
		abbreviated[i] = AbbreviateName(name)
	}
	return abbreviated
}
