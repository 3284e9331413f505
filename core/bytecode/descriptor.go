package bytecode

import "strings"

// primitiveDescriptors are the single-letter base types of the type descriptor grammar.
const primitiveDescriptors = "BCDFIJSZV"

// descriptorTypes splits a field or method descriptor into its component raw types,
// e.g. "(I[Ljava/lang/String;)Ljava/util/List;" -> ["I", "[Ljava/lang/String;", "Ljava/util/List;"].
// Malformed input yields the components decoded so far.
func descriptorTypes(desc string) []string {
	var out []string
	i := 0
	for i < len(desc) {
		c := desc[i]
		if c == '(' || c == ')' {
			i++
			continue
		}
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i >= len(desc) {
			break
		}
		if desc[i] == 'L' {
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				break
			}
			i += end + 1
		} else {
			i++
		}
		out = append(out, desc[start:i])
	}
	return out
}

// referenceTypes is descriptorTypes without primitive and primitive array
// components, so a bare single letter left in a dependency set always names a
// class of the default package.
func referenceTypes(desc string) []string {
	var out []string
	for _, t := range descriptorTypes(desc) {
		if isPrimitive(strings.TrimLeft(t, "[")) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isPrimitive(s string) bool {
	return len(s) == 1 && strings.ContainsRune(primitiveDescriptors, rune(s[0]))
}

// resolveTypeName normalizes a raw type reference into a dotted class name.
// It accepts descriptors (Lx/y/Z;), array descriptors ([[Lx/Y; or [I), internal
// names (x/y/Z) and dotted names. Primitive types and primitive arrays report false.
func resolveTypeName(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	isArray := strings.HasPrefix(s, "[")
	s = strings.TrimLeft(s, "[")
	switch {
	case s == "":
		return "", false
	case len(s) > 2 && s[0] == 'L' && s[len(s)-1] == ';':
		s = s[1 : len(s)-1]
	case isPrimitive(s):
		return "", false
	case isArray:
		// an array whose element is neither a primitive nor an object descriptor
		return "", false
	}
	if strings.ContainsAny(s, ";[()") || s == "" || isRawForm(s) {
		return "", false
	}
	return dotted(s), true
}

// isRawForm reports whether a dependency entry is still in descriptor or internal form.
// Bare single letters are default-package class names, not primitives.
func isRawForm(name string) bool {
	return strings.ContainsAny(name, "/;[()")
}
