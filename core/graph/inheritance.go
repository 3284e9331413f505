package graph

import "github.com/huangsam/classdrift/schema"

// inheritanceWalker memoizes depth and descendant counts over one snapshot.
// The visiting sets stop malformed inheritance cycles instead of recursing forever.
type inheritanceWalker struct {
	classes       map[string]*schema.ClassRecord
	classDepth    map[string]int
	ifaceDepth    map[string]int
	descendants   map[string]int
	visitingClass map[string]bool
	visitingIface map[string]bool
	visitingDesc  map[string]bool
}

func inheritanceMetrics(classes map[string]*schema.ClassRecord) {
	w := &inheritanceWalker{
		classes:       classes,
		classDepth:    make(map[string]int, len(classes)),
		ifaceDepth:    make(map[string]int, len(classes)),
		descendants:   make(map[string]int, len(classes)),
		visitingClass: make(map[string]bool),
		visitingIface: make(map[string]bool),
		visitingDesc:  make(map[string]bool),
	}
	for _, name := range sortedNames(classes) {
		c := classes[name]
		c.Set(schema.DepthInInheritance, max(w.depthOfClass(name), w.depthOfInterfaces(name)))
		c.Set(schema.NumberOfChildren, len(c.Children))
		c.Set(schema.NumberOfDescendants, w.countDescendants(name))
	}
}

// depthOfClass walks the superclass chain. A direct descendant of the root object
// type has depth 0 and a superclass outside the snapshot counts as depth 1.
func (w *inheritanceWalker) depthOfClass(name string) int {
	if d, ok := w.classDepth[name]; ok {
		return d
	}
	if w.visitingClass[name] {
		return 0
	}
	w.visitingClass[name] = true
	defer delete(w.visitingClass, name)

	super := w.classes[name].SuperClassName
	_, known := w.classes[super]
	var d int
	switch {
	case super == "" || super == schema.RootObjectType:
		d = 0
	case !known:
		d = 1
	default:
		d = 1 + w.depthOfClass(super)
	}
	w.classDepth[name] = d
	return d
}

// depthOfInterfaces walks implemented interfaces that are part of the snapshot.
func (w *inheritanceWalker) depthOfInterfaces(name string) int {
	if d, ok := w.ifaceDepth[name]; ok {
		return d
	}
	if w.visitingIface[name] {
		return 0
	}
	w.visitingIface[name] = true
	defer delete(w.visitingIface, name)

	d := 0
	for itf := range w.classes[name].Interfaces {
		if _, ok := w.classes[itf]; !ok || itf == name {
			continue
		}
		d = max(d, 1+w.depthOfInterfaces(itf))
	}
	w.ifaceDepth[name] = d
	return d
}

// countDescendants sums children recursively. A class reachable through several
// inheritance paths is counted once per path.
func (w *inheritanceWalker) countDescendants(name string) int {
	if n, ok := w.descendants[name]; ok {
		return n
	}
	if w.visitingDesc[name] {
		return 0
	}
	w.visitingDesc[name] = true
	defer delete(w.visitingDesc, name)

	n := 0
	for child := range w.classes[name].Children {
		if _, ok := w.classes[child]; !ok {
			continue
		}
		n += 1 + w.countDescendants(child)
	}
	w.descendants[name] = n
	return n
}
