// Package scope holds the per-file tables of unit records keyed by namespace.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"typin/internal/record"
	"typin/internal/shape"
)

// ErrBasesConflict means a namespace was seen with two different sets of declared bases.
var ErrBasesConflict = errors.New("scope: declared bases changed")

// Table is the record of one source file: namespace ("" for top level) -> unit name -> record,
// plus the declared bases of each class namespace.
type Table struct {
	File      string
	units     map[string]map[string]*record.Unit
	bases     map[string][]shape.Shape
	functions map[string]bool
}

func NewTable(file string) *Table {
	return &Table{
		File:      file,
		units:     make(map[string]map[string]*record.Unit),
		bases:     make(map[string][]shape.Shape),
		functions: make(map[string]bool),
	}
}

// Unit returns the record for namespace.name, creating it with signature if needed.
func (t *Table) Unit(namespace, name, signature string) *record.Unit {
	ns, ok := t.units[namespace]
	if !ok {
		ns = make(map[string]*record.Unit)
		t.units[namespace] = ns
	}
	u, ok := ns[name]
	if !ok {
		u = record.NewUnit(signature)
		ns[name] = u
	} else if u.Signature == "" {
		u.Signature = signature
	}
	return u
}

// Lookup returns an existing record.
func (t *Table) Lookup(namespace, name string) (*record.Unit, bool) {
	u, ok := t.units[namespace][name]
	return u, ok
}

// SetBases records the declared bases of the class owning namespace. The first bases seen
// are kept; different bases later on are an ErrBasesConflict.
func (t *Table) SetBases(namespace string, bases []shape.Shape) error {
	prev, ok := t.bases[namespace]
	if !ok {
		t.bases[namespace] = append([]shape.Shape(nil), bases...)
		return nil
	}
	if !sameShapes(prev, bases) {
		return fmt.Errorf("%w: %s in %s from %s to %s",
			ErrBasesConflict, namespace, t.File, FormatShapes(prev), FormatShapes(bases))
	}
	return nil
}

// Bases returns the declared bases of namespace, if they were ever seen.
func (t *Table) Bases(namespace string) ([]shape.Shape, bool) {
	b, ok := t.bases[namespace]
	return b, ok
}

func sameShapes(a, b []shape.Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// FormatShapes renders shapes as a tuple, "(object, mod.Z)".
func FormatShapes(shapes []shape.Shape) string {
	strs := make([]string, len(shapes))
	for i, s := range shapes {
		strs[i] = s.String()
	}
	return "(" + strings.Join(strs, ", ") + ")"
}

// MarkFunctions records namespaces that are the local scopes of functions. They are never
// treated as classes by Cleanup.
func (t *Table) MarkFunctions(namespaces ...string) {
	for _, ns := range namespaces {
		t.functions[ns] = true
	}
}

// Namespaces returns every namespace holding units, sorted.
func (t *Table) Namespaces() []string {
	out := make([]string, 0, len(t.units))
	for ns := range t.units {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// HasNamespace reports whether namespace holds any units.
func (t *Table) HasNamespace(namespace string) bool {
	_, ok := t.units[namespace]
	return ok
}

// UnitNames returns the unit names of namespace, sorted.
func (t *Table) UnitNames(namespace string) []string {
	ns := t.units[namespace]
	out := make([]string, 0, len(ns))
	for name := range ns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len is the number of unit records.
func (t *Table) Len() int {
	n := 0
	for _, ns := range t.units {
		n += len(ns)
	}
	return n
}

// Cleanup removes the records left by executing class bodies: for a class namespace "A.B"
// the body shows up as a unit "B" in namespace "A" (or at top level for a top-level class).
// A namespace is a class when its bases were recorded or when it encloses such a class,
// unless it is a function scope. Namespaces left empty are dropped. It returns the removed
// qualified names, sorted.
func (t *Table) Cleanup() []string {
	classes := make(map[string]bool)
	for ns := range t.bases {
		for p := ns; p != ""; p, _ = splitLast(p) {
			if !t.functions[p] {
				classes[p] = true
			}
		}
	}

	var removed []string
	for class := range classes {
		parent, leaf := splitLast(class)
		ns, ok := t.units[parent]
		if !ok {
			continue
		}
		if _, ok := ns[leaf]; !ok {
			continue
		}
		delete(ns, leaf)
		removed = append(removed, class)
		if len(ns) == 0 {
			delete(t.units, parent)
		}
	}
	sort.Strings(removed)
	return removed
}

func splitLast(qualName string) (parent, leaf string) {
	if i := strings.LastIndex(qualName, "."); i >= 0 {
		return qualName[:i], qualName[i+1:]
	}
	return "", qualName
}
