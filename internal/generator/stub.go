package generator

import (
	"sort"
	"strings"

	"typin/internal/resolver"
	"typin/internal/scope"
)

// Indent is the indentation of one namespace level in rendered stubs.
const Indent = "    "

// universalBase is elided from rendered base lists.
const universalBase = "object"

// FormatFile renders a file's table as stub declarations, one line per class heading or
// function. Namespaces come out sorted; enclosing classes with no observed members of their
// own still get a heading.
func FormatFile(t *scope.Table) []string {
	var out []string
	written := make(map[string]bool)

	for _, ns := range t.Namespaces() {
		prefix := ""
		if ns != "" {
			stack := strings.Split(ns, ".")
			// 1. Headings of enclosing classes not written yet.
			for i := 1; i < len(stack); i++ {
				enclosing := strings.Join(stack[:i], ".")
				if written[enclosing] {
					continue
				}
				out = append(out, classLine(t, strings.Repeat(Indent, i-1), stack[:i]))
				written[enclosing] = true
			}
			// 2. This class.
			prefix = strings.Repeat(Indent, len(stack)-1)
			out = append(out, classLine(t, prefix, stack))
			written[ns] = true
			prefix += Indent
		}
		// 3. Its functions.
		for _, name := range t.UnitNames(ns) {
			u, _ := t.Lookup(ns, name)
			out = append(out, prefix+"def "+name+u.StubFileStr())
		}
	}
	return out
}

// classLine renders "class Leaf(Base, ...):" using the declared bases of the namespace, in
// declaration order. A class whose bases were never seen renders without a base clause.
func classLine(t *scope.Table, prefix string, stack []string) string {
	bases, _ := t.Bases(strings.Join(stack, "."))
	var names []string
	for _, b := range bases {
		name := resolver.StripLocals(b.String())
		if name == universalBase {
			continue
		}
		names = append(names, name)
	}
	clause := ""
	if len(names) > 0 {
		clause = "(" + strings.Join(names, ", ") + ")"
	}
	return prefix + "class " + stack[len(stack)-1] + clause + ":"
}

// Format renders every table, sorted by file, each preceded by a "File: path" line.
func Format(tables []*scope.Table) string {
	sorted := append([]*scope.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	var out []string
	for _, t := range sorted {
		out = append(out, "File: "+t.File)
		out = append(out, FormatFile(t)...)
	}
	return strings.Join(out, "\n")
}
