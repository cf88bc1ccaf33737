// Package shape turns observed runtime values into structural type descriptors.
//
// A Shape is immutable and compares by its canonical text, so shapes can be deduplicated,
// used as map keys (via Key) and sorted deterministically.
package shape

import (
	"sort"
	"strings"

	"typin/internal/value"
)

// Kind is the variant tag of a Shape.
type Kind int

const (
	Scalar   Kind = iota // a bare runtime type
	Sequence             // ordered container, duplicates removed, rendered sorted
	Set                  // unordered container, rendered sorted
	Record               // fixed-arity container, rendered in element order
	Mapping              // key shape -> set of value shapes
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Set:
		return "set"
	case Record:
		return "record"
	case Mapping:
		return "mapping"
	}
	return "unknown"
}

// MapEntry is one key shape of a Mapping with every value shape seen under it.
type MapEntry struct {
	Key    Shape
	Values *ShapeSet
}

// Shape is the structural type of one observed value.
type Shape struct {
	kind    Kind
	name    string
	elems   []Shape
	entries []MapEntry
	text    string
}

// OfType returns the scalar shape of a named type.
func OfType(name string) Shape {
	return Shape{kind: Scalar, name: name, text: name}
}

// OfTypeRepr returns the scalar shape for a runtime type repr such as "<class 'ValueError'>".
func OfTypeRepr(repr string) (Shape, error) {
	name, err := StrOfType(repr)
	if err != nil {
		return Shape{}, err
	}
	return OfType(name), nil
}

func (s Shape) Kind() Kind { return s.kind }
func (s Shape) Name() string { return s.name }
func (s Shape) String() string { return s.text }

// Key is the identity of the shape for maps and sets.
func (s Shape) Key() string { return s.text }

// Elems returns the element shapes of a Sequence, Set or Record.
func (s Shape) Elems() []Shape {
	return append([]Shape(nil), s.elems...)
}

// Entries returns the entries of a Mapping in encounter order.
func (s Shape) Entries() []MapEntry {
	return append([]MapEntry(nil), s.entries...)
}

func (s Shape) Equal(o Shape) bool { return s.text == o.text }
func (s Shape) Less(o Shape) bool { return s.text < o.text }

// Of decomposes o into its shape. Containers already being decomposed further up the
// current path degrade to their bare type, so self-referential values terminate.
func Of(o *value.Object) (Shape, error) {
	b := builder{active: make(map[*value.Object]bool)}
	return b.of(o)
}

// MustOf is Of for values known to carry well-formed type reprs.
func MustOf(o *value.Object) Shape {
	s, err := Of(o)
	if err != nil {
		panic(err)
	}
	return s
}

type builder struct {
	active map[*value.Object]bool
}

func (b *builder) of(o *value.Object) (Shape, error) {
	if o == nil {
		o = value.None()
	}
	if !o.IsContainer() || b.active[o] {
		return OfTypeRepr(o.Type)
	}
	b.active[o] = true
	defer delete(b.active, o)

	switch o.Kind {
	case value.KindList:
		elems, err := b.unique(o.Items)
		if err != nil {
			return Shape{}, err
		}
		return newContainer(Sequence, "list", elems), nil
	case value.KindTuple:
		elems, err := b.all(o.Items)
		if err != nil {
			return Shape{}, err
		}
		return newContainer(Record, "tuple", elems), nil
	case value.KindNamedTuple:
		name, err := StrOfType(o.Type)
		if err != nil {
			return Shape{}, err
		}
		elems, err := b.all(o.Items)
		if err != nil {
			return Shape{}, err
		}
		return newContainer(Record, name, elems), nil
	case value.KindSet:
		name, err := StrOfType(o.Type)
		if err != nil {
			return Shape{}, err
		}
		elems, err := b.unique(o.Items)
		if err != nil {
			return Shape{}, err
		}
		return newContainer(Set, name, elems), nil
	case value.KindDict:
		return b.mapping(o)
	}
	return OfTypeRepr(o.Type)
}

func (b *builder) all(items []*value.Object) ([]Shape, error) {
	out := make([]Shape, 0, len(items))
	for _, item := range items {
		s, err := b.of(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *builder) unique(items []*value.Object) ([]Shape, error) {
	set := NewShapeSet()
	for _, item := range items {
		s, err := b.of(item)
		if err != nil {
			return nil, err
		}
		set.Add(s)
	}
	return set.Shapes(), nil
}

func (b *builder) mapping(o *value.Object) (Shape, error) {
	var entries []MapEntry
	index := make(map[string]int)
	for _, e := range o.Entries {
		k, err := b.of(e.Key)
		if err != nil {
			return Shape{}, err
		}
		v, err := b.of(e.Value)
		if err != nil {
			return Shape{}, err
		}
		i, ok := index[k.Key()]
		if !ok {
			i = len(entries)
			index[k.Key()] = i
			entries = append(entries, MapEntry{Key: k, Values: NewShapeSet()})
		}
		entries[i].Values.Add(v)
	}

	var sb strings.Builder
	sb.WriteString("dict({")
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Key.String())
		sb.WriteString(" : [")
		sb.WriteString(strings.Join(e.Values.Strings(), ", "))
		sb.WriteString("]")
	}
	sb.WriteString("})")
	return Shape{kind: Mapping, name: "dict", entries: entries, text: sb.String()}, nil
}

func newContainer(kind Kind, name string, elems []Shape) Shape {
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = e.String()
	}
	if kind != Record {
		sort.Strings(strs)
	}
	return Shape{
		kind:  kind,
		name:  name,
		elems: elems,
		text:  name + "([" + strings.Join(strs, ", ") + "])",
	}
}

// Sort orders shapes by their canonical text.
func Sort(shapes []Shape) {
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].Less(shapes[j]) })
}
