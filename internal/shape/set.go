package shape

import "sort"

// ShapeSet is a set of shapes that remembers insertion order.
type ShapeSet struct {
	order []string
	byKey map[string]Shape
}

// NewShapeSet returns a set holding shapes.
func NewShapeSet(shapes ...Shape) *ShapeSet {
	s := &ShapeSet{byKey: make(map[string]Shape)}
	for _, sh := range shapes {
		s.Add(sh)
	}
	return s
}

// Add inserts sh and reports whether it was new.
func (s *ShapeSet) Add(sh Shape) bool {
	if s.byKey == nil {
		s.byKey = make(map[string]Shape)
	}
	if _, ok := s.byKey[sh.Key()]; ok {
		return false
	}
	s.byKey[sh.Key()] = sh
	s.order = append(s.order, sh.Key())
	return true
}

// Union adds every member of other.
func (s *ShapeSet) Union(other *ShapeSet) {
	if other == nil {
		return
	}
	for _, sh := range other.Shapes() {
		s.Add(sh)
	}
}

func (s *ShapeSet) Contains(sh Shape) bool {
	if s == nil {
		return false
	}
	_, ok := s.byKey[sh.Key()]
	return ok
}

func (s *ShapeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Shapes returns the members in insertion order.
func (s *ShapeSet) Shapes() []Shape {
	if s == nil {
		return nil
	}
	out := make([]Shape, len(s.order))
	for i, k := range s.order {
		out[i] = s.byKey[k]
	}
	return out
}

// Sorted returns the members ordered by canonical text.
func (s *ShapeSet) Sorted() []Shape {
	out := s.Shapes()
	Sort(out)
	return out
}

// Strings returns the sorted canonical texts of the members.
func (s *ShapeSet) Strings() []string {
	if s == nil {
		return nil
	}
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}
