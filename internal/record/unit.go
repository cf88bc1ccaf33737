// Package record accumulates the types observed for a single function or method.
package record

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"typin/internal/shape"
	"typin/internal/trace"
	"typin/internal/value"
)

// ErrNoData is returned by queries on a unit that was never entered.
var ErrNoData = errors.New("record: unit has no call data")

// SelfArg is the conventional name of the receiver parameter.
const SelfArg = "self"

// Type names rewritten into typing parlance when rendering stubs.
var typeNameTranslation = map[string]string{
	"_io.StringIO": "IO[bytes]",
	"NoneType":     "None",
}

// TranslateTypeName maps a runtime type name to its stub spelling.
func TranslateTypeName(name string) string {
	if t, ok := typeNameTranslation[name]; ok {
		return t
	}
	return name
}

// NamedTypes is one parameter with the type strings seen for it, sorted.
type NamedTypes struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// Unit is the accumulated record of one function, keyed by file and qualified name.
type Unit struct {
	// Signature is the parameter signature text reported by the registry, if any.
	Signature string

	params     []string
	arguments  map[string]*shape.ShapeSet
	returns    map[int]*shape.ShapeSet
	exceptions map[int]*shape.ShapeSet
	entryLines []int

	minLine int
	maxLine int
	touched bool
}

func NewUnit(signature string) *Unit {
	return &Unit{
		Signature:  signature,
		arguments:  make(map[string]*shape.ShapeSet),
		returns:    make(map[int]*shape.ShapeSet),
		exceptions: make(map[int]*shape.ShapeSet),
	}
}

func (u *Unit) touch(line int) {
	if !u.touched {
		u.minLine, u.maxLine, u.touched = line, line, true
		return
	}
	u.minLine = min(u.minLine, line)
	u.maxLine = max(u.maxLine, line)
}

// RecordEntry adds the shape of every bound argument and notes line as an entry point.
// Generators re-enter at each suspension point, so a unit may have several entry lines.
func (u *Unit) RecordEntry(args []trace.Binding, line int) error {
	for _, b := range args {
		s, err := shape.Of(b.Value)
		if err != nil {
			return fmt.Errorf("argument %s: %w", b.Name, err)
		}
		set, ok := u.arguments[b.Name]
		if !ok {
			set = shape.NewShapeSet()
			u.arguments[b.Name] = set
			u.params = append(u.params, b.Name)
		}
		set.Add(s)
	}
	if !containsInt(u.entryLines, line) {
		u.entryLines = append(u.entryLines, line)
	}
	u.touch(line)
	return nil
}

// RecordReturn adds the shape of a value returned at line. A return at a line that already
// raised is the phantom return of a propagating exception and is dropped.
func (u *Unit) RecordReturn(v *value.Object, line int) error {
	if _, ok := u.exceptions[line]; ok {
		return nil
	}
	s, err := shape.Of(v)
	if err != nil {
		return fmt.Errorf("return value: %w", err)
	}
	addAt(u.returns, line, s)
	u.touch(line)
	return nil
}

// RecordException adds the shape of an exception raised at line.
func (u *Unit) RecordException(v *value.Object, line int) error {
	s, err := shape.Of(v)
	if err != nil {
		return fmt.Errorf("exception value: %w", err)
	}
	u.AddException(s, line)
	return nil
}

// AddException is RecordException for an already decomposed shape.
func (u *Unit) AddException(s shape.Shape, line int) {
	addAt(u.exceptions, line, s)
	u.touch(line)
}

func addAt(m map[int]*shape.ShapeSet, line int, s shape.Shape) {
	set, ok := m[line]
	if !ok {
		set = shape.NewShapeSet()
		m[line] = set
	}
	set.Add(s)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// EntryLines returns the distinct entry lines in first-seen order.
func (u *Unit) EntryLines() []int {
	return append([]int(nil), u.entryLines...)
}

// NumEntryPoints is 1 for plain functions and more for generators. 0 means never entered.
func (u *Unit) NumEntryPoints() int {
	return len(u.entryLines)
}

// LineDecl is the line of the declaration, the first entry point.
func (u *Unit) LineDecl() (int, error) {
	if len(u.entryLines) == 0 {
		return 0, ErrNoData
	}
	return u.entryLines[0], nil
}

// LineRange is the span from the lowest to the highest line touched.
func (u *Unit) LineRange() (int, int, error) {
	if len(u.entryLines) == 0 {
		return 0, 0, ErrNoData
	}
	return u.minLine, u.maxLine, nil
}

// Params returns the parameter names in first-seen order.
func (u *Unit) Params() []string {
	return append([]string(nil), u.params...)
}

// ArgumentTypeStrings returns every parameter with its sorted type strings.
func (u *Unit) ArgumentTypeStrings() []NamedTypes {
	out := make([]NamedTypes, 0, len(u.params))
	for _, p := range u.params {
		out = append(out, NamedTypes{Name: p, Types: u.arguments[p].Strings()})
	}
	return out
}

// ReturnTypeStrings maps each returning line to the sorted type strings returned there.
func (u *Unit) ReturnTypeStrings() map[int][]string {
	return stringify(u.returns)
}

// ExceptionTypeStrings maps each raising line to the sorted type strings raised there.
func (u *Unit) ExceptionTypeStrings() map[int][]string {
	return stringify(u.exceptions)
}

func stringify(m map[int]*shape.ShapeSet) map[int][]string {
	out := make(map[int][]string, len(m))
	for line, set := range m {
		out[line] = set.Strings()
	}
	return out
}

// HasSelfFirstArg reports whether the unit looks like a method.
func (u *Unit) HasSelfFirstArg() bool {
	return len(u.params) > 0 && u.params[0] == SelfArg
}

// TypesOfSelf returns the types seen for the receiver, or false if the unit is not a method.
func (u *Unit) TypesOfSelf() ([]string, bool) {
	if !u.HasSelfFirstArg() {
		return nil, false
	}
	return u.arguments[SelfArg].Strings(), true
}

// FilteredArguments is ArgumentTypeStrings without a leading self.
func (u *Unit) FilteredArguments() []NamedTypes {
	args := u.ArgumentTypeStrings()
	if u.HasSelfFirstArg() {
		args = args[1:]
	}
	return args
}

func (u *Unit) allReturns() *shape.ShapeSet {
	all := shape.NewShapeSet()
	for _, line := range sortedLines(u.returns) {
		all.Union(u.returns[line])
	}
	return all
}

func (u *Unit) allExceptions() *shape.ShapeSet {
	all := shape.NewShapeSet()
	for _, line := range sortedLines(u.exceptions) {
		all.Union(u.exceptions[line])
	}
	return all
}

func sortedLines(m map[int]*shape.ShapeSet) []int {
	lines := make([]int, 0, len(m))
	for line := range m {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

func translated(set *shape.ShapeSet) []string {
	out := make([]string, 0, set.Len())
	for _, s := range set.Shapes() {
		out = append(out, TranslateTypeName(s.String()))
	}
	sort.Strings(out)
	return out
}

func (u *Unit) returnClause() string {
	rets := translated(u.allReturns())
	switch len(rets) {
	case 0:
		return "None"
	case 1:
		return rets[0]
	}
	return "Union[" + strings.Join(rets, ", ") + "]"
}

// StubFileStr renders the signature part of a stub declaration, e.g.
//
//	(s: bytes) -> bytes: ...
func (u *Unit) StubFileStr() string {
	parts := make([]string, 0, len(u.params))
	for i, p := range u.params {
		if i == 0 && p == SelfArg {
			parts = append(parts, SelfArg)
			continue
		}
		parts = append(parts, p+": "+strings.Join(translated(u.arguments[p]), ", "))
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + u.returnClause() + ": ..."
}

// String returns the annotation form, "type: (i int) -> str".
func (u *Unit) String() string {
	parts := []string{"type:"}
	for _, p := range u.params {
		types := translated(u.arguments[p])
		if len(types) == 1 {
			parts = append(parts, fmt.Sprintf("(%s %s)", p, types[0]))
		} else {
			parts = append(parts, fmt.Sprintf("(%s '%s')", p, strings.Join(types, ", ")))
		}
	}
	parts = append(parts, "-> "+u.returnClause())
	return strings.Join(parts, " ")
}

// Repr is a dump of the accumulated state for diagnostics.
func (u *Unit) Repr() string {
	var sections []string

	args := []string{"Argument types:"}
	for _, a := range u.ArgumentTypeStrings() {
		args = append(args, fmt.Sprintf("%s -> [%s]", a.Name, strings.Join(a.Types, ", ")))
	}
	sections = append(sections, joinOrNA(args))
	sections = append(sections, joinOrNA(lineSection("Return types:", u.returns)))
	sections = append(sections, joinOrNA(lineSection("Exceptions:", u.exceptions)))
	sections = append(sections, fmt.Sprintf("Entry points: %v", u.entryLines))
	sections = append(sections, "Signature: "+u.Signature)
	return strings.Join(sections, ", ")
}

func lineSection(title string, m map[int]*shape.ShapeSet) []string {
	out := []string{title}
	for _, line := range sortedLines(m) {
		out = append(out, fmt.Sprintf("%d -> [%s]", line, strings.Join(m[line].Strings(), ", ")))
	}
	return out
}

func joinOrNA(parts []string) string {
	if len(parts) == 1 {
		parts = append(parts, "N/A")
	}
	return strings.Join(parts, " ")
}
