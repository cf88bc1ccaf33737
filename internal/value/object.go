// Package value describes runtime values of the observed program in a host-neutral form.
//
// An Object carries the runtime's own type repr (e.g. "<class 'int'>") and, for containers,
// its children. Identity is pointer identity: a self-referential container is an Object graph
// with a cycle.
package value

import "fmt"

// Kind is the container category of an Object.
type Kind string

const (
	KindScalar     Kind = "scalar"
	KindList       Kind = "list"
	KindTuple      Kind = "tuple"
	KindNamedTuple Kind = "namedtuple"
	KindSet        Kind = "set"
	KindDict       Kind = "dict"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindScalar, KindList, KindTuple, KindNamedTuple, KindSet, KindDict:
		return true
	}
	return false
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   *Object
	Value *Object
}

// Object is a single observed runtime value.
type Object struct {
	Type    string // runtime type repr, "<class 'list'>"
	Kind    Kind
	Items   []*Object // list, tuple, namedtuple, set
	Entries []Entry   // dict
}

// ClassRepr returns the runtime repr of a class named name.
func ClassRepr(name string) string {
	return fmt.Sprintf("<class '%s'>", name)
}

// NewScalar returns a non-container value of the given class name.
func NewScalar(class string) *Object {
	return &Object{Type: ClassRepr(class), Kind: KindScalar}
}

// None is the null value of the observed runtime.
func None() *Object {
	return NewScalar("NoneType")
}

func NewList(items ...*Object) *Object {
	return &Object{Type: ClassRepr("list"), Kind: KindList, Items: items}
}

func NewTuple(items ...*Object) *Object {
	return &Object{Type: ClassRepr("tuple"), Kind: KindTuple, Items: items}
}

// NewNamedTuple returns a fixed-arity record whose type is the given class.
func NewNamedTuple(class string, items ...*Object) *Object {
	return &Object{Type: ClassRepr(class), Kind: KindNamedTuple, Items: items}
}

func NewSet(items ...*Object) *Object {
	return &Object{Type: ClassRepr("set"), Kind: KindSet, Items: items}
}

func NewDict(entries ...Entry) *Object {
	return &Object{Type: ClassRepr("dict"), Kind: KindDict, Entries: entries}
}

// Append adds items to a sequence-like value and returns it, so cycles can be built in place.
func (o *Object) Append(items ...*Object) *Object {
	o.Items = append(o.Items, items...)
	return o
}

// IsContainer reports whether o has children.
func (o *Object) IsContainer() bool {
	return o != nil && o.Kind != KindScalar && o.Kind != ""
}
