// Package trace models the event source of the observed program: the events it reports, the
// process-wide sink slot they are delivered to, and a JSON Lines replayer for recorded traces.
package trace

import (
	"fmt"

	"typin/internal/value"
)

// Kind is the kind of an observed event.
type Kind string

const (
	Call      Kind = "call"
	Line      Kind = "line"
	Return    Kind = "return"
	Exception Kind = "exception"
)

// Kinds lists every event kind in reporting order.
var Kinds = []Kind{Call, Line, Return, Exception}

// Binding is one bound argument of a frame.
type Binding struct {
	Name  string
	Value *value.Object
}

// Location is the snapshot of the executing frame at the time of an event.
type Location struct {
	File     string
	Line     int
	Function string    // code object name, not qualified
	CodeID   string    // identity of the compiled code object
	Args     []Binding // argument bindings in declaration order
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d %s [%s]", l.File, l.Line, l.Function, l.CodeID)
}

// ExceptionInfo is the payload of an exception event.
type ExceptionInfo struct {
	Type  string // type repr, "<class 'ValueError'>"
	Value *value.Object
}

// Event is a single notification from the tracer.
type Event struct {
	Kind      Kind
	Loc       Location
	Return    *value.Object  // Return only
	Exception *ExceptionInfo // Exception only
}

// Sink receives events. A non-nil error stops the tracer.
type Sink interface {
	Event(ev Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ev Event) error

func (f SinkFunc) Event(ev Event) error { return f(ev) }

// Tracer is the slot holding the active sink, the equivalent of a process-wide trace hook.
type Tracer interface {
	Sink() Sink
	SetSink(s Sink)
}
