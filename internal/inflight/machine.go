// Package inflight decides what happens to an observed exception: attributed to the unit
// that raised or propagated it, or discarded because the same unit caught it.
//
// The host runtime reports an exception event followed by either a phantom return at the
// same line (the exception leaves the unit) or a line event further down the same unit (a
// handler caught it). The machine holds the exception until that next event arrives.
package inflight

import (
	"errors"
	"fmt"

	"typin/internal/shape"
	"typin/internal/trace"
)

// ErrProtocolViolation means the event stream broke the exception-in-flight invariants.
var ErrProtocolViolation = errors.New("inflight: protocol violation")

// Exception types used for generator and iterator exhaustion; never attributed.
var flowControl = map[string]bool{
	"<class 'StopIteration'>": true,
	"<class 'GeneratorExit'>": true,
}

// IsFlowControl reports whether ev is a StopIteration or GeneratorExit exception event.
func IsFlowControl(ev trace.Event) bool {
	return ev.Kind == trace.Exception && ev.Exception != nil && flowControl[ev.Exception.Type]
}

// Action tells the caller what to do with the event just stepped.
type Action int

const (
	// Pass: the machine is idle and the event is ordinary.
	Pass Action = iota
	// Hold: the exception event is now pending.
	Hold
	// Attribute: the event is the phantom return of the pending exception. Record the
	// returned Pending's shape on its unit and drop the return.
	Attribute
	// Discard: the pending exception was caught inside its unit. Drop it and keep going
	// with the line event.
	Discard
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Hold:
		return "hold"
	case Attribute:
		return "attribute"
	case Discard:
		return "discard"
	}
	return "unknown"
}

// UnitKey identifies a unit by file and compiled code identity.
type UnitKey struct {
	File   string
	CodeID string
}

func keyOf(loc trace.Location) UnitKey {
	return UnitKey{File: loc.File, CodeID: loc.CodeID}
}

// Pending is an exception that has been raised but not yet resolved.
type Pending struct {
	Unit  UnitKey
	Loc   trace.Location
	Shape shape.Shape
	Seq   uint64
}

func (p *Pending) String() string {
	return fmt.Sprintf("%s at %s (seq %d)", p.Shape, p.Loc, p.Seq)
}

// Machine is the two-state Idle/Pending automaton. The zero value is Idle.
type Machine struct {
	pending *Pending
}

func New() *Machine {
	return &Machine{}
}

// Pending returns the unresolved exception, or nil when idle.
func (m *Machine) Pending() *Pending {
	return m.pending
}

// Reset returns to Idle, handing back any exception that was still pending.
func (m *Machine) Reset() *Pending {
	p := m.pending
	m.pending = nil
	return p
}

// Step advances the machine with ev, which carries sequence number seq. For Attribute and
// Discard the resolved Pending is returned alongside the action.
func (m *Machine) Step(ev trace.Event, seq uint64) (Action, *Pending, error) {
	if m.pending == nil {
		if ev.Kind != trace.Exception {
			return Pass, nil, nil
		}
		if ev.Exception == nil {
			return Pass, nil, fmt.Errorf("%w: exception event without payload at %s", ErrProtocolViolation, ev.Loc)
		}
		s, err := exceptionShape(ev.Exception)
		if err != nil {
			return Pass, nil, fmt.Errorf("exception at %s: %w", ev.Loc, err)
		}
		m.pending = &Pending{Unit: keyOf(ev.Loc), Loc: ev.Loc, Shape: s, Seq: seq}
		return Hold, nil, nil
	}

	p := m.pending
	sameUnit := keyOf(ev.Loc) == p.Unit
	next := seq == p.Seq+1

	switch {
	case ev.Kind == trace.Return && sameUnit && next && ev.Loc.Line == p.Loc.Line:
		m.pending = nil
		return Attribute, p, nil
	case ev.Kind == trace.Line && sameUnit && next && ev.Loc.Line > p.Loc.Line:
		m.pending = nil
		return Discard, p, nil
	}
	return Pass, nil, fmt.Errorf("%w: %s event at %s (seq %d) while exception %s is pending",
		ErrProtocolViolation, ev.Kind, ev.Loc, seq, p)
}

// exceptionShape prefers the raised value and falls back to the type repr when no value
// was reported.
func exceptionShape(info *trace.ExceptionInfo) (shape.Shape, error) {
	if info.Value == nil {
		return shape.OfTypeRepr(info.Type)
	}
	return shape.Of(info.Value)
}
