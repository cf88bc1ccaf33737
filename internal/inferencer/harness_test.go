package inferencer

import (
	"strings"
	"testing"

	"typin/internal/registry"
	"typin/internal/trace"
	"typin/internal/value"

	"github.com/stretchr/testify/require"
)

const testFile = "test.py"

// harness plays the part of the observed program: it registers callables and classes and
// emits their events through a dispatcher.
type harness struct {
	t    *testing.T
	reg  *registry.Memory
	d    *trace.Dispatcher
	file string
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, reg: registry.NewMemory(), d: trace.NewDispatcher(), file: testFile}
}

func (h *harness) engine(opts Options) *Engine {
	return New(h.d, h.reg, opts)
}

// fn registers a callable whose code id is its qualified name.
func (h *harness) fn(qualName string) {
	name := qualName[strings.LastIndex(qualName, ".")+1:]
	h.reg.AddCallable(&registry.Callable{CodeID: qualName, Name: name, QualName: qualName})
}

// class registers a class declaring the given methods, which must be registered with fn.
func (h *harness) class(qualName string, bases []string, methods ...string) {
	members := make(map[string]string)
	for _, m := range methods {
		members[m] = qualName + "." + m
	}
	reprs := make([]string, len(bases))
	for i, b := range bases {
		reprs[i] = value.ClassRepr(b)
	}
	h.reg.AddClass(&registry.Class{QualName: qualName, Bases: reprs, Members: members})
}

func (h *harness) at(kind trace.Kind, codeID string, line int) trace.Event {
	name := codeID[strings.LastIndex(codeID, ".")+1:]
	return trace.Event{Kind: kind, Loc: trace.Location{File: h.file, Line: line, Function: name, CodeID: codeID}}
}

func (h *harness) emit(ev trace.Event) {
	h.t.Helper()
	require.NoError(h.t, h.d.Emit(ev))
}

func (h *harness) call(codeID string, line int, args ...trace.Binding) {
	h.t.Helper()
	ev := h.at(trace.Call, codeID, line)
	ev.Loc.Args = args
	h.emit(ev)
}

func (h *harness) line(codeID string, line int) {
	h.t.Helper()
	h.emit(h.at(trace.Line, codeID, line))
}

func (h *harness) ret(codeID string, line int, v *value.Object) {
	h.t.Helper()
	ev := h.at(trace.Return, codeID, line)
	ev.Return = v
	h.emit(ev)
}

func (h *harness) raiseEvent(codeID string, line int, class string) trace.Event {
	ev := h.at(trace.Exception, codeID, line)
	ev.Exception = &trace.ExceptionInfo{Type: value.ClassRepr(class), Value: value.NewScalar(class)}
	return ev
}

func (h *harness) raise(codeID string, line int, class string) {
	h.t.Helper()
	h.emit(h.raiseEvent(codeID, line, class))
}

func arg(name, class string) trace.Binding {
	return trace.Binding{Name: name, Value: value.NewScalar(class)}
}

func self(class string) trace.Binding {
	return trace.Binding{Name: "self", Value: value.NewScalar(class)}
}

func scalar(class string) *value.Object {
	return value.NewScalar(class)
}
