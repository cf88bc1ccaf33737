package inflight

import (
	"testing"

	"typin/internal/shape"
	"typin/internal/trace"
	"typin/internal/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(kind trace.Kind, codeID string, line int) trace.Event {
	return trace.Event{Kind: kind, Loc: trace.Location{File: "a.py", Line: line, Function: codeID, CodeID: codeID}}
}

func raise(codeID string, line int, class string) trace.Event {
	ev := at(trace.Exception, codeID, line)
	ev.Exception = &trace.ExceptionInfo{Type: value.ClassRepr(class), Value: value.NewScalar(class)}
	return ev
}

func TestMachine_PhantomReturnAttributes(t *testing.T) {
	m := New()

	act, _, err := m.Step(at(trace.Call, "g", 1), 1)
	require.NoError(t, err)
	assert.Equal(t, Pass, act)

	act, _, err = m.Step(raise("g", 2, "ValueError"), 2)
	require.NoError(t, err)
	assert.Equal(t, Hold, act)
	require.NotNil(t, m.Pending())

	act, p, err := m.Step(at(trace.Return, "g", 2), 3)
	require.NoError(t, err)
	assert.Equal(t, Attribute, act)
	require.NotNil(t, p)
	assert.Equal(t, "ValueError", p.Shape.String())
	assert.Equal(t, 2, p.Loc.Line)
	assert.Nil(t, m.Pending())
}

func TestMachine_CaughtInUnitDiscards(t *testing.T) {
	m := New()
	_, _, err := m.Step(raise("f", 4, "KeyError"), 10)
	require.NoError(t, err)

	act, p, err := m.Step(at(trace.Line, "f", 6), 11)
	require.NoError(t, err)
	assert.Equal(t, Discard, act)
	assert.Equal(t, shape.OfType("KeyError"), p.Shape)
	assert.Nil(t, m.Pending())
}

func TestMachine_Violations(t *testing.T) {
	cases := map[string]struct {
		ev  trace.Event
		seq uint64
	}{
		"second exception":     {raise("f", 5, "TypeError"), 2},
		"sequence gap":         {at(trace.Return, "f", 4), 3},
		"other unit returns":   {at(trace.Return, "g", 4), 2},
		"return at other line": {at(trace.Return, "f", 5), 2},
		"line not after raise": {at(trace.Line, "f", 4), 2},
		"line before raise":    {at(trace.Line, "f", 3), 2},
		"call while pending":   {at(trace.Call, "h", 1), 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := New()
			_, _, err := m.Step(raise("f", 4, "ValueError"), 1)
			require.NoError(t, err)

			_, _, err = m.Step(tc.ev, tc.seq)
			require.ErrorIs(t, err, ErrProtocolViolation)
			assert.Contains(t, err.Error(), "a.py:4")
		})
	}
}

func TestMachine_OtherFileIsOtherUnit(t *testing.T) {
	m := New()
	_, _, err := m.Step(raise("f", 4, "ValueError"), 1)
	require.NoError(t, err)

	ev := at(trace.Return, "f", 4)
	ev.Loc.File = "b.py"
	_, _, err = m.Step(ev, 2)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestMachine_Reset(t *testing.T) {
	m := New()
	assert.Nil(t, m.Reset())

	_, _, err := m.Step(raise("f", 4, "ValueError"), 1)
	require.NoError(t, err)
	p := m.Reset()
	require.NotNil(t, p)
	assert.Equal(t, uint64(1), p.Seq)
	assert.Nil(t, m.Pending())
}

func TestMachine_BadExceptionRepr(t *testing.T) {
	ev := at(trace.Exception, "f", 1)
	ev.Exception = &trace.ExceptionInfo{Type: "?", Value: &value.Object{Type: "ValueError"}}
	_, _, err := New().Step(ev, 1)
	assert.ErrorIs(t, err, shape.ErrTypeRepr)
}

func TestMachine_ExceptionWithoutValue(t *testing.T) {
	m := New()
	ev := at(trace.Exception, "f", 2)
	ev.Exception = &trace.ExceptionInfo{Type: "<class 'ValueError'>"}

	act, _, err := m.Step(ev, 1)
	require.NoError(t, err)
	assert.Equal(t, Hold, act)
	assert.Equal(t, "ValueError", m.Pending().Shape.String(), "shape comes from the type repr")

	ev.Exception = &trace.ExceptionInfo{Type: "?"}
	_, _, err = New().Step(ev, 1)
	assert.ErrorIs(t, err, shape.ErrTypeRepr)
}

func TestIsFlowControl(t *testing.T) {
	assert.True(t, IsFlowControl(raise("g", 1, "StopIteration")))
	assert.True(t, IsFlowControl(raise("g", 1, "GeneratorExit")))
	assert.False(t, IsFlowControl(raise("g", 1, "ValueError")))
	assert.False(t, IsFlowControl(at(trace.Return, "g", 1)))
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "attribute", Attribute.String())
	assert.Equal(t, "unknown", Action(42).String())
}
