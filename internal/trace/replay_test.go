package trace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"typin/internal/registry"
	"typin/internal/value"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(d *Dispatcher) *[]Event {
	var got []Event
	d.SetSink(SinkFunc(func(ev Event) error {
		got = append(got, ev)
		return nil
	}))
	return &got
}

func TestReplayer_Replay(t *testing.T) {
	input := `
# comment lines and blanks are skipped
{"type": "callable", "callable": {"code_id": "c1", "name": "f", "qualname": "f", "signature": "(i)"}}
{"type": "class", "class": {"qualname": "A", "bases": ["<class 'object'>"], "members": {"m": "c2"}}}
{"type": "event", "event": {"kind": "call", "file": "a.py", "line": 1, "function": "f", "code_id": "c1", "args": [{"name": "i", "value": {"type": "<class 'int'>"}}]}}
{"type": "event", "event": {"kind": "line", "file": "a.py", "line": 2, "function": "f", "code_id": "c1"}}
{"type": "event", "event": {"kind": "return", "file": "a.py", "line": 2, "function": "f", "code_id": "c1", "return": {"type": "<class 'str'>"}}}
{"type": "event", "event": {"kind": "exception", "file": "a.py", "line": 3, "function": "f", "code_id": "c1", "exception": {"type": "<class 'ValueError'>"}}}
`
	reg := registry.NewMemory()
	d := NewDispatcher()
	got := collect(d)

	stats, err := NewReplayer(reg, d).Replay(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Records: 6, Callables: 1, Classes: 1, Events: 4}, stats)
	assert.Equal(t, 2, reg.Len())

	events := *got
	require.Len(t, events, 4)
	assert.Equal(t, Call, events[0].Kind)
	require.Len(t, events[0].Loc.Args, 1)
	assert.Equal(t, "i", events[0].Loc.Args[0].Name)
	assert.Equal(t, "<class 'int'>", events[0].Loc.Args[0].Value.Type)
	assert.Equal(t, Line, events[1].Kind)
	assert.Equal(t, "<class 'str'>", events[2].Return.Type)
	require.NotNil(t, events[3].Exception)
	assert.Equal(t, "<class 'ValueError'>", events[3].Exception.Value.Type, "missing value falls back to the type")
	assert.Equal(t, 4, d.Emitted())
}

func TestReplayer_Errors(t *testing.T) {
	cases := map[string]string{
		"bad json":        `{"type": `,
		"unknown record":  `{"type": "frame"}`,
		"unknown kind":    `{"type": "event", "event": {"kind": "jump"}}`,
		"empty callable":  `{"type": "callable"}`,
		"empty class":     `{"type": "class"}`,
		"missing payload": `{"type": "event"}`,
		"exception info":  `{"type": "event", "event": {"kind": "exception", "file": "a.py", "line": 1}}`,
		"dangling ref":    `{"type": "event", "event": {"kind": "return", "file": "a.py", "line": 1, "return": {"ref": 9}}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewReplayer(registry.NewMemory(), NewDispatcher()).Replay(context.Background(), strings.NewReader(input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "trace line 1")
		})
	}
}

func TestReplayer_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing line":        `{"type": "event", "event": {"kind": "call", "file": "a.py"}}`,
		"line not integer":    `{"type": "event", "event": {"kind": "call", "file": "a.py", "line": 1.5}}`,
		"exception no type":   `{"type": "event", "event": {"kind": "exception", "file": "a.py", "line": 1, "exception": {}}}`,
		"callable no code id": `{"type": "callable", "callable": {"name": "f", "qualname": "f"}}`,
		"value bad kind":      `{"type": "event", "event": {"kind": "return", "file": "a.py", "line": 1, "return": {"kind": "frozen"}}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			stats, err := NewReplayer(registry.NewMemory(), NewDispatcher()).Replay(context.Background(), strings.NewReader(input))
			var verr *jsonschema.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), "trace line 1")
			assert.Equal(t, 0, stats.Records)
		})
	}
}

func TestRecordSchema_Compiles(t *testing.T) {
	a, err := RecordSchema()
	require.NoError(t, err)
	b, err := RecordSchema()
	require.NoError(t, err)
	assert.Same(t, a, b, "schema is compiled once")
}

func TestReplayer_SinkErrorStops(t *testing.T) {
	input := strings.Repeat(`{"type": "event", "event": {"kind": "line", "file": "a.py", "line": 1}}`+"\n", 3)
	boom := errors.New("boom")
	d := NewDispatcher()
	calls := 0
	d.SetSink(SinkFunc(func(ev Event) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}))

	stats, err := NewReplayer(registry.NewMemory(), d).Replay(context.Background(), strings.NewReader(input))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "trace line 2")
	assert.Equal(t, 2, stats.Events)
}

func TestReplayer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReplayer(registry.NewMemory(), NewDispatcher()).Replay(ctx, strings.NewReader(`{"type": "callable"}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_NoSinkDrops(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Emit(Event{Kind: Call}))
	assert.Equal(t, 0, d.Emitted())
	assert.Nil(t, d.Sink())
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	self := value.NewList()
	self.Append(self)
	require.NoError(t, w.Callable(&registry.Callable{CodeID: "c1", Name: "g", QualName: "g"}))
	require.NoError(t, w.Class(&registry.Class{QualName: "K", Members: map[string]string{}}))
	require.NoError(t, w.Event(Event{
		Kind: Call,
		Loc: Location{File: "b.py", Line: 4, Function: "g", CodeID: "c1",
			Args: []Binding{{Name: "xs", Value: self}}},
	}))
	require.NoError(t, w.Event(Event{Kind: Return, Loc: Location{File: "b.py", Line: 5, CodeID: "c1"}}))
	require.NoError(t, w.Event(Event{
		Kind:      Exception,
		Loc:       Location{File: "b.py", Line: 5, CodeID: "c1"},
		Exception: &ExceptionInfo{Type: "<class 'KeyError'>", Value: value.NewScalar("KeyError")},
	}))

	reg := registry.NewMemory()
	d := NewDispatcher()
	got := collect(d)
	stats, err := NewReplayer(reg, d).Replay(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Events)

	events := *got
	xs := events[0].Loc.Args[0].Value
	require.Len(t, xs.Items, 1)
	assert.Same(t, xs, xs.Items[0])
	assert.Equal(t, value.None().Type, events[1].Return.Type)
	assert.Equal(t, "<class 'KeyError'>", events[2].Exception.Value.Type)

	fn, ok := reg.FindCallableByCodeID("c1")
	require.True(t, ok)
	assert.Equal(t, "g", fn.Name)
}

func TestLocation_String(t *testing.T) {
	loc := Location{File: "a.py", Line: 3, Function: "f", CodeID: "c1"}
	assert.Equal(t, "a.py:3 f [c1]", loc.String())
}
