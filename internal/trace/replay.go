package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"typin/internal/registry"
	"typin/internal/value"
)

const maxRecordSize = 16 * 1024 * 1024

// Record types of the JSON Lines trace format.
const (
	RecordCallable = "callable"
	RecordClass    = "class"
	RecordEvent    = "event"
)

type argRecord struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type exceptionRecord struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type eventRecord struct {
	Kind      Kind             `json:"kind"`
	File      string           `json:"file"`
	Line      int              `json:"line"`
	Function  string           `json:"function"`
	CodeID    string           `json:"code_id"`
	Args      []argRecord      `json:"args,omitempty"`
	Return    json.RawMessage  `json:"return,omitempty"`
	Exception *exceptionRecord `json:"exception,omitempty"`
}

type record struct {
	Type     string             `json:"type"`
	Callable *registry.Callable `json:"callable,omitempty"`
	Class    *registry.Class    `json:"class,omitempty"`
	Event    *eventRecord       `json:"event,omitempty"`
}

// ReplayStats summarises a replayed trace.
type ReplayStats struct {
	Records   int
	Callables int
	Classes   int
	Events    int
}

// Replayer feeds a recorded trace into a registry and a dispatcher, in file order.
type Replayer struct {
	registry   *registry.Memory
	dispatcher *Dispatcher
}

// NewReplayer creates a replayer that registers objects in reg and emits events through d.
func NewReplayer(reg *registry.Memory, d *Dispatcher) *Replayer {
	return &Replayer{registry: reg, dispatcher: d}
}

// Replay reads r to the end. The first sink error aborts the replay and is returned wrapped
// with the trace line it came from.
func (p *Replayer) Replay(ctx context.Context, r io.Reader) (ReplayStats, error) {
	var stats ReplayStats
	schema, err := RecordSchema()
	if err != nil {
		return stats, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		// 1. Shape of the record
		var doc any
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return stats, fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		if err := schema.Validate(doc); err != nil {
			return stats, fmt.Errorf("trace line %d: %w", lineNo, err)
		}

		// 2. Typed payload
		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return stats, fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		stats.Records++

		switch rec.Type {
		case RecordCallable:
			p.registry.AddCallable(rec.Callable)
			stats.Callables++
		case RecordClass:
			p.registry.AddClass(rec.Class)
			stats.Classes++
		case RecordEvent:
			ev, err := decodeEvent(rec.Event)
			if err != nil {
				return stats, fmt.Errorf("trace line %d: %w", lineNo, err)
			}
			stats.Events++
			if err := p.dispatcher.Emit(ev); err != nil {
				return stats, fmt.Errorf("trace line %d: %w", lineNo, err)
			}
		default:
			return stats, fmt.Errorf("trace line %d: unknown record type %q", lineNo, rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read trace: %w", err)
	}
	return stats, nil
}

// decodeEvent builds an Event from a record that already passed RecordSchema.
func decodeEvent(rec *eventRecord) (Event, error) {
	ev := Event{
		Kind: rec.Kind,
		Loc: Location{
			File:     rec.File,
			Line:     rec.Line,
			Function: rec.Function,
			CodeID:   rec.CodeID,
		},
	}
	for _, a := range rec.Args {
		v, err := value.Decode(a.Value)
		if err != nil {
			return Event{}, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		ev.Loc.Args = append(ev.Loc.Args, Binding{Name: a.Name, Value: v})
	}

	switch rec.Kind {
	case Return:
		v, err := value.Decode(rec.Return)
		if err != nil {
			return Event{}, fmt.Errorf("return value: %w", err)
		}
		ev.Return = v
	case Exception:
		v, err := value.Decode(rec.Exception.Value)
		if err != nil {
			return Event{}, fmt.Errorf("exception value: %w", err)
		}
		if len(rec.Exception.Value) == 0 {
			v = &value.Object{Type: rec.Exception.Type, Kind: value.KindScalar}
		}
		ev.Exception = &ExceptionInfo{Type: rec.Exception.Type, Value: v}
	}
	return ev, nil
}
