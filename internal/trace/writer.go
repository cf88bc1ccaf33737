package trace

import (
	"encoding/json"
	"fmt"
	"io"

	"typin/internal/registry"
	"typin/internal/value"
)

// Writer records registry objects and events in the JSON Lines format read by Replayer.
// It is itself a Sink, so it can be installed on a Tracer to capture a live session.
type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) Callable(fn *registry.Callable) error {
	return w.enc.Encode(record{Type: RecordCallable, Callable: fn})
}

func (w *Writer) Class(c *registry.Class) error {
	return w.enc.Encode(record{Type: RecordClass, Class: c})
}

func (w *Writer) Event(ev Event) error {
	rec := &eventRecord{
		Kind:     ev.Kind,
		File:     ev.Loc.File,
		Line:     ev.Loc.Line,
		Function: ev.Loc.Function,
		CodeID:   ev.Loc.CodeID,
	}
	for _, b := range ev.Loc.Args {
		raw, err := value.Encode(b.Value)
		if err != nil {
			return fmt.Errorf("failed to encode argument %s: %w", b.Name, err)
		}
		rec.Args = append(rec.Args, argRecord{Name: b.Name, Value: raw})
	}
	if ev.Kind == Return {
		raw, err := value.Encode(ev.Return)
		if err != nil {
			return fmt.Errorf("failed to encode return value: %w", err)
		}
		rec.Return = raw
	}
	if ev.Exception != nil {
		raw, err := value.Encode(ev.Exception.Value)
		if err != nil {
			return fmt.Errorf("failed to encode exception: %w", err)
		}
		rec.Exception = &exceptionRecord{Type: ev.Exception.Type, Value: raw}
	}
	return w.enc.Encode(record{Type: RecordEvent, Event: rec})
}
