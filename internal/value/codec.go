package value

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrDanglingRef = errors.New("value: reference to unknown object id")

type wireEntry struct {
	Key   *wireObject `json:"key"`
	Value *wireObject `json:"value"`
}

type wireObject struct {
	ID      uint64        `json:"id,omitempty"`
	Ref     uint64        `json:"ref,omitempty"`
	Type    string        `json:"type,omitempty"`
	Kind    Kind          `json:"kind,omitempty"`
	Items   []*wireObject `json:"items,omitempty"`
	Entries []wireEntry   `json:"entries,omitempty"`
}

// Decode parses the JSON wire form of a value. Objects that carry an "id" can be referred to
// from anywhere later in the same tree with {"ref": id}; this is how cycles are transmitted.
func Decode(raw json.RawMessage) (*Object, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return None(), nil
	}
	var w wireObject
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	d := decoder{byID: make(map[uint64]*Object)}
	return d.build(&w)
}

type decoder struct {
	byID map[uint64]*Object
}

func (d *decoder) build(w *wireObject) (*Object, error) {
	if w == nil {
		return None(), nil
	}
	if w.Ref != 0 {
		o, ok := d.byID[w.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrDanglingRef, w.Ref)
		}
		return o, nil
	}

	kind := w.Kind
	if kind == "" {
		kind = KindScalar
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("failed to decode value: unknown kind %q", kind)
	}

	o := &Object{Type: w.Type, Kind: kind}
	// Register before children so they may refer back to o.
	if w.ID != 0 {
		d.byID[w.ID] = o
	}
	for _, item := range w.Items {
		child, err := d.build(item)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, child)
	}
	for _, e := range w.Entries {
		k, err := d.build(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := d.build(e.Value)
		if err != nil {
			return nil, err
		}
		o.Entries = append(o.Entries, Entry{Key: k, Value: v})
	}
	return o, nil
}

// Encode renders o in the wire form accepted by Decode. Containers get ids; a container
// reached again while it is still being encoded is written as a reference.
func Encode(o *Object) (json.RawMessage, error) {
	e := encoder{ids: make(map[*Object]uint64), open: make(map[*Object]bool)}
	return json.Marshal(e.build(o))
}

type encoder struct {
	ids  map[*Object]uint64
	open map[*Object]bool
	next uint64
}

func (e *encoder) build(o *Object) *wireObject {
	if o == nil {
		return nil
	}
	if e.open[o] {
		return &wireObject{Ref: e.ids[o]}
	}
	w := &wireObject{Type: o.Type, Kind: o.Kind}
	if !o.IsContainer() {
		return w
	}

	e.next++
	e.ids[o] = e.next
	w.ID = e.next
	e.open[o] = true
	defer delete(e.open, o)

	for _, item := range o.Items {
		w.Items = append(w.Items, e.build(item))
	}
	for _, entry := range o.Entries {
		w.Entries = append(w.Entries, wireEntry{Key: e.build(entry.Key), Value: e.build(entry.Value)})
	}
	return w
}
