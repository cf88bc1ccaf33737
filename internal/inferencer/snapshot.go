package inferencer

import (
	"sort"
	"strings"

	"typin/internal/generator"
	"typin/internal/record"
	"typin/internal/scope"
)

// Snapshot is the JSON-ready result of a session.
type Snapshot struct {
	Events uint64         `json:"events"`
	Counts map[string]int `json:"counts"`
	Files  []FileSnapshot `json:"files"`
}

type FileSnapshot struct {
	Path  string         `json:"path"`
	Stubs string         `json:"stubs"`
	Units []UnitSnapshot `json:"units"`
}

type UnitSnapshot struct {
	Namespace  string              `json:"namespace"`
	Name       string              `json:"name"`
	Stub       string              `json:"stub"`
	Signature  string              `json:"signature,omitempty"`
	Arguments  []record.NamedTypes `json:"arguments"`
	Returns    map[int][]string    `json:"returns,omitempty"`
	Exceptions map[int][]string    `json:"exceptions,omitempty"`
	EntryLines []int               `json:"entry_lines"`
}

// QualName is the dotted name of the unit.
func (u UnitSnapshot) QualName() string {
	return qualify(u.Namespace, u.Name)
}

// Snapshot captures the current state of every table.
func (e *Engine) Snapshot() *Snapshot {
	snap := &Snapshot{Events: e.seq, Counts: make(map[string]int, len(e.counts))}
	for k, v := range e.counts {
		snap.Counts[string(k)] = v
	}
	for _, t := range e.sortedTables() {
		snap.Files = append(snap.Files, snapshotFile(t))
	}
	return snap
}

func snapshotFile(t *scope.Table) FileSnapshot {
	fs := FileSnapshot{Path: t.File, Stubs: strings.Join(generator.FormatFile(t), "\n")}
	for _, ns := range t.Namespaces() {
		for _, name := range t.UnitNames(ns) {
			u, _ := t.Lookup(ns, name)
			fs.Units = append(fs.Units, UnitSnapshot{
				Namespace:  ns,
				Name:       name,
				Stub:       "def " + name + u.StubFileStr(),
				Signature:  u.Signature,
				Arguments:  u.ArgumentTypeStrings(),
				Returns:    u.ReturnTypeStrings(),
				Exceptions: u.ExceptionTypeStrings(),
				EntryLines: u.EntryLines(),
			})
		}
	}
	sort.SliceStable(fs.Units, func(i, j int) bool { return fs.Units[i].QualName() < fs.Units[j].QualName() })
	return fs
}
