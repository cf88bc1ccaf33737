// Package inferencer is the observation session: it installs itself as the tracer's sink,
// turns the event stream into per-unit type records and answers queries once the session
// has ended.
package inferencer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"typin/internal/generator"
	"typin/internal/inflight"
	"typin/internal/registry"
	"typin/internal/resolver"
	"typin/internal/scope"
	"typin/internal/trace"

	"go.uber.org/zap"
)

var (
	// ErrNotEntered is returned by Exit without a matching Enter.
	ErrNotEntered = errors.New("inferencer: session not entered")
	// ErrInactive is returned for events delivered outside a session.
	ErrInactive = errors.New("inferencer: event outside an observation session")
)

// Options configures an Engine.
type Options struct {
	Logger *zap.Logger
	// SyntheticPrefixes are file name prefixes of runtime-generated modules, in addition to
	// names starting with "<". Base conflicts in such files only warn.
	SyntheticPrefixes []string
}

// Stats are the engine's diagnostic counters beyond the per-kind event counts.
type Stats struct {
	Filtered   int // flow-control exceptions dropped before the state machine
	Missed     int // events whose location did not resolve
	Attributed int // exceptions recorded on a unit
	Caught     int // exceptions caught inside the raising unit
	Abandoned  int // exceptions still pending when the session ended
	Conflicts  int // base conflicts tolerated in synthetic files
}

// Engine accumulates observed types. It is driven synchronously from the tracer callback and
// holds no locks.
type Engine struct {
	tracer    trace.Tracer
	resolver  *resolver.Resolver
	machine   *inflight.Machine
	inserter  *generator.DocInserter
	logger    *zap.Logger
	synthetic []string

	tables map[string]*scope.Table
	stack  []trace.Sink
	seq    uint64
	counts map[trace.Kind]int
	stats  Stats
}

// New creates an engine reading events from tracer and resolving them against reg.
func New(tracer trace.Tracer, reg registry.Registry, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tracer:    tracer,
		resolver:  resolver.New(reg, logger.Named("resolver")),
		machine:   inflight.New(),
		logger:    logger,
		synthetic: append([]string{"<"}, opts.SyntheticPrefixes...),
		tables:    make(map[string]*scope.Table),
		counts:    make(map[trace.Kind]int),
	}
}

// Enter installs the engine as the active sink, saving whatever was installed before.
// Sessions nest: an inner session shadows the outer one until it exits.
func (e *Engine) Enter() {
	e.stack = append(e.stack, e.tracer.Sink())
	e.tracer.SetSink(e)
}

// Exit restores the sink that was active before the matching Enter and removes class body
// artifacts from the tables.
func (e *Engine) Exit() error {
	if len(e.stack) == 0 {
		return ErrNotEntered
	}
	prev := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.tracer.SetSink(prev)

	if len(e.stack) == 0 {
		if p := e.machine.Reset(); p != nil {
			e.stats.Abandoned++
			e.logger.Warn("session ended with an exception in flight", zap.Stringer("exception", p))
		}
	}
	for _, t := range e.tables {
		if removed := t.Cleanup(); len(removed) > 0 {
			e.logger.Debug("removed class body records", zap.String("file", t.File), zap.Strings("classes", removed))
		}
	}
	return nil
}

// Observe runs fn inside a session. The session is exited even if fn panics; the panic then
// continues unchanged.
func (e *Engine) Observe(fn func() error) (err error) {
	e.Enter()
	defer func() {
		if exitErr := e.Exit(); err == nil {
			err = exitErr
		}
	}()
	return fn()
}

// Active reports whether a session is open.
func (e *Engine) Active() bool {
	return len(e.stack) > 0
}

// Event implements trace.Sink.
func (e *Engine) Event(ev trace.Event) error {
	if !e.Active() {
		return fmt.Errorf("%w: %s", ErrInactive, ev.Loc)
	}
	e.seq++
	e.counts[ev.Kind]++

	if inflight.IsFlowControl(ev) {
		e.stats.Filtered++
		return nil
	}

	act, p, err := e.machine.Step(ev, e.seq)
	if err != nil {
		return err
	}
	switch act {
	case inflight.Hold:
		return nil
	case inflight.Attribute:
		return e.attribute(p)
	case inflight.Discard:
		e.stats.Caught++
	}
	return e.record(ev)
}

func (e *Engine) record(ev trace.Event) error {
	if ev.Kind != trace.Call && ev.Kind != trace.Return {
		return nil
	}
	res, ok, err := e.resolve(ev.Loc)
	if err != nil || !ok {
		return err
	}
	u := e.table(ev.Loc.File).Unit(res.Namespace, res.Unit, res.Signature)
	if ev.Kind == trace.Call {
		err = u.RecordEntry(ev.Loc.Args, ev.Loc.Line)
	} else {
		err = u.RecordReturn(ev.Return, ev.Loc.Line)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Loc, err)
	}
	return nil
}

func (e *Engine) attribute(p *inflight.Pending) error {
	res, ok, err := e.resolve(p.Loc)
	if err != nil || !ok {
		return err
	}
	e.table(p.Loc.File).Unit(res.Namespace, res.Unit, res.Signature).AddException(p.Shape, p.Loc.Line)
	e.stats.Attributed++
	return nil
}

// resolve returns false without an error when the location does not resolve; such events
// are discarded.
func (e *Engine) resolve(loc trace.Location) (resolver.Resolution, bool, error) {
	res, err := e.resolver.Resolve(loc)
	if errors.Is(err, resolver.ErrResolutionMiss) {
		e.stats.Missed++
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("%s: %w", loc, err)
	}
	e.table(loc.File).MarkFunctions(res.Functions...)
	if res.Class == nil {
		return res, true, nil
	}

	err = e.table(loc.File).SetBases(res.Namespace, res.Bases)
	if errors.Is(err, scope.ErrBasesConflict) && e.isSynthetic(loc.File) {
		e.stats.Conflicts++
		e.logger.Warn("bases changed in synthetic file, keeping the first", zap.Error(err))
		return res, true, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("%w: %w", inflight.ErrProtocolViolation, err)
	}
	return res, true, nil
}

func (e *Engine) isSynthetic(file string) bool {
	for _, prefix := range e.synthetic {
		if strings.HasPrefix(file, prefix) {
			return true
		}
	}
	return false
}

func (e *Engine) table(file string) *scope.Table {
	t, ok := e.tables[file]
	if !ok {
		t = scope.NewTable(file)
		e.tables[file] = t
	}
	return t
}

// Counts returns how many events of each kind were seen.
func (e *Engine) Counts() map[trace.Kind]int {
	out := make(map[trace.Kind]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}

// Seq is the sequence number of the last event.
func (e *Engine) Seq() uint64 {
	return e.seq
}

func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) sortedTables() []*scope.Table {
	out := make([]*scope.Table, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
