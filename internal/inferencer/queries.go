package inferencer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"typin/internal/extractor"
	"typin/internal/generator"
	"typin/internal/record"
	"typin/internal/trace"
)

var (
	ErrUnknownFile = errors.New("inferencer: no records for file")
	ErrUnknownUnit = errors.New("inferencer: no record for unit")
)

// initName is the constructor, whose docstring never documents a return value.
const initName = "__init__"

// FunctionTypes returns the record of namespace.unit in file. namespace is "" for top level.
func (e *Engine) FunctionTypes(file, namespace, unit string) (*record.Unit, error) {
	t, ok := e.tables[file]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, file)
	}
	u, ok := t.Lookup(namespace, unit)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownUnit, file, qualify(namespace, unit))
	}
	return u, nil
}

func qualify(namespace, unit string) string {
	if namespace == "" {
		return unit
	}
	return namespace + "." + unit
}

// PrettyFormat renders the stubs of every file, each preceded by a "File: path" line.
func (e *Engine) PrettyFormat() string {
	return generator.Format(e.sortedTables())
}

// PrettyFormatFile renders the stubs of one file.
func (e *Engine) PrettyFormatFile(file string) (string, error) {
	t, ok := e.tables[file]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFile, file)
	}
	return strings.Join(generator.FormatFile(t), "\n"), nil
}

// StubFileStr renders the stub declaration of one unit, "def f(i: int) -> str: ...". A unit
// that was never entered has no signature to render and yields record.ErrNoData.
func (e *Engine) StubFileStr(file, namespace, unit string) (string, error) {
	u, err := e.FunctionTypes(file, namespace, unit)
	if err != nil {
		return "", err
	}
	if u.NumEntryPoints() == 0 {
		return "", fmt.Errorf("%w: %s %s", record.ErrNoData, file, qualify(namespace, unit))
	}
	return "def " + unit + u.StubFileStr(), nil
}

// Docstring returns the declaration line of a unit and its documentation skeleton.
func (e *Engine) Docstring(file, namespace, unit string, style record.Style) (int, string, error) {
	u, err := e.FunctionTypes(file, namespace, unit)
	if err != nil {
		return 0, "", err
	}
	return u.Docstring(unit != initName, style)
}

// InsertDocstrings returns the listing of path with a docstring inserted into every observed
// function. lines is read from path when nil.
func (e *Engine) InsertDocstrings(ctx context.Context, path string, lines []string, style record.Style) ([]string, error) {
	t, ok := e.tables[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	if lines == nil {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		lines = strings.Split(string(content), "\n")
	}

	var docs []generator.Docstring
	for _, ns := range t.Namespaces() {
		for _, name := range t.UnitNames(ns) {
			line, text, err := e.Docstring(path, ns, name, style)
			if errors.Is(err, record.ErrNoData) {
				continue
			}
			if err != nil {
				return nil, err
			}
			docs = append(docs, generator.Docstring{Name: qualify(ns, name), Line: line, Text: text})
		}
	}

	if e.inserter == nil {
		ins, err := generator.NewDocInserter(e.logger.Named("docstrings"))
		if err != nil {
			return nil, err
		}
		e.inserter = ins
	}
	return e.inserter.Insert(ctx, lines, docs)
}

// Observed reports whether the function defined at site in file was entered during the session.
func (e *Engine) Observed(file string, site *extractor.DefSite) bool {
	t, ok := e.tables[file]
	if !ok {
		return false
	}
	for _, ns := range t.Namespaces() {
		u, ok := t.Lookup(ns, site.Name)
		if !ok {
			continue
		}
		if line, err := u.LineDecl(); err == nil && site.Matches(line) {
			return true
		}
	}
	return false
}

// FilePaths returns every observed file, sorted.
func (e *Engine) FilePaths() []string {
	out := make([]string, 0, len(e.tables))
	for file := range e.tables {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// FilePath is an observed file: Key is the name the engine knows it by, Path is how the caller
// asked to see it.
type FilePath struct {
	Key  string
	Path string
}

// FilePathsFiltered returns the observed files under prefix, sorted. An empty prefix matches
// everything. With relative set, Path is relative to prefix.
func (e *Engine) FilePathsFiltered(prefix string, relative bool) []FilePath {
	var out []FilePath
	for _, file := range e.FilePaths() {
		if !underPrefix(file, prefix) {
			continue
		}
		fp := FilePath{Key: file, Path: file}
		if relative && prefix != "" {
			if rel, err := filepath.Rel(prefix, file); err == nil {
				fp.Path = rel
			}
		}
		out = append(out, fp)
	}
	return out
}

func underPrefix(file, prefix string) bool {
	if prefix == "" {
		return true
	}
	clean := filepath.Clean(prefix)
	return file == clean || strings.HasPrefix(file, clean+string(filepath.Separator))
}

// Dump writes the event counters and the internal state of every record to w.
func (e *Engine) Dump(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Events: %d\n", e.seq)
	for _, k := range trace.Kinds {
		fmt.Fprintf(&sb, "  %-9s %d\n", k, e.counts[k])
	}
	rs := e.resolver.Stats()
	fmt.Fprintf(&sb, "Resolver: attempted=%d resolved=%d missed=%d cache_hits=%d scans=%d\n",
		rs.Attempted, rs.Resolved, rs.Missed, rs.CacheHits, rs.Scans)
	fmt.Fprintf(&sb, "Exceptions: attributed=%d caught=%d filtered=%d abandoned=%d\n",
		e.stats.Attributed, e.stats.Caught, e.stats.Filtered, e.stats.Abandoned)

	for _, t := range e.sortedTables() {
		fmt.Fprintf(&sb, "File: %s\n", t.File)
		for _, ns := range t.Namespaces() {
			for _, name := range t.UnitNames(ns) {
				u, _ := t.Lookup(ns, name)
				fmt.Fprintf(&sb, "  %s: %s\n", qualify(ns, name), u.Repr())
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
