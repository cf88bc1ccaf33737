package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"typin/internal/extractor"

	"go.uber.org/zap"
)

// ErrLineOutOfRange is returned for a docstring whose declaration line is not in the listing.
var ErrLineOutOfRange = errors.New("generator: declaration line out of range")

// Docstring is a rendered documentation block for the function declared at Line.
type Docstring struct {
	Name string
	Line int
	Text string
}

// DocInserter splices docstrings into Python source listings.
type DocInserter struct {
	ext    *extractor.Extractor
	logger *zap.Logger
}

func NewDocInserter(logger *zap.Logger) (*DocInserter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ext, err := extractor.NewExtractor("python")
	if err != nil {
		return nil, err
	}
	return &DocInserter{ext: ext, logger: logger}, nil
}

// Insert returns a copy of lines with each docstring placed at the top of the body of the
// function it documents, indented like that body.
func (d *DocInserter) Insert(ctx context.Context, lines []string, docs []Docstring) ([]string, error) {
	sites, err := d.ext.ExtractFromSource(ctx, []byte(strings.Join(lines, "\n")))
	if err != nil {
		return nil, err
	}

	// Bottom up, so earlier line numbers stay valid.
	ordered := append([]Docstring(nil), docs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Line > ordered[j].Line })

	out := append([]string(nil), lines...)
	for _, doc := range ordered {
		if doc.Line < 1 || doc.Line > len(out) {
			return nil, fmt.Errorf("%w: %s at line %d of %d", ErrLineOutOfRange, doc.Name, doc.Line, len(out))
		}

		at, indent := doc.Line, leadingSpace(out[doc.Line-1])+Indent
		if site, ok := extractor.Locate(sites, doc.Line); ok {
			if site.SameLine {
				d.logger.Info("skipping single line definition", zap.String("name", doc.Name), zap.Int("line", doc.Line))
				continue
			}
			if site.HasDocstring {
				d.logger.Info("definition already documented", zap.String("name", doc.Name), zap.Int("line", doc.Line))
				continue
			}
			at, indent = site.BodyLine-1, site.BodyIndent
		} else {
			d.logger.Debug("no definition found, inserting after the line", zap.String("name", doc.Name), zap.Int("line", doc.Line))
		}
		out = splice(out, at, indentBlock(doc.Text, indent))
	}
	return out, nil
}

func splice(lines []string, at int, block []string) []string {
	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:at]...)
	out = append(out, block...)
	return append(out, lines[at:]...)
}

func indentBlock(text, indent string) []string {
	block := strings.Split(text, "\n")
	for i, l := range block {
		if l != "" {
			block[i] = indent + l
		}
	}
	return block
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
