package extractor

import (
	"context"
	"fmt"
	"os"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor locates definitions using a language-specific extractor.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "python":
		langExt = &PythonExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// ExtractFromFile reads and parses a single source file.
func (e *Extractor) ExtractFromFile(filepath string) ([]*DefSite, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(context.Background(), sourceCode)
}

// ExtractFromSource returns every definition site in sourceCode, ordered by line.
func (e *Extractor) ExtractFromSource(ctx context.Context, sourceCode []byte) ([]*DefSite, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s source: %w", e.langName, err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var sites []*DefSite
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if site := e.langExtractor.ExtractSite(c.Node, sourceCode); site != nil {
				sites = append(sites, site)
			}
		}
	}
	sort.SliceStable(sites, func(i, j int) bool { return sites[i].DeclLine < sites[j].DeclLine })
	return sites, nil
}

// Locate returns the site matching a runtime-reported declaration line.
func Locate(sites []*DefSite, line int) (*DefSite, bool) {
	for _, s := range sites {
		if s.Matches(line) {
			return s, true
		}
	}
	return nil, false
}
