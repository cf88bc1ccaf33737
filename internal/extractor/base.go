package extractor

import sitter "github.com/smacker/go-tree-sitter"

// DefSite is the location of one function definition in a source file. Lines are 1-based.
type DefSite struct {
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"` // first decorator, or DeclLine when undecorated
	DeclLine   int    `json:"decl_line"`  // the "def" keyword
	EndLine    int    `json:"end_line"`
	BodyLine   int    `json:"body_line"`   // first statement of the body
	BodyIndent string `json:"body_indent"` // leading whitespace of the first statement

	// SameLine is set for "def f(): return 1", where nothing can be inserted before the body.
	SameLine     bool `json:"same_line"`
	HasDocstring bool `json:"has_docstring"`
}

// Matches reports whether line, as reported by the runtime for a call, belongs to this
// definition. Decorated functions report either the decorator or the def line.
func (d *DefSite) Matches(line int) bool {
	return line == d.DeclLine || line == d.StartLine
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractSite(node *sitter.Node, sourceCode []byte) *DefSite
}
