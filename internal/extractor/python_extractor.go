package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonExtractor implements LanguageExtractor for Python.
type PythonExtractor struct{}

func (p *PythonExtractor) GetLanguage() *sitter.Language {
	return python.GetLanguage()
}

func (p *PythonExtractor) GetQuery() string {
	return `(function_definition) @func`
}

func (p *PythonExtractor) ExtractSite(node *sitter.Node, sourceCode []byte) *DefSite {
	if node.Type() != "function_definition" {
		return nil
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	site := &DefSite{
		StartLine: int(node.StartPoint().Row) + 1,
		DeclLine:  int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		BodyLine:  int(body.StartPoint().Row) + 1,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		site.Name = name.Content(sourceCode)
	}
	if parent := node.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		site.StartLine = int(parent.StartPoint().Row) + 1
	}
	site.SameLine = body.StartPoint().Row == node.StartPoint().Row
	site.BodyIndent = indentOf(sourceCode, body)

	// A docstring is a bare string as the first statement of the body.
	if body.NamedChildCount() > 0 {
		first := body.NamedChild(0)
		if first.Type() == "expression_statement" && first.NamedChildCount() > 0 &&
			first.NamedChild(0).Type() == "string" {
			site.HasDocstring = true
		}
	}
	return site
}

// indentOf returns the whitespace between the start of node's line and node.
func indentOf(sourceCode []byte, node *sitter.Node) string {
	start := int(node.StartByte())
	lineStart := strings.LastIndexByte(string(sourceCode[:start]), '\n') + 1
	prefix := string(sourceCode[lineStart:start])
	if strings.TrimLeft(prefix, " \t") != "" {
		return ""
	}
	return prefix
}
