package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStyle is returned for a docstring style other than those in Styles.
var ErrUnknownStyle = errors.New("record: unsupported docstring style")

// Style is a docstring layout.
type Style string

const (
	StyleGoogle Style = "google"
	StyleSphinx Style = "sphinx"
)

// Styles lists the supported styles in alphabetical order.
var Styles = []Style{StyleGoogle, StyleSphinx}

// ParseStyle validates a style name.
func ParseStyle(name string) (Style, error) {
	for _, s := range Styles {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q, must be one of %v", ErrUnknownStyle, name, Styles)
}

func docMarker(suffix string) string {
	return strings.ReplaceAll("<insert documentation for "+suffix+">", " ", "_")
}

// Docstring returns the declaration line and a documentation skeleton in the given style.
// The text is meant to be spliced in after the declaration line. includeReturns is false
// for units such as __init__ whose return value is not documented.
func (u *Unit) Docstring(includeReturns bool, style Style) (int, string, error) {
	var build func(bool) []string
	switch style {
	case StyleSphinx:
		build = u.docstringSphinx
	case StyleGoogle:
		build = u.docstringGoogle
	default:
		return 0, "", fmt.Errorf("%w: %q, must be one of %v", ErrUnknownStyle, style, Styles)
	}
	line, err := u.LineDecl()
	if err != nil {
		return 0, "", err
	}
	return line, strings.Join(build(includeReturns), "\n"), nil
}

// Return and raise sections use the raw runtime names, not the stub spelling.
func (u *Unit) returnTypesJoined() string {
	return strings.Join(u.allReturns().Strings(), ",")
}

func (u *Unit) exceptionsJoined() string {
	return strings.Join(u.allExceptions().Strings(), ", ")
}

func (u *Unit) docstringSphinx(includeReturns bool) []string {
	lines := []string{`"""`, docMarker("function")}
	for _, a := range u.FilteredArguments() {
		lines = append(lines,
			"",
			fmt.Sprintf(":param %s: %s", a.Name, docMarker("argument")),
			fmt.Sprintf(":type %s: ``%s``", a.Name, strings.Join(a.Types, ", ")),
		)
	}
	if includeReturns {
		lines = append(lines, "")
		rets := u.returnTypesJoined()
		if rets == "NoneType" {
			lines = append(lines, fmt.Sprintf(":returns: ``%s``", rets))
		} else {
			lines = append(lines, fmt.Sprintf(":returns: ``%s`` -- %s", rets, docMarker("return values")))
		}
	}
	if len(u.exceptions) > 0 {
		lines = append(lines, "", fmt.Sprintf(":raises: ``%s``", u.exceptionsJoined()))
	}
	return append(lines, `"""`)
}

func (u *Unit) docstringGoogle(includeReturns bool) []string {
	lines := []string{`"""`, docMarker("function")}
	if args := u.FilteredArguments(); len(args) > 0 {
		lines = append(lines, "", "Args:")
		for _, a := range args {
			lines = append(lines, fmt.Sprintf("    %s (%s): %s", a.Name, strings.Join(a.Types, ", "), docMarker("argument")))
		}
	}
	if includeReturns {
		lines = append(lines, "", "Returns:")
		rets := u.returnTypesJoined()
		if rets == "NoneType" {
			lines = append(lines, "    "+rets)
		} else {
			lines = append(lines, fmt.Sprintf("    %s. %s", rets, docMarker("return values")))
		}
	}
	if len(u.exceptions) > 0 {
		lines = append(lines, "", "Raises:", "    "+u.exceptionsJoined())
	}
	return append(lines, `"""`)
}
