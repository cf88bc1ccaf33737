package shape

import (
	"errors"
	"fmt"
	"regexp"

	"typin/internal/value"
)

// ErrTypeRepr is returned when a runtime type repr does not follow the "<class 'X'>" convention.
var ErrTypeRepr = errors.New("shape: can not parse type repr")

// Matches "<class 'int'>" to extract "int"; enums repr as "<enum 'RegexFlag'>".
var typeReprRe = regexp.MustCompile(`^<(?:class|enum) '(.+)'>$`)

// StrOfType extracts the bare type name from a runtime type repr.
func StrOfType(repr string) (string, error) {
	m := typeReprRe.FindStringSubmatch(repr)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrTypeRepr, repr)
	}
	return m[1], nil
}

// StrOfObjectType extracts the bare type name of the runtime type of o.
func StrOfObjectType(o *value.Object) (string, error) {
	if o == nil {
		return StrOfType(value.None().Type)
	}
	return StrOfType(o.Type)
}
