package resolver

import "strings"

const localsSegment = "<locals>"

// StripLocals removes the "<locals>" segments the runtime injects into the qualified names
// of closures, so "Outer.<locals>.helper" becomes "Outer.helper".
func StripLocals(qualName string) string {
	if !strings.Contains(qualName, localsSegment) {
		return qualName
	}
	parts := strings.Split(qualName, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != localsSegment {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// SplitQualName splits a dotted name into its enclosing namespace and leaf name.
// Top-level names have an empty namespace.
func SplitQualName(qualName string) (namespace, name string) {
	i := strings.LastIndex(qualName, ".")
	if i < 0 {
		return "", qualName
	}
	return qualName[:i], qualName[i+1:]
}

// Mangle applies private name mangling: "__x" declared in class "_Foo" is stored as
// "_Foo__x". Dunder names and classes whose name is all underscores are left alone.
func Mangle(name, classLeaf string) string {
	if !strings.HasPrefix(name, "__") || strings.HasSuffix(name, "__") {
		return name
	}
	stripped := strings.TrimLeft(classLeaf, "_")
	if stripped == "" {
		return name
	}
	return "_" + stripped + name
}

// FunctionScopes returns the namespaces of qualName, with "<locals>" stripped, that belong
// to functions: each segment directly followed by "<locals>". "f.<locals>.C.m" gives ["f"].
func FunctionScopes(qualName string) []string {
	if !strings.Contains(qualName, localsSegment) {
		return nil
	}
	var scopes, kept []string
	parts := strings.Split(qualName, ".")
	for i, p := range parts {
		if p == localsSegment {
			continue
		}
		kept = append(kept, p)
		if i+1 < len(parts) && parts[i+1] == localsSegment {
			scopes = append(scopes, strings.Join(kept, "."))
		}
	}
	return scopes
}
