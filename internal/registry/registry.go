// Package registry is the live-object registry capability: it maps compiled code identities
// to the callables that own them and callables to the classes that declare them.
package registry

// Callable is a function object of the observed runtime.
type Callable struct {
	CodeID    string `json:"code_id"`
	Name      string `json:"name"`     // __name__
	QualName  string `json:"qualname"` // __qualname__, may contain "<locals>"
	Signature string `json:"signature,omitempty"`
}

// Class is a class object of the observed runtime.
type Class struct {
	QualName string            `json:"qualname"`
	Bases    []string          `json:"bases"`   // type reprs of __bases__, declaration order
	Members  map[string]string `json:"members"` // __dict__ key -> code id of function members
}

// Declares reports whether the class member table maps name to fn.
func (c *Class) Declares(name string, fn *Callable) bool {
	if c == nil || fn == nil {
		return false
	}
	id, ok := c.Members[name]
	return ok && id == fn.CodeID
}

// Registry looks up live objects of the observed runtime.
type Registry interface {
	// FindCallableByCodeID returns the single callable whose code identity is codeID.
	FindCallableByCodeID(codeID string) (*Callable, bool)

	// FindClassDeclaringMember returns a class whose member table maps name to fn.
	FindClassDeclaringMember(name string, fn *Callable) (*Class, bool)
}
