package registry

// Memory is an in-process Registry fed from a recorded trace. Lookups scan every known object
// in registration order, like a live registry scan; callers are expected to cache.
type Memory struct {
	callables []*Callable
	classes   []*Class
	scans     int
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{}
}

// AddCallable registers fn. A later callable with the same code id shadows an older one.
func (m *Memory) AddCallable(fn *Callable) {
	if fn == nil {
		return
	}
	m.callables = append(m.callables, fn)
}

// AddClass registers c.
func (m *Memory) AddClass(c *Class) {
	if c == nil {
		return
	}
	if c.Members == nil {
		c.Members = make(map[string]string)
	}
	m.classes = append(m.classes, c)
}

func (m *Memory) FindCallableByCodeID(codeID string) (*Callable, bool) {
	m.scans++
	for i := len(m.callables) - 1; i >= 0; i-- {
		if m.callables[i].CodeID == codeID {
			return m.callables[i], true
		}
	}
	return nil, false
}

func (m *Memory) FindClassDeclaringMember(name string, fn *Callable) (*Class, bool) {
	m.scans++
	for i := len(m.classes) - 1; i >= 0; i-- {
		if m.classes[i].Declares(name, fn) {
			return m.classes[i], true
		}
	}
	return nil, false
}

// Scans is the number of full registry scans performed so far.
func (m *Memory) Scans() int {
	return m.scans
}

// Len is the number of registered objects.
func (m *Memory) Len() int {
	return len(m.callables) + len(m.classes)
}
