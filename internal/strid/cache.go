// Package strid interns strings such as file paths and qualified names as small integer ids.
package strid

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownID is returned by Name for an id that was never handed out.
	ErrUnknownID = errors.New("strid: unknown id")
	// ErrInconsistent means the forward and reverse tables have drifted apart.
	ErrInconsistent = errors.New("strid: length mismatch")
)

// Cache maps names to ids in first-seen order, starting at 0.
type Cache struct {
	ids   map[string]int
	names map[int]string
}

func New() *Cache {
	return &Cache{ids: make(map[string]int), names: make(map[int]string)}
}

func (c *Cache) check() error {
	if len(c.ids) != len(c.names) {
		return fmt.Errorf("%w: %d names, %d ids", ErrInconsistent, len(c.ids), len(c.names))
	}
	return nil
}

// ID returns the id of name, assigning the next free one if name is new.
func (c *Cache) ID(name string) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	if id, ok := c.ids[name]; ok {
		return id, nil
	}
	id := len(c.ids)
	c.ids[name] = id
	c.names[id] = name
	return id, nil
}

// Name returns the name registered under id.
func (c *Cache) Name(id int) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	name, ok := c.names[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return name, nil
}

// SortedIDs returns every id ordered by its name.
func (c *Cache) SortedIDs() ([]int, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.ids))
	for name := range c.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = c.ids[name]
	}
	return out, nil
}

func (c *Cache) Len() int {
	return len(c.ids)
}
