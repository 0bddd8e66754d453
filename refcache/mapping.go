package refcache

import (
	"fmt"

	"github.com/willibrandon/hrref/store"
)

// Mapping is an immutable identifier to display-name table for one category.
// It is safe for concurrent use.
type Mapping struct {
	category store.Category
	names    map[string]string
	order    []string
}

// newMapping projects records into a Mapping. A record that cannot be
// projected fails the whole build. Duplicate identifiers keep the last name.
func newMapping(category store.Category, records []store.Record, project Projection) (*Mapping, error) {
	m := &Mapping{
		category: category,
		names:    make(map[string]string, len(records)),
		order:    make([]string, 0, len(records)),
	}
	for i, r := range records {
		key, name, err := project(r)
		if err != nil {
			return nil, store.NewStoreError("", "decode", category, fmt.Errorf("record %d: %w", i, err))
		}
		if _, seen := m.names[key]; !seen {
			m.order = append(m.order, key)
		}
		m.names[key] = name
	}
	return m, nil
}

// Category returns the category the mapping was built from.
func (m *Mapping) Category() store.Category {
	return m.category
}

// Lookup returns the display name for id and whether it exists.
func (m *Mapping) Lookup(id string) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// Name returns the display name for id, or "" when id is unknown.
func (m *Mapping) Name(id string) string {
	return m.names[id]
}

// Len returns the number of identifiers.
func (m *Mapping) Len() int {
	return len(m.names)
}

// Range calls fn for each entry in fetch order until fn returns false.
func (m *Mapping) Range(fn func(id, name string) bool) {
	for _, id := range m.order {
		if !fn(id, m.names[id]) {
			return
		}
	}
}
