// Package store provides the bulk-read Store Client used to load employee and
// reference records.
//
// Every backend answers the same question: "give me all records of this
// category". Records are opaque JSON payloads; decoding them into typed values
// is the caller's concern.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Category identifies a record collection.
type Category string

const (
	// CategoryEmployee holds employee records.
	CategoryEmployee Category = "employee"
	// CategoryCity holds city reference records.
	CategoryCity Category = "city"
	// CategoryPosition holds position reference records.
	CategoryPosition Category = "position"
	// CategoryDivision holds division reference records.
	CategoryDivision Category = "division"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryEmployee, CategoryCity, CategoryPosition, CategoryDivision}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryEmployee, CategoryCity, CategoryPosition, CategoryDivision:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts s into a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Filter narrows a query. The zero value matches every record.
type Filter struct {
	// IDs restricts the result to records with these identifiers.
	IDs []string
}

// NoFilter returns the filter that matches the whole category.
func NoFilter() Filter {
	return Filter{}
}

// IsEmpty reports whether f matches every record.
func (f Filter) IsEmpty() bool {
	return len(f.IDs) == 0
}

// Query describes a bulk read.
type Query struct {
	Category Category
	Filter   Filter
}

// Validate checks that the query can be served by a bulk backend.
func (q Query) Validate() error {
	if !q.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, q.Category)
	}
	if !q.Filter.IsEmpty() {
		return ErrUnsupportedFilter
	}
	return nil
}

// Record is a single stored entity.
type Record struct {
	Category Category        `json:"-"`
	Data     json.RawMessage `json:"data"`
}

// Decode unmarshals the record payload into v.
func (r Record) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("decode %s record: empty payload", r.Category)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode %s record: %w", r.Category, err)
	}
	return nil
}

// Client answers bulk queries against a backing data store.
type Client interface {
	// Query returns every record matching q. The cache layer never retries;
	// transport-level retries belong to the backend.
	Query(ctx context.Context, q Query) ([]Record, error)

	// Close releases backend resources.
	Close() error
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Seeder is implemented by writable backends that can load a fixture.
type Seeder interface {
	Seed(ctx context.Context, fx Fixture) error
}
