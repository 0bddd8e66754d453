package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Fixture is a seed data set keyed by category. Each payload is a JSON object
// carrying at least a "uuid" field.
type Fixture map[Category][]json.RawMessage

// LoadFixture reads a fixture from a JSON file of the form
// {"city": [{"uuid": "...", "name": "..."}], "employee": [...]}.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	fx := make(Fixture, len(raw))
	for name, items := range raw {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", path, err)
		}
		fx[c] = items
	}
	return fx, nil
}

// Add appends v, marshalled to JSON, to the category.
func (f Fixture) Add(c Category, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s fixture item: %w", c, err)
	}
	f[c] = append(f[c], data)
	return nil
}

// Save writes the fixture to path as indented JSON.
func (f Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

var errMissingID = errors.New(`payload has no "uuid" field`)

// RecordID extracts the "uuid" identifier from a payload.
func RecordID(payload json.RawMessage) (string, error) {
	var head struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return "", fmt.Errorf("read record id: %w", err)
	}
	if head.UUID == "" {
		return "", errMissingID
	}
	return head.UUID, nil
}
