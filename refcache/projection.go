package refcache

import (
	"errors"
	"fmt"

	"github.com/willibrandon/hrref/store"
)

// ErrNoProjection is returned when a category has no key/name projection.
// Employees are listed, never resolved.
var ErrNoProjection = errors.New("category has no reference projection")

var errMissingKey = errors.New(`record has no "uuid"`)

// Projection extracts the identifier and display name from a record.
type Projection func(store.Record) (key, name string, err error)

// namedRecord is the common shape of city, position and division payloads.
type namedRecord struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func projectName(r store.Record) (string, string, error) {
	var v namedRecord
	if err := r.Decode(&v); err != nil {
		return "", "", err
	}
	if v.UUID == "" {
		return "", "", errMissingKey
	}
	return v.UUID, v.Name, nil
}

var projections = map[store.Category]Projection{
	store.CategoryCity:     projectName,
	store.CategoryPosition: projectName,
	store.CategoryDivision: projectName,
}

// ReferenceCategories lists the categories that can be resolved.
func ReferenceCategories() []store.Category {
	return []store.Category{store.CategoryCity, store.CategoryPosition, store.CategoryDivision}
}

// ProjectionFor returns the projection for category.
func ProjectionFor(category store.Category) (Projection, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownCategory, category)
	}
	p, ok := projections[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProjection, category)
	}
	return p, nil
}
