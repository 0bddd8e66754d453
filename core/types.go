// Package core implements the HR listing operations: employees joined with
// the display names of the cities, positions and divisions they reference.
package core

import (
	"encoding/json"
)

// City is a city reference record.
type City struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Position is a position reference record.
type Position struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Division is a division reference record. CityUUID is carried as data and
// is not joined.
type Division struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	CityUUID string `json:"cityUuid"`
}

// Employee is an employee record with its foreign keys.
type Employee struct {
	UUID         string `json:"uuid"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DivisionUUID string `json:"divisionUuid"`
	CityUUID     string `json:"cityUuid"`
	PositionUUID string `json:"positionUuid"`
}

// EmployeeCity is one row of ListEmployeesWithCityName.
type EmployeeCity struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// EmployeePosition is one row of ListEmployeesWithPositionAndDivision.
type EmployeePosition struct {
	Name     string `json:"firstName"`
	Position string `json:"position"`
	Division string `json:"division"`
}

// UpdateRequest names the entity kind to write and its payload.
type UpdateRequest struct {
	Entity string          `json:"entity"`
	Data   json.RawMessage `json:"data"`
}
