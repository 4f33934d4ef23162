package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CalculationKind identifies which engine produced a calculation record.
type CalculationKind string

const (
	CalculationKindBattery CalculationKind = "battery"
	CalculationKindPool    CalculationKind = "pool"
	CalculationKindSolarPV CalculationKind = "solar_pv"
)

// String returns the string representation of the kind.
func (k CalculationKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a recognized value.
func (k CalculationKind) IsValid() bool {
	switch k {
	case CalculationKindBattery, CalculationKindPool, CalculationKindSolarPV:
		return true
	}
	return false
}

// Calculation is a saved engine run: the inputs as given and the result
// the engine returned. Warnings are copied out of the result so history
// can be filtered without decoding JSON.
type Calculation struct {
	ID        uuid.UUID       `json:"id"`
	Kind      CalculationKind `json:"kind"`
	Inputs    json.RawMessage `json:"inputs"`
	Results   json.RawMessage `json:"results"`
	Warnings  []string        `json:"warnings"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HasWarnings returns true if the engine reported any warnings.
func (c *Calculation) HasWarnings() bool {
	return len(c.Warnings) > 0
}
