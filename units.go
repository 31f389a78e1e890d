package ecojourney

import (
	"math"
	"strings"
)

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidUnit is returned when an emission unit is not recognized.
	ErrInvalidUnit = constError("invalid emission unit")
	// ErrNegativeValue is returned for negative emission quantities.
	ErrNegativeValue = constError("negative emission value")
	// ErrNotFinite is returned for NaN or infinite quantities.
	ErrNotFinite = constError("emission value is not finite")
)

// Emissions in kgCO2e
type Emissions float64

func (e Emissions) KgCO2e() float64 {
	return float64(e)
}

func (e Emissions) TCO2e() float64 {
	return e.KgCO2e() / 1000
}

// emissionUnitFactor returns the factor converting the unit to kilograms.
func emissionUnitFactor(unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gco2e":
		return 0.001, true
	case "kg", "kgco2e", "":
		return 1, true
	case "t", "ton", "tonne", "tco2e":
		return 1000, true
	case "lb", "lbco2e":
		return 0.453592, true
	}

	return 0, false
}

// NewEmissions normalizes a quantity expressed in unit into kilograms. Tonnes are
// scaled by 1000. An empty unit is read as kilograms.
func NewEmissions(value float64, unit string) (Emissions, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNotFinite
	}
	if value < 0 {
		return 0, ErrNegativeValue
	}

	factor, ok := emissionUnitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}

	kg := value * factor
	if math.IsInf(kg, 0) {
		return 0, ErrNotFinite
	}

	return Emissions(kg), nil
}

// Sanitize clamps NaN, infinite and negative values to zero.
func (e Emissions) Sanitize() Emissions {
	v := float64(e)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return e
}
