// Package convert standardizes activity quantities: minutes of travel into
// kilometers, hours of appliance use into kWh, water uses into liters, food
// servings and waste items into kilograms.
package convert

import (
	"log/slog"
	"strings"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/model/catalog"
)

// StandardUnits is the unit every category is standardized into.
var StandardUnits = map[ecojourney.Category]string{
	ecojourney.CategoryTransport:   "km",
	ecojourney.CategoryElectricity: "kWh",
	ecojourney.CategoryWater:       "L",
	ecojourney.CategoryWaste:       "kg",
	ecojourney.CategoryFood:        "kg",
	ecojourney.CategoryClothing:    "count",
}

// speeds in km/h
var speeds = map[catalog.Kind]float64{
	catalog.Car:    30,
	catalog.Bus:    25,
	catalog.Subway: 30,
	catalog.Walk:   5,
	catalog.Bike:   15,
}

// power draw in kW
var powers = map[catalog.Kind]float64{
	catalog.AirConditioner: 2.0,
	catalog.Heater:         1.5,
}

// liters per use
var volumes = map[catalog.Kind]float64{
	catalog.Shower:      70,
	catalog.Dishwashing: 15,
	catalog.Laundry:     60,
}

// kilograms per item
var itemWeights = map[catalog.Kind]float64{
	catalog.Can:    0.015,
	catalog.Bottle: 0.4,
}

// kilograms per serving
var servingWeights = map[catalog.Kind]float64{
	catalog.Beef:     0.2,
	catalog.Pork:     0.15,
	catalog.Chicken:  0.15,
	catalog.Rice:     0.2,
	catalog.RiceBowl: 0.2,
	catalog.Coffee:   0.015,
}

// DefaultServingWeight is the kilograms of a serving of an unlisted food.
const DefaultServingWeight = 0.2

// unit aliases, by standard unit
var (
	minuteUnits  = []string{"분", "min", "mins", "minute", "minutes"}
	hourUnits    = []string{"시간", "h", "hr", "hour", "hours"}
	countUnits   = []string{"회", "개", "count", "times", "ea", "items"}
	servingUnits = []string{"인분", "잔", "공기", "serving", "servings"}
	gramUnits    = []string{"g", "gram", "grams", "그램"}
	kgUnits      = []string{"kg", "킬로그램"}
	kmUnits      = []string{"km", "킬로미터"}
	kwhUnits     = []string{"kwh"}
	literUnits   = []string{"l", "liter", "liters", "리터"}
)

// Converter turns raw quantities into standard units.
type Converter struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Converter {
	return &Converter{catalog: c}
}

// Convert returns the value expressed in the standard unit of the category.
// Unknown activity types or units convert to zero, never to an error.
func (c *Converter) Convert(category ecojourney.Category, activityType string, value float64, unit string) (float64, string) {
	standard, found := StandardUnits[category]
	if !found {
		return value, unit
	}

	u := strings.ToLower(strings.TrimSpace(unit))
	kind := c.catalog.Classify(category, activityType)

	converted, ok := c.convert(category, kind, value, u)
	if !ok {
		slog.Debug("unable to convert activity", "category", category, "type", activityType, "unit", unit)
		return 0, standard
	}

	return converted, standard
}

func (c *Converter) convert(category ecojourney.Category, kind catalog.Kind, value float64, unit string) (float64, bool) {
	switch category {
	case ecojourney.CategoryTransport:
		if is(unit, kmUnits) {
			return value, true
		}
		if is(unit, minuteUnits) {
			return scale(value/60, speeds, kind)
		}
	case ecojourney.CategoryElectricity:
		if is(unit, kwhUnits) {
			return value, true
		}
		if is(unit, hourUnits) {
			return scale(value, powers, kind)
		}
	case ecojourney.CategoryWater:
		if is(unit, literUnits) {
			return value, true
		}
		if is(unit, countUnits) {
			return scale(value, volumes, kind)
		}
	case ecojourney.CategoryWaste:
		if is(unit, kgUnits) {
			return value, true
		}
		if is(unit, gramUnits) {
			return value / 1000, true
		}
		if is(unit, countUnits) {
			return scale(value, itemWeights, kind)
		}
	case ecojourney.CategoryFood:
		if is(unit, gramUnits) {
			return value / 1000, true
		}
		if is(unit, countUnits) || is(unit, servingUnits) {
			return value * servingWeight(kind), true
		}
		// kg and unlabeled quantities pass through
		return value, true
	case ecojourney.CategoryClothing:
		return value, true
	}

	return 0, false
}

func scale(value float64, table map[catalog.Kind]float64, kind catalog.Kind) (float64, bool) {
	rate, found := table[kind]
	if !found {
		return 0, false
	}
	return value * rate, true
}

func servingWeight(kind catalog.Kind) float64 {
	if weight, found := servingWeights[kind]; found {
		return weight
	}
	return DefaultServingWeight
}

func is(unit string, aliases []string) bool {
	for _, alias := range aliases {
		if unit == alias {
			return true
		}
	}
	return false
}

// Activity returns a converted copy of the activity.
func (c *Converter) Activity(a ecojourney.Activity) ecojourney.Activity {
	a.ConvertedValue, a.StandardUnit = c.Convert(a.Category, a.Type, a.Value, a.Unit)
	return a
}
