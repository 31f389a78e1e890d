// Package catalog holds the closed set of activity kinds for every category,
// their input aliases, the remote emission factor identifiers and the local
// fallback factors.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/must"
)

// Kind identifies an activity within its category.
type Kind string

const Unknown Kind = "unknown"

// Transport
const (
	Car    Kind = "car"
	Bus    Kind = "bus"
	Subway Kind = "subway"
	Walk   Kind = "walk"
	Bike   Kind = "bike"
)

// Electricity
const (
	AirConditioner Kind = "air_conditioner"
	Heater         Kind = "heater"
)

// Food
const (
	Beef     Kind = "beef"
	Pork     Kind = "pork"
	Chicken  Kind = "chicken"
	Coffee   Kind = "coffee"
	Rice     Kind = "rice"
	RiceBowl Kind = "rice_bowl"
)

// Clothing
const (
	Top    Kind = "top"
	Bottom Kind = "bottom"
	Shoes  Kind = "shoes"
	Bag    Kind = "bag"
)

// Water
const (
	Shower      Kind = "shower"
	Dishwashing Kind = "dishwashing"
	Laundry     Kind = "laundry"
)

// Waste
const (
	GeneralWaste Kind = "general"
	Plastic      Kind = "plastic"
	Paper        Kind = "paper"
	Glass        Kind = "glass"
	Can          Kind = "can"
	Bottle       Kind = "bottle"
)

// Parameter is the physical quantity sent to the remote estimation service.
type Parameter string

const (
	Distance Parameter = "distance"
	Energy   Parameter = "energy"
	Weight   Parameter = "weight"
)

// Unit returns the unit of the parameter as expected by the remote service.
func (p Parameter) Unit() string {
	switch p {
	case Distance:
		return "km"
	case Energy:
		return "kWh"
	default:
		return "kg"
	}
}

// Remote describes how an activity is looked up on the remote estimation service.
type Remote struct {
	ActivityID string
	Region     string
	// Source restricts the dataset, e.g. "exiobase"
	Source    string
	Parameter Parameter
}

// Entry describes one kind of activity.
type Entry struct {
	Category ecojourney.Category
	Kind     Kind
	Aliases  []string
	// Factor is the local fallback in kgCO2e per FactorUnit
	Factor     float64
	FactorUnit string
	// UnitWeightKg converts one standard unit into kilograms before applying
	// Factor or querying the remote service. Zero means no conversion.
	UnitWeightKg float64
	// Remote is nil for activities resolved locally only
	Remote       *Remote
	ZeroEmission bool
}

// Weight returns the quantity handed to the factor, scaled by UnitWeightKg.
func (e Entry) Weight(quantity float64) float64 {
	if e.UnitWeightKg > 0 {
		return quantity * e.UnitWeightKg
	}
	return quantity
}

// Local computes the fallback emission of the standardized quantity.
func (e Entry) Local(quantity float64) float64 {
	if e.ZeroEmission {
		return 0
	}
	return e.Weight(quantity) * e.Factor
}

func (e Entry) String() string {
	return fmt.Sprintf("%s/%s", e.Category, e.Kind)
}

// Catalog indexes entries by category.
type Catalog struct {
	entries map[ecojourney.Category]map[Kind]Entry
	aliases map[ecojourney.Category]map[string]Kind
}

// New builds a catalog from entries. Every category must carry an Unknown entry.
func New(entries ...Entry) *Catalog {
	c := &Catalog{
		entries: make(map[ecojourney.Category]map[Kind]Entry),
		aliases: make(map[ecojourney.Category]map[string]Kind),
	}

	for _, e := range entries {
		if _, found := c.entries[e.Category]; !found {
			c.entries[e.Category] = make(map[Kind]Entry)
			c.aliases[e.Category] = make(map[string]Kind)
		}
		c.entries[e.Category][e.Kind] = e
		if e.Kind == Unknown {
			continue
		}
		c.aliases[e.Category][normalize(string(e.Kind))] = e.Kind
		for _, alias := range e.Aliases {
			c.aliases[e.Category][normalize(alias)] = e.Kind
		}
	}

	for category, kinds := range c.entries {
		_, found := kinds[Unknown]
		must.Assert(found, "catalog category has no unknown entry", "category", category)
	}

	return c
}

// Classify maps a free-form activity label to a kind of the category. Exact
// aliases win, then the closest fuzzy alias. Zero emission kinds only match
// exactly: "motorbike" is not a bike. Unmatched labels are Unknown.
func (c *Catalog) Classify(category ecojourney.Category, activityType string) Kind {
	aliases, found := c.aliases[category]
	if !found {
		return Unknown
	}

	label := normalize(activityType)
	if label == "" {
		return Unknown
	}

	if kind, found := aliases[label]; found {
		return kind
	}

	names := make([]string, 0, len(aliases))
	for alias, kind := range aliases {
		if c.entries[category][kind].ZeroEmission {
			continue
		}
		names = append(names, alias)
	}
	sort.Strings(names)

	// label is a subsequence of an alias: "에어컨" in "냉방기(에어컨)"
	ranks := fuzzy.RankFindNormalizedFold(label, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		kind := aliases[ranks[0].Target]
		slog.Debug("fuzzy matched activity type", "category", category, "source", activityType, "match", ranks[0].Target, "kind", kind)
		return kind
	}

	// an alias is a subsequence of the label: "청바지(하의)" contains "하의"
	best := ""
	for _, alias := range names {
		if len([]rune(alias)) < 2 && len([]rune(label)) > 1 {
			continue
		}
		if fuzzy.MatchNormalizedFold(alias, label) && len(alias) > len(best) {
			best = alias
		}
	}
	if best != "" {
		slog.Debug("fuzzy matched activity type", "category", category, "source", activityType, "match", best, "kind", aliases[best])
		return aliases[best]
	}

	return Unknown
}

// Entry returns the entry of the kind, the category unknown entry otherwise.
func (c *Catalog) Entry(category ecojourney.Category, kind Kind) Entry {
	kinds, found := c.entries[category]
	if !found {
		return Entry{Category: ecojourney.CategoryUnknown, Kind: Unknown}
	}
	if e, found := kinds[kind]; found {
		return e
	}
	return kinds[Unknown]
}

// Lookup classifies the activity type and returns its entry.
func (c *Catalog) Lookup(category ecojourney.Category, activityType string) Entry {
	return c.Entry(category, c.Classify(category, activityType))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
