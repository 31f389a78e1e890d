package ecojourney

import (
	"time"
)

// Source tells which resolution tier produced an estimate.
type Source string

const (
	SourceRemotePrimary  Source = "remote-primary-region"
	SourceRemoteFallback Source = "remote-fallback-region"
	SourceLocalConstant  Source = "local-constant"
	SourceZeroEmission   Source = "zero-emission"
)

// Sources lists every resolution source.
var Sources = []Source{SourceRemotePrimary, SourceRemoteFallback, SourceLocalConstant, SourceZeroEmission}

// EmissionEstimate is the resolved footprint of a single activity.
type EmissionEstimate struct {
	Activity Activity
	// KgCO2e is always finite and positive or zero
	KgCO2e float64
	Source Source
	// Method describes the calculation, e.g. "6.00 kWh × 0.478 kgCO2e/kWh"
	Method string
	// Region is the remote region which answered, empty for local estimates
	Region string
}

type CategoryShare struct {
	Emission   float64
	Percentage float64
}

type SavingsDetail struct {
	ActivityType  string
	Distance      float64
	SavedEmission float64
	SavedMoney    float64
}

// Comparison holds the user total against the national daily baseline.
type Comparison struct {
	User     float64
	Baseline float64
	// Difference is User - Baseline
	Difference        float64
	AbsDifference     float64
	PercentDifference float64
	IsBetter          bool
}

// Report is the result of one aggregation run. It holds no time dependent value
// so that it can be derived again from the same activities.
type Report struct {
	Estimates          []EmissionEstimate
	TotalEmission      float64
	CategoryBreakdown  map[Category]CategoryShare
	TotalSavedEmission float64
	SavedMoney         float64
	SavingsDetails     []SavingsDetail
	PointsBreakdown    map[string]int
	TotalPointsEarned  int
	Comparison         Comparison
}

// Snapshot is a persisted report.
type Snapshot struct {
	ID        string
	UserID    string
	Day       time.Time
	CreatedAt time.Time
	Report    *Report
}

// Narrative is the prose produced from a report by a text generator.
type Narrative struct {
	Analysis    string
	Suggestions []string
}
