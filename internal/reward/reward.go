// Package reward derives the points earned by a daily report.
package reward

import (
	"math"

	"github.com/superdango/ecojourney"
)

// Reasons of the points breakdown.
const (
	BelowAverage = "평균 대비"
	Vintage      = "빈티지"
	Savings      = "절약량"
)

const (
	BelowAveragePoints = 50
	PointsPerVintage   = 10
	PointsPerSavedKg   = 10
)

// Compute returns the points earned per reason and their total. Bonuses are
// independent and add up. Reasons worth no point are omitted.
func Compute(report *ecojourney.Report, activities []ecojourney.Activity) (map[string]int, int) {
	breakdown := make(map[string]int)

	if report != nil && report.Comparison.Baseline > 0 && report.TotalEmission < report.Comparison.Baseline {
		breakdown[BelowAverage] = BelowAveragePoints
	}

	vintage := 0
	for _, activity := range activities {
		if !activity.Vintage() || !(activity.Value > 0) || math.IsInf(activity.Value, 0) {
			continue
		}
		vintage += PointsPerVintage * int(activity.Value)
	}
	if vintage > 0 {
		breakdown[Vintage] = vintage
	}

	if report != nil && report.TotalSavedEmission > 0 {
		if saved := int(math.Floor(report.TotalSavedEmission * PointsPerSavedKg)); saved > 0 {
			breakdown[Savings] = saved
		}
	}

	total := 0
	for _, points := range breakdown {
		total += points
	}

	return breakdown, total
}

// Apply fills the reward fields of the report.
func Apply(report *ecojourney.Report, activities []ecojourney.Activity) {
	report.PointsBreakdown, report.TotalPointsEarned = Compute(report, activities)
}
