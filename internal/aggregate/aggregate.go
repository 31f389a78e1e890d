// Package aggregate resolves a day of activities and sums them into a report.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/model/catalog"
	"github.com/superdango/ecojourney/model/convert"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

const (
	// DailyBaseline is the national average footprint in kgCO2e per day.
	DailyBaseline = 32.0
	// WonPerKg prices one kilogram of avoided car emission in KRW: 150 KRW/km
	// of driving divided by the car factor.
	WonPerKg = 150 / catalog.VehicleFactor
	// DefaultConcurrency bounds the resolutions running at once.
	DefaultConcurrency = 5
)

// Resolver estimates a converted activity.
type Resolver interface {
	ResolveActivity(ctx context.Context, a ecojourney.Activity) ecojourney.EmissionEstimate
}

type Aggregator struct {
	resolver    Resolver
	converter   *convert.Converter
	concurrency int
	baseline    float64
}

type Option func(a *Aggregator)

func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithBaseline(kgCO2e float64) Option {
	return func(a *Aggregator) {
		a.baseline = kgCO2e
	}
}

func WithConverter(c *convert.Converter) Option {
	return func(a *Aggregator) {
		a.converter = c
	}
}

func New(resolver Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		resolver:    resolver,
		concurrency: DefaultConcurrency,
		baseline:    DailyBaseline,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.converter == nil {
		a.converter = convert.New(catalog.Default())
	}

	return a
}

// Aggregate builds a report without rewards. Estimates keep the order of
// activities. A cancelled context discards the whole run.
func (a *Aggregator) Aggregate(ctx context.Context, activities []ecojourney.Activity) (*ecojourney.Report, error) {
	estimates := make([]ecojourney.EmissionEstimate, len(activities))

	errg, errgctx := errgroup.WithContext(ctx)
	errg.SetLimit(a.concurrency)

	for i, activity := range activities {
		errg.Go(func() error {
			if err := errgctx.Err(); err != nil {
				return err
			}
			estimates[i] = a.resolver.ResolveActivity(errgctx, a.converter.Activity(activity))
			return nil
		})
	}

	if err := errg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve activities: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregation cancelled: %w", err)
	}

	report := Summarize(estimates, a.baseline)

	slog.Debug("activities aggregated",
		"activities", len(activities),
		"total_kgco2e", report.TotalEmission,
		"saved_kgco2e", report.TotalSavedEmission)

	return report, nil
}

// Summarize computes totals, the category breakdown, savings and the baseline
// comparison of resolved estimates.
func Summarize(estimates []ecojourney.EmissionEstimate, baseline float64) *ecojourney.Report {
	values := make([]float64, len(estimates))
	byCategory := make(map[ecojourney.Category][]float64)
	for i, estimate := range estimates {
		values[i] = estimate.KgCO2e
		byCategory[estimate.Activity.Category] = append(byCategory[estimate.Activity.Category], estimate.KgCO2e)
	}

	report := &ecojourney.Report{
		Estimates:         estimates,
		TotalEmission:     floats.Sum(values),
		CategoryBreakdown: breakdown(byCategory),
		PointsBreakdown:   make(map[string]int),
		SavingsDetails:    savings(estimates),
	}

	saved := make([]float64, len(report.SavingsDetails))
	for i, detail := range report.SavingsDetails {
		saved[i] = detail.SavedEmission
	}
	report.TotalSavedEmission = floats.Sum(saved)
	report.SavedMoney = math.Round(report.TotalSavedEmission * WonPerKg)
	report.Comparison = Compare(report.TotalEmission, baseline)

	return report
}

func breakdown(byCategory map[ecojourney.Category][]float64) map[ecojourney.Category]ecojourney.CategoryShare {
	shares := make(map[ecojourney.Category]ecojourney.CategoryShare, len(ecojourney.Categories))
	for _, category := range ecojourney.Categories {
		shares[category] = ecojourney.CategoryShare{}
	}

	categories := slices.Sorted(maps.Keys(byCategory))
	emissions := make([]float64, len(categories))
	for i, category := range categories {
		emissions[i] = floats.Sum(byCategory[category])
	}

	total := floats.Sum(emissions)
	percentages := make([]float64, len(emissions))
	if total > 0 {
		copy(percentages, emissions)
		floats.Scale(100/total, percentages)
	}

	for i, category := range categories {
		shares[category] = ecojourney.CategoryShare{
			Emission:   emissions[i],
			Percentage: percentages[i],
		}
	}

	return shares
}

func savings(estimates []ecojourney.EmissionEstimate) []ecojourney.SavingsDetail {
	details := make([]ecojourney.SavingsDetail, 0)
	for _, estimate := range estimates {
		if estimate.Source != ecojourney.SourceZeroEmission || estimate.Activity.Category != ecojourney.CategoryTransport {
			continue
		}

		distance := estimate.Activity.Quantity()
		if distance <= 0 {
			continue
		}

		saved := distance * catalog.VehicleFactor
		details = append(details, ecojourney.SavingsDetail{
			ActivityType:  estimate.Activity.Type,
			Distance:      distance,
			SavedEmission: saved,
			SavedMoney:    math.Round(saved * WonPerKg),
		})
	}
	return details
}

// Compare positions a daily total against the baseline.
func Compare(total, baseline float64) ecojourney.Comparison {
	c := ecojourney.Comparison{
		User:       total,
		Baseline:   baseline,
		Difference: total - baseline,
		IsBetter:   total < baseline,
	}
	c.AbsDifference = math.Abs(c.Difference)
	if baseline > 0 {
		c.PercentDifference = c.AbsDifference / baseline * 100
	}
	return c
}
