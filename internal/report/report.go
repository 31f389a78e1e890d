// Package report assembles daily reports and hands them to the persistence
// and narration collaborators.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/aggregate"
	"github.com/superdango/ecojourney/internal/reward"
)

// Aggregator sums resolved activities into a report.
type Aggregator interface {
	Aggregate(ctx context.Context, activities []ecojourney.Activity) (*ecojourney.Report, error)
}

type Assembler struct {
	aggregator Aggregator
	store      ecojourney.Store
	narrator   ecojourney.Narrator
	now        func() time.Time

	generated atomic.Int64
	failures  atomic.Int64
}

type Option func(a *Assembler)

func WithStore(store ecojourney.Store) Option {
	return func(a *Assembler) {
		a.store = store
	}
}

func WithNarrator(narrator ecojourney.Narrator) Option {
	return func(a *Assembler) {
		a.narrator = narrator
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func New(aggregator Aggregator, opts ...Option) *Assembler {
	a := &Assembler{
		aggregator: aggregator,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// NewDefault wires an assembler on the default aggregation pipeline.
func NewDefault(resolver aggregate.Resolver, opts ...Option) *Assembler {
	return New(aggregate.New(resolver), opts...)
}

// Assemble computes the report of activities, rewards included. The same
// activities always give the same report.
func (a *Assembler) Assemble(ctx context.Context, activities []ecojourney.Activity) (*ecojourney.Report, error) {
	report, err := a.aggregator.Aggregate(ctx, activities)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activities: %w", err)
	}

	reward.Apply(report, activities)

	return report, nil
}

// Result is a generated report along with what the collaborators produced.
type Result struct {
	Snapshot ecojourney.Snapshot
	// Narrative is nil when no narrator is configured or narration failed
	Narrative *ecojourney.Narrative
	// Balance is the point balance after the report points were credited
	Balance int
	// RemoteCalls is the number of requests sent to the estimation service
	RemoteCalls int
}

// Generate assembles the report, persists it, credits the earned points and
// narrates it. Collaborator failures are returned along with a valid result.
func (a *Assembler) Generate(ctx context.Context, userID string, day time.Time, activities []ecojourney.Activity) (*Result, error) {
	counted := ecojourney.WrapCtx(ctx)
	report, err := a.Assemble(counted, activities)
	if err != nil {
		a.failures.Add(1)
		return nil, err
	}
	a.generated.Add(1)

	result := &Result{
		RemoteCalls: counted.Calls(),
		Snapshot: ecojourney.Snapshot{
			ID:        uuid.NewString(),
			UserID:    userID,
			Day:       truncateDay(day),
			CreatedAt: a.now(),
			Report:    report,
		},
	}

	var errs []error

	if a.store != nil {
		if err := a.store.SaveReport(ctx, result.Snapshot); err != nil {
			slog.Error("failed to save report", "user_id", userID, "report_id", result.Snapshot.ID, "err", err.Error())
			errs = append(errs, fmt.Errorf("failed to save report: %w", err))
		} else if report.TotalPointsEarned > 0 {
			balance, err := a.store.AddPoints(ctx, userID, report.TotalPointsEarned)
			if err != nil {
				slog.Error("failed to credit points", "user_id", userID, "points", report.TotalPointsEarned, "err", err.Error())
				errs = append(errs, fmt.Errorf("failed to credit points: %w", err))
			}
			result.Balance = balance
		} else {
			balance, err := a.store.Points(ctx, userID)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to read points: %w", err))
			}
			result.Balance = balance
		}
	}

	if a.narrator != nil {
		narrative, err := a.narrator.Narrate(ctx, report)
		if err != nil {
			slog.Warn("failed to narrate report", "user_id", userID, "err", err.Error())
			errs = append(errs, fmt.Errorf("failed to narrate report: %w", err))
		} else {
			result.Narrative = &narrative
		}
	}

	slog.Info("report generated",
		"user_id", userID,
		"report_id", result.Snapshot.ID,
		"total_kgco2e", report.TotalEmission,
		"points", report.TotalPointsEarned,
		"calls", result.RemoteCalls)

	return result, errors.Join(errs...)
}

// Collect sends the report counters on metrics.
func (a *Assembler) Collect(metrics chan *ecojourney.Metric) {
	metrics <- &ecojourney.Metric{Name: "ecojourney_reports_generated_total", Value: float64(a.generated.Load())}
	metrics <- &ecojourney.Metric{Name: "ecojourney_reports_failed_total", Value: float64(a.failures.Load())}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
