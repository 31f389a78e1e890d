// Package resolver turns a standardized activity into an emission estimate.
// The remote estimation service is tried in the primary region of the
// activity, then in the fallback region, then the local factor table is used.
// Resolution never fails.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/cache"
	"github.com/superdango/ecojourney/internal/climatiq"
	"github.com/superdango/ecojourney/model/catalog"
)

// VintageFactor scales the footprint of reused clothing.
const VintageFactor = 0.1

// Estimator is the remote estimation service.
type Estimator interface {
	Authenticated() bool
	Estimate(ctx context.Context, req climatiq.Request) (climatiq.Estimate, error)
}

// Query is a standardized activity to resolve.
type Query struct {
	Category ecojourney.Category
	Type     string
	// Value is expressed in the standard unit of the category
	Value   float64
	Vintage bool
}

// QueryOf builds the query of a converted activity.
func QueryOf(a ecojourney.Activity) Query {
	return Query{
		Category: a.Category,
		Type:     a.Type,
		Value:    a.Quantity(),
		Vintage:  a.Vintage(),
	}
}

type state int

const (
	zeroCheck state = iota
	tryingPrimaryRegion
	tryingFallbackRegion
	usingLocalConstant
)

func (s state) String() string {
	switch s {
	case zeroCheck:
		return "zero-check"
	case tryingPrimaryRegion:
		return "trying-primary-region"
	case tryingFallbackRegion:
		return "trying-fallback-region"
	default:
		return "using-local-constant"
	}
}

type Resolver struct {
	estimator      Estimator
	catalog        *catalog.Catalog
	fallbackRegion string
	cache          *cache.Memory[climatiq.Estimate]
	cacheTTL       time.Duration

	missingKey sync.Once
	stats      *stats
}

type Option func(r *Resolver)

// WithFallbackRegion sets the region retried when the primary region has no
// emission factor. Defaults to Global.
func WithFallbackRegion(region string) Option {
	return func(r *Resolver) {
		r.fallbackRegion = region
	}
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Resolver) {
		r.catalog = c
	}
}

// WithCache keeps successful remote answers for ttl.
func WithCache(c *cache.Memory[climatiq.Estimate], ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// New creates a resolver. A nil estimator resolves everything locally.
func New(estimator Estimator, opts ...Option) *Resolver {
	r := &Resolver{
		estimator:      estimator,
		fallbackRegion: catalog.GlobalRegion,
		stats:          newStats(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.catalog == nil {
		r.catalog = catalog.Default()
	}

	return r
}

func (r *Resolver) remoteEnabled() bool {
	if r.estimator != nil && r.estimator.Authenticated() {
		return true
	}

	r.missingKey.Do(func() {
		slog.Warn("no api key configured for the estimation service, using local emission factors")
	})

	return false
}

// Resolve estimates the emission of the query. The result is always finite
// and positive or zero.
func (r *Resolver) Resolve(ctx context.Context, q Query) ecojourney.EmissionEstimate {
	entry := r.catalog.Lookup(q.Category, q.Type)
	quantity := float64(ecojourney.Emissions(q.Value).Sanitize())

	activity := ecojourney.Activity{
		Category:       q.Category,
		Type:           q.Type,
		Value:          q.Value,
		ConvertedValue: quantity,
		StandardUnit:   entry.FactorUnit,
	}
	if q.Vintage {
		activity.SubCategory = ecojourney.VintageSubCategory
	}

	estimate := r.resolve(ctx, entry, quantity)
	estimate.Activity = activity

	if q.Vintage && q.Category == ecojourney.CategoryClothing {
		estimate.KgCO2e *= VintageFactor
		estimate.Method = fmt.Sprintf("%s × %.1f (vintage)", estimate.Method, VintageFactor)
	}

	estimate.KgCO2e = float64(ecojourney.Emissions(estimate.KgCO2e).Sanitize())
	r.stats.record(q.Category, estimate.Source)

	return estimate
}

// ResolveActivity resolves a converted activity and keeps it on the estimate.
func (r *Resolver) ResolveActivity(ctx context.Context, a ecojourney.Activity) ecojourney.EmissionEstimate {
	estimate := r.Resolve(ctx, QueryOf(a))
	estimate.Activity = a
	return estimate
}

func (r *Resolver) resolve(ctx context.Context, entry catalog.Entry, quantity float64) ecojourney.EmissionEstimate {
	var req climatiq.Request

	current := zeroCheck
	for {
		switch current {
		case zeroCheck:
			if entry.ZeroEmission {
				return ecojourney.EmissionEstimate{
					Source: ecojourney.SourceZeroEmission,
					Method: fmt.Sprintf("%s emits no CO2e", entry.Kind),
				}
			}

			if entry.Remote == nil || quantity == 0 || !r.remoteEnabled() {
				current = usingLocalConstant
				continue
			}

			req = climatiq.Request{
				ActivityID: entry.Remote.ActivityID,
				Region:     entry.Remote.Region,
				Source:     entry.Remote.Source,
				Parameter:  entry.Remote.Parameter,
				Quantity:   entry.Weight(quantity),
			}
			current = tryingPrimaryRegion

		case tryingPrimaryRegion, tryingFallbackRegion:
			if current == tryingFallbackRegion {
				req.Region = r.fallbackRegion
			}

			answer, err := r.estimate(ctx, req)
			if err == nil {
				source := ecojourney.SourceRemotePrimary
				if current == tryingFallbackRegion {
					source = ecojourney.SourceRemoteFallback
				}
				return ecojourney.EmissionEstimate{
					KgCO2e: answer.Emissions.KgCO2e(),
					Source: source,
					Method: fmt.Sprintf("%.2f %s via %s", req.Quantity, req.Parameter.Unit(), req.ActivityID),
					Region: answer.Region,
				}
			}

			slog.Warn("remote estimation failed",
				"activity_id", req.ActivityID,
				"region", req.Region,
				"activity", entry.String(),
				"state", current.String(),
				"err", err.Error())

			if current == tryingPrimaryRegion && errors.Is(err, climatiq.ErrNotFound) && req.Region != r.fallbackRegion {
				current = tryingFallbackRegion
				continue
			}
			current = usingLocalConstant

		case usingLocalConstant:
			return ecojourney.EmissionEstimate{
				KgCO2e: entry.Local(quantity),
				Source: ecojourney.SourceLocalConstant,
				Method: localMethod(entry, quantity),
			}
		}
	}
}

func (r *Resolver) estimate(ctx context.Context, req climatiq.Request) (climatiq.Estimate, error) {
	if r.cache == nil {
		return r.estimator.Estimate(ctx, req)
	}

	key := fmt.Sprintf("%s/%s/%s/%s/%g", req.ActivityID, req.Region, req.Source, req.Parameter, req.Quantity)
	return r.cache.GetOrSet(ctx, key, func(ctx context.Context) (climatiq.Estimate, error) {
		return r.estimator.Estimate(ctx, req)
	}, r.cacheTTL)
}

func localMethod(entry catalog.Entry, quantity float64) string {
	if entry.Category == ecojourney.CategoryUnknown {
		return "unknown category emits no CO2e"
	}
	if entry.UnitWeightKg > 0 {
		return fmt.Sprintf("%s × %.2f kg × %g kgCO2e/kg", formatQuantity(quantity), entry.UnitWeightKg, entry.Factor)
	}
	return fmt.Sprintf("%s %s × %g kgCO2e/%s", formatQuantity(quantity), entry.FactorUnit, entry.Factor, entry.FactorUnit)
}

func formatQuantity(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
