package resolver_test

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/cache"
	"github.com/superdango/ecojourney/internal/climatiq"
	"github.com/superdango/ecojourney/internal/resolver"
)

// fakeEstimator answers from a per region table. Regions missing from the
// table answer not found, regions mapped to an error answer that error.
type fakeEstimator struct {
	mu      sync.Mutex
	answers map[string]any
	calls   []string
	noKey   bool
}

func (f *fakeEstimator) Authenticated() bool { return !f.noKey }

func (f *fakeEstimator) Estimate(ctx context.Context, req climatiq.Request) (climatiq.Estimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Region)

	switch answer := f.answers[req.Region].(type) {
	case float64:
		return climatiq.Estimate{Emissions: ecojourney.Emissions(answer), Unit: "kg", Region: req.Region}, nil
	case error:
		return climatiq.Estimate{}, answer
	}
	return climatiq.Estimate{}, fmt.Errorf("%s: %w", req, climatiq.ErrNotFound)
}

func (f *fakeEstimator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var aircon = resolver.Query{Category: ecojourney.CategoryElectricity, Type: "에어컨", Value: 6}

func TestRegionFallback(t *testing.T) {
	t.Run("primary answers", func(t *testing.T) {
		estimator := &fakeEstimator{answers: map[string]any{"US-MI": 3.0}}
		estimate := resolver.New(estimator).Resolve(t.Context(), aircon)

		assert.Equal(t, 1, estimator.callCount())
		assert.Equal(t, ecojourney.SourceRemotePrimary, estimate.Source)
		assert.Equal(t, 3.0, estimate.KgCO2e)
		assert.Equal(t, "US-MI", estimate.Region)
	})

	t.Run("fallback answers", func(t *testing.T) {
		estimator := &fakeEstimator{answers: map[string]any{"Global": 2.5}}
		estimate := resolver.New(estimator).Resolve(t.Context(), aircon)

		assert.Equal(t, []string{"US-MI", "Global"}, estimator.calls)
		assert.Equal(t, ecojourney.SourceRemoteFallback, estimate.Source)
		assert.Equal(t, 2.5, estimate.KgCO2e)
		assert.Equal(t, "Global", estimate.Region)
	})

	t.Run("nothing answers", func(t *testing.T) {
		estimator := &fakeEstimator{}
		estimate := resolver.New(estimator).Resolve(t.Context(), aircon)

		assert.Equal(t, 2, estimator.callCount())
		assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
		assert.InDelta(t, 2.868, estimate.KgCO2e, 1e-9)
	})

	t.Run("primary already global", func(t *testing.T) {
		estimator := &fakeEstimator{}
		estimate := resolver.New(estimator).Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryTransport, Type: "자동차", Value: 10})

		assert.Equal(t, 1, estimator.callCount())
		assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
		assert.InDelta(t, 1.92, estimate.KgCO2e, 1e-9)
	})

	t.Run("transport error skips fallback", func(t *testing.T) {
		estimator := &fakeEstimator{answers: map[string]any{
			"US-MI":  &ecojourney.RequestErr{Err: fmt.Errorf("connection refused"), Operation: "estimate"},
			"Global": 1.0,
		}}
		estimate := resolver.New(estimator).Resolve(t.Context(), aircon)

		assert.Equal(t, 1, estimator.callCount())
		assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
	})

	t.Run("no api key", func(t *testing.T) {
		estimator := &fakeEstimator{noKey: true, answers: map[string]any{"US-MI": 3.0}}
		r := resolver.New(estimator)
		estimate := r.Resolve(t.Context(), aircon)
		_ = r.Resolve(t.Context(), aircon)

		assert.Equal(t, 0, estimator.callCount())
		assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
		assert.Equal(t, 2, r.Count(ecojourney.CategoryElectricity, ecojourney.SourceLocalConstant))
	})
}

func TestZeroEmissionTransport(t *testing.T) {
	estimator := &fakeEstimator{answers: map[string]any{"Global": 5.0}}
	r := resolver.New(estimator)

	for _, activityType := range []string{"걷기", "자전거", "walk", "bike"} {
		estimate := r.Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryTransport, Type: activityType, Value: 10})
		assert.Equal(t, 0.0, estimate.KgCO2e)
		assert.Equal(t, ecojourney.SourceZeroEmission, estimate.Source)
	}

	assert.Equal(t, 0, estimator.callCount())
}

func TestBusIsAlwaysLocal(t *testing.T) {
	estimator := &fakeEstimator{answers: map[string]any{"Global": 5.0}}
	estimate := resolver.New(estimator).Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryTransport, Type: "버스", Value: 10})

	assert.Equal(t, 0, estimator.callCount())
	assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
	assert.InDelta(t, 0.89, estimate.KgCO2e, 1e-9)
}

func TestVintageClothing(t *testing.T) {
	r := resolver.New(nil)

	regular := r.Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryClothing, Type: "신발", Value: 1})
	vintage := r.Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryClothing, Type: "신발", Value: 1, Vintage: true})

	assert.InDelta(t, 10.8, regular.KgCO2e, 1e-9)
	assert.InDelta(t, 1.08, vintage.KgCO2e, 1e-9)
	assert.Equal(t, ecojourney.VintageSubCategory, vintage.Activity.SubCategory)
}

func TestInvalidValuesClampToZero(t *testing.T) {
	r := resolver.New(nil)

	for _, value := range []float64{math.NaN(), math.Inf(1), -4} {
		estimate := r.Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryFood, Type: "소고기", Value: value})
		assert.Equal(t, 0.0, estimate.KgCO2e)
	}

	unknown := r.Resolve(t.Context(), resolver.Query{Category: ecojourney.CategoryUnknown, Type: "?", Value: 3})
	assert.Equal(t, 0.0, unknown.KgCO2e)
	assert.Equal(t, ecojourney.SourceLocalConstant, unknown.Source)
	assert.NotEmpty(t, unknown.Method)
}

func TestServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := climatiq.NewClient(climatiq.WithBaseURL(server.URL), climatiq.WithAPIKey("secret"))
	r := resolver.New(client)

	queries := []resolver.Query{
		aircon,
		{Category: ecojourney.CategoryFood, Type: "소고기", Value: 0.3},
		{Category: ecojourney.CategoryWater, Type: "샤워", Value: 140},
		{Category: ecojourney.CategoryWaste, Type: "캔", Value: 0.15},
		{Category: ecojourney.CategoryClothing, Type: "상의", Value: 2},
		{Category: ecojourney.CategoryTransport, Type: "지하철", Value: 12},
	}

	for _, q := range queries {
		estimate := r.Resolve(t.Context(), q)
		assert.Equal(t, ecojourney.SourceLocalConstant, estimate.Source)
		assert.False(t, math.IsNaN(estimate.KgCO2e))
		assert.Greater(t, estimate.KgCO2e, 0.0)
	}
}

func TestRemoteTonnesAndCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"co2e": 1.0, "co2e_unit": "t"}`))
	}))
	defer server.Close()

	client := climatiq.NewClient(climatiq.WithBaseURL(server.URL), climatiq.WithAPIKey("secret"))
	r := resolver.New(client, resolver.WithCache(cache.NewMemory[climatiq.Estimate](t.Context(), time.Minute), time.Minute))

	ctx := ecojourney.WrapCtx(t.Context())
	first := r.Resolve(ctx, aircon)
	second := r.Resolve(ctx, aircon)

	assert.Equal(t, 1000.0, first.KgCO2e)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, ctx.Calls())
}

func TestCollect(t *testing.T) {
	r := resolver.New(nil)
	r.Resolve(t.Context(), aircon)

	metrics := make(chan *ecojourney.Metric, 100)
	r.Collect(metrics)
	close(metrics)

	collected := 0
	for m := range metrics {
		collected++
		assert.Equal(t, "ecojourney_estimates_total", m.Name)
		if m.Labels["category"] == string(ecojourney.CategoryElectricity) && m.Labels["source"] == string(ecojourney.SourceLocalConstant) {
			assert.Equal(t, 1.0, m.Value)
		} else {
			assert.Equal(t, 0.0, m.Value)
		}
	}
	assert.Equal(t, len(ecojourney.Categories)*len(ecojourney.Sources), collected)
}

func TestCollectCacheEntries(t *testing.T) {
	r := resolver.New(nil, resolver.WithCache(cache.NewMemory[climatiq.Estimate](t.Context(), time.Minute), time.Minute))

	metrics := make(chan *ecojourney.Metric, 100)
	r.Collect(metrics)
	close(metrics)

	var last *ecojourney.Metric
	for m := range metrics {
		last = m
	}
	require.NotNil(t, last)
	assert.Equal(t, &ecojourney.Metric{Name: "ecojourney_cache_entries", Value: 0}, last)
}
