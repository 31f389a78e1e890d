package ecojourney

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	m := Metric{
		Name: "foo",
		Labels: map[string]string{
			"activity.source":    "local-constant",
			"remote:region/name": "US-MI",
			"category-name":      "",
		},
		Value: 1.0,
	}

	assert.Equal(t, map[string]string{
		"activity_source":    "local-constant",
		"remote_region_name": "US-MI",
		"category_name":      "",
	}, m.SanitizeLabels().Labels)
}

func TestWriteMetrics(t *testing.T) {
	metrics := make(chan *Metric, 3)
	metrics <- &Metric{Name: "ecojourney_estimates_total", Labels: map[string]string{"source": "local-constant", "category": "water"}, Value: 2}
	metrics <- nil
	metrics <- &Metric{Name: "ecojourney_remote_calls_total", Value: 1}
	close(metrics)

	buf := new(bytes.Buffer)
	err := WriteMetrics(t.Context(), buf, metrics)
	assert.NoError(t, err)
	assert.Equal(t,
		"ecojourney_estimates_total{category=\"water\",source=\"local-constant\"} 2.0000000000\n"+
			"ecojourney_remote_calls_total{} 1.0000000000\n",
		buf.String())
}

func TestWrapCtx(t *testing.T) {
	ctx := WrapCtx(t.Context())
	ctx.IncrCalls()
	IncrCalls(ctx)
	assert.Equal(t, 2, ctx.Calls())
	assert.Same(t, ctx, WrapCtx(ctx))

	derived, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	IncrCalls(derived)
	assert.Equal(t, 3, ctx.Calls())

	// not wrapped, nothing to count
	IncrCalls(t.Context())
}
