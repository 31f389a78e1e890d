package narrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdango/ecojourney"
)

func report() *ecojourney.Report {
	return &ecojourney.Report{
		TotalEmission: 8.268,
		CategoryBreakdown: map[ecojourney.Category]ecojourney.CategoryShare{
			ecojourney.CategoryFood:        {Emission: 5.4, Percentage: 65.3},
			ecojourney.CategoryElectricity: {Emission: 2.868, Percentage: 34.7},
			ecojourney.CategoryTransport:   {},
		},
		TotalSavedEmission: 1.92,
		SavedMoney:         1500,
		Comparison:         ecojourney.Comparison{User: 8.268, Baseline: 32, PercentDifference: 74.2, IsBetter: true},
	}
}

func TestNarrate(t *testing.T) {
	narrative, err := New().Narrate(t.Context(), report())
	require.NoError(t, err)

	assert.Contains(t, narrative.Analysis, "8.27 kgCO2e")
	assert.Contains(t, narrative.Analysis, "적게")
	assert.Contains(t, narrative.Analysis, "식품")
	assert.Contains(t, narrative.Analysis, "1,500원")

	assert.Equal(t, []string{
		suggestions[ecojourney.CategoryFood][0],
		suggestions[ecojourney.CategoryElectricity][0],
		suggestions[ecojourney.CategoryFood][1],
	}, narrative.Suggestions)
}

func TestNarrateMaxSuggestions(t *testing.T) {
	narrative, err := New(WithMaxSuggestions(1)).Narrate(t.Context(), report())
	require.NoError(t, err)
	assert.Len(t, narrative.Suggestions, 1)
}

func TestNarrateEmpty(t *testing.T) {
	narrative, err := New().Narrate(t.Context(), &ecojourney.Report{Comparison: ecojourney.Comparison{Baseline: 32, IsBetter: true, PercentDifference: 100}})
	require.NoError(t, err)
	assert.NotEmpty(t, narrative.Analysis)
	assert.Empty(t, narrative.Suggestions)
}

func TestNarrateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().Narrate(ctx, report())
	assert.ErrorIs(t, err, context.Canceled)
}
