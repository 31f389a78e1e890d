package ecojourney_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/superdango/ecojourney"
)

func TestParseCategory(t *testing.T) {
	assert.Equal(t, ecojourney.CategoryElectricity, ecojourney.ParseCategory("전기"))
	assert.Equal(t, ecojourney.CategoryTransport, ecojourney.ParseCategory("교통"))
	assert.Equal(t, ecojourney.CategoryWaste, ecojourney.ParseCategory(" Waste "))
	assert.Equal(t, ecojourney.CategoryUnknown, ecojourney.ParseCategory("기타"))
	assert.Equal(t, ecojourney.CategoryUnknown, ecojourney.ParseCategory("unknown"))
	assert.Equal(t, "의류", ecojourney.CategoryClothing.Label())
	assert.False(t, ecojourney.CategoryUnknown.Known())
	assert.True(t, ecojourney.CategoryWater.Known())
}

func TestActivityVintage(t *testing.T) {
	a := ecojourney.Activity{Category: ecojourney.CategoryClothing, SubCategory: "빈티지"}
	assert.True(t, a.Vintage())

	a.SubCategory = "Vintage"
	assert.True(t, a.Vintage())

	a.Category = ecojourney.CategoryFood
	assert.False(t, a.Vintage())
}

func TestActivityQuantity(t *testing.T) {
	a := ecojourney.Activity{Value: 3}
	assert.Equal(t, 3.0, a.Quantity())

	a.ConvertedValue = 6
	a.StandardUnit = "kWh"
	assert.Equal(t, 6.0, a.Quantity())
}
