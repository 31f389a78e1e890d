package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/model/catalog"
	"github.com/superdango/ecojourney/model/convert"
)

func TestConvert(t *testing.T) {
	c := convert.New(catalog.Default())

	testCases := []struct {
		name         string
		category     ecojourney.Category
		activityType string
		value        float64
		unit         string
		expected     float64
		expectedUnit string
	}{
		{"aircon hours", ecojourney.CategoryElectricity, "에어컨", 3, "시간", 6, "kWh"},
		{"heater hours", ecojourney.CategoryElectricity, "히터", 2, "h", 3, "kWh"},
		{"kwh passthrough", ecojourney.CategoryElectricity, "에어컨", 5, "kWh", 5, "kWh"},
		{"bus minutes", ecojourney.CategoryTransport, "버스", 60, "분", 25, "km"},
		{"bike minutes", ecojourney.CategoryTransport, "자전거", 40, "min", 10, "km"},
		{"km passthrough", ecojourney.CategoryTransport, "자동차", 12, "km", 12, "km"},
		{"unknown vehicle minutes", ecojourney.CategoryTransport, "우주선", 30, "분", 0, "km"},
		{"shower count", ecojourney.CategoryWater, "샤워", 2, "회", 140, "L"},
		{"liters passthrough", ecojourney.CategoryWater, "세탁", 80, "L", 80, "L"},
		{"can count", ecojourney.CategoryWaste, "캔", 10, "개", 0.15, "kg"},
		{"bottle count", ecojourney.CategoryWaste, "병", 2, "개", 0.8, "kg"},
		{"waste grams", ecojourney.CategoryWaste, "플라스틱", 500, "g", 0.5, "kg"},
		{"food grams", ecojourney.CategoryFood, "소고기", 300, "g", 0.3, "kg"},
		{"food passthrough", ecojourney.CategoryFood, "소고기", 0.3, "kg", 0.3, "kg"},
		{"beef servings", ecojourney.CategoryFood, "소고기", 1, "회", 0.2, "kg"},
		{"pork servings", ecojourney.CategoryFood, "돼지고기", 2, "인분", 0.3, "kg"},
		{"coffee cups", ecojourney.CategoryFood, "커피", 2, "잔", 0.03, "kg"},
		{"unknown food servings", ecojourney.CategoryFood, "두부", 1, "회", convert.DefaultServingWeight, "kg"},
		{"clothing passthrough", ecojourney.CategoryClothing, "상의", 2, "개", 2, "count"},
		{"unknown unit", ecojourney.CategoryElectricity, "에어컨", 3, "fortnight", 0, "kWh"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, unit := c.Convert(tc.category, tc.activityType, tc.value, tc.unit)
			assert.InDelta(t, tc.expected, value, 1e-9)
			assert.Equal(t, tc.expectedUnit, unit)
		})
	}
}

func TestConvertActivityReturnsCopy(t *testing.T) {
	c := convert.New(catalog.Default())

	raw := ecojourney.Activity{Category: ecojourney.CategoryElectricity, Type: "에어컨", Value: 3, Unit: "시간"}
	converted := c.Activity(raw)

	assert.False(t, raw.Converted())
	assert.True(t, converted.Converted())
	assert.InDelta(t, 6.0, converted.Quantity(), 1e-9)
	assert.Equal(t, 3.0, converted.Value)
}
