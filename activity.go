package ecojourney

import (
	"strings"
)

// Category groups logged activities. The set is closed; anything that cannot be
// parsed is CategoryUnknown.
type Category string

const (
	CategoryTransport   Category = "transport"
	CategoryFood        Category = "food"
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategoryClothing    Category = "clothing"
	CategoryWaste       Category = "waste"
	CategoryUnknown     Category = "unknown"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryTransport,
	CategoryFood,
	CategoryClothing,
	CategoryElectricity,
	CategoryWater,
	CategoryWaste,
}

var categoryLabels = map[Category]string{
	CategoryTransport:   "교통",
	CategoryFood:        "식품",
	CategoryElectricity: "전기",
	CategoryWater:       "물",
	CategoryClothing:    "의류",
	CategoryWaste:       "쓰레기",
	CategoryUnknown:     "기타",
}

// ParseCategory accepts english keys as well as the korean labels used by the
// input forms.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	for category, label := range categoryLabels {
		if category == CategoryUnknown {
			continue
		}
		if s == string(category) || s == label {
			return category
		}
	}
	return CategoryUnknown
}

// Label returns the korean display name of the category.
func (c Category) Label() string {
	if label, found := categoryLabels[c]; found {
		return label
	}
	return categoryLabels[CategoryUnknown]
}

func (c Category) Known() bool {
	_, found := categoryLabels[c]
	return found && c != CategoryUnknown
}

// VintageSubCategory flags reused or second hand clothing.
const VintageSubCategory = "빈티지"

// Activity is one logged entry. Activities are values: conversion returns a
// copy with ConvertedValue and StandardUnit set.
type Activity struct {
	Category       Category
	Type           string
	Value          float64
	Unit           string
	ConvertedValue float64
	StandardUnit   string
	SubCategory    string
}

// Vintage reports whether the activity is a reused clothing item.
func (a Activity) Vintage() bool {
	if a.Category != CategoryClothing {
		return false
	}
	sub := strings.ToLower(strings.TrimSpace(a.SubCategory))
	return sub == VintageSubCategory || sub == "vintage"
}

// Converted reports whether a standardized value has been computed.
func (a Activity) Converted() bool {
	return a.StandardUnit != ""
}

// Quantity returns the standardized value when available, the raw value otherwise.
func (a Activity) Quantity() float64 {
	if a.Converted() {
		return a.ConvertedValue
	}
	return a.Value
}
