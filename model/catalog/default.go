package catalog

import (
	"github.com/superdango/ecojourney"
)

const (
	carActivityID         = "passenger_vehicle-vehicle_type_automobile-fuel_source_na-distance_na-engine_size_na"
	subwayActivityID      = "passenger_train-route_subway-fuel_source_na"
	electricityActivityID = "electricity-supply_grid-source_residual_mix-supplier_cms_energy_consumers_energy"
	cottonShirtActivityID = "consumer_goods-type_cotton_t_shirt"
	cottonActivityID      = "consumer_goods-type_cotton_clothing"
	footwearActivityID    = "consumer_goods-type_footwear"
	recyclingActivityID   = "waste_management-type_incineration_plastics_in_municipal_solid_waste_plant_incl_credits-disposal_method_combustion"
	landfillActivityID    = "fuel-type_waste_solid_municipal-fuel_use_na"
	tapWaterActivityID    = "water_supply-type_tap_water_at_user"

	GlobalRegion = "Global"
)

// VehicleFactor is the kgCO2e/km of a generic passenger car. It prices the
// emission avoided by walking or cycling.
const VehicleFactor = 0.192

func food(kind Kind, activityID string, factor float64, aliases ...string) Entry {
	return Entry{
		Category:   ecojourney.CategoryFood,
		Kind:       kind,
		Aliases:    aliases,
		Factor:     factor,
		FactorUnit: "kg",
		Remote:     &Remote{ActivityID: activityID, Region: GlobalRegion, Source: "exiobase", Parameter: Weight},
	}
}

func clothing(kind Kind, weight float64, remote *Remote, aliases ...string) Entry {
	return Entry{
		Category:     ecojourney.CategoryClothing,
		Kind:         kind,
		Aliases:      aliases,
		Factor:       12,
		FactorUnit:   "kg",
		UnitWeightKg: weight,
		Remote:       remote,
	}
}

func waste(kind Kind, remote *Remote, aliases ...string) Entry {
	return Entry{
		Category:   ecojourney.CategoryWaste,
		Kind:       kind,
		Aliases:    aliases,
		Factor:     0.5,
		FactorUnit: "kg",
		Remote:     remote,
	}
}

func water(kind Kind, aliases ...string) Entry {
	return Entry{
		Category:   ecojourney.CategoryWater,
		Kind:       kind,
		Aliases:    aliases,
		Factor:     0.0003,
		FactorUnit: "L",
		Remote:     &Remote{ActivityID: tapWaterActivityID, Region: "AU", Parameter: Weight},
	}
}

func electricity(kind Kind, aliases ...string) Entry {
	return Entry{
		Category:   ecojourney.CategoryElectricity,
		Kind:       kind,
		Aliases:    aliases,
		Factor:     0.478,
		FactorUnit: "kWh",
		Remote:     &Remote{ActivityID: electricityActivityID, Region: "US-MI", Parameter: Energy},
	}
}

// Default returns the catalog of every supported activity.
func Default() *Catalog {
	recycling := &Remote{ActivityID: recyclingActivityID, Region: "DE", Parameter: Weight}
	landfill := &Remote{ActivityID: landfillActivityID, Region: "AU", Parameter: Weight}
	cotton := &Remote{ActivityID: cottonActivityID, Region: "CN", Parameter: Weight}

	return New(
		// transport, per km
		Entry{Category: ecojourney.CategoryTransport, Kind: Car, Aliases: []string{"자동차", "차", "승용차", "택시", "taxi"}, Factor: VehicleFactor, FactorUnit: "km",
			Remote: &Remote{ActivityID: carActivityID, Region: GlobalRegion, Parameter: Distance}},
		Entry{Category: ecojourney.CategoryTransport, Kind: Bus, Aliases: []string{"버스"}, Factor: 0.089, FactorUnit: "km"},
		Entry{Category: ecojourney.CategoryTransport, Kind: Subway, Aliases: []string{"지하철", "전철", "metro"}, Factor: 0.014, FactorUnit: "km",
			Remote: &Remote{ActivityID: subwayActivityID, Region: GlobalRegion, Parameter: Distance}},
		Entry{Category: ecojourney.CategoryTransport, Kind: Walk, Aliases: []string{"걷기", "도보", "walking"}, FactorUnit: "km", ZeroEmission: true},
		Entry{Category: ecojourney.CategoryTransport, Kind: Bike, Aliases: []string{"자전거", "bicycle", "cycling"}, FactorUnit: "km", ZeroEmission: true},
		Entry{Category: ecojourney.CategoryTransport, Kind: Unknown, Factor: VehicleFactor, FactorUnit: "km",
			Remote: &Remote{ActivityID: carActivityID, Region: GlobalRegion, Parameter: Distance}},

		// electricity, per kWh
		electricity(AirConditioner, "에어컨", "냉방기", "냉방기(에어컨)", "aircon"),
		electricity(Heater, "히터", "난방기", "난방기(히터)"),
		electricity(Unknown),

		// food, per kg
		food(Beef, "consumer_goods-type_meat_products_beef", 27, "소고기", "고기류"),
		food(Pork, "food-type_pork", 7, "돼지고기"),
		food(Chicken, "consumer_goods-type_meat_products_poultry", 6.9, "닭고기"),
		food(Coffee, "consumer_goods-type_beverages_coffee_green_bean", 17, "커피", "아메리카노", "카페라떼"),
		food(Rice, "consumer_goods-type_cereals_rice", 4, "쌀", "채소류", "양파", "파", "마늘"),
		food(RiceBowl, "consumer_goods-type_processed_rice", 4, "쌀밥", "밥"),
		food(Unknown, "consumer_goods-type_meat_products_beef", 27),

		// clothing, per item through the estimated garment weight
		clothing(Top, 0.2, &Remote{ActivityID: cottonShirtActivityID, Region: "CN", Parameter: Weight}, "상의", "티셔츠", "셔츠", "t-shirt"),
		clothing(Bottom, 0.6, cotton, "하의", "청바지", "바지", "jeans"),
		clothing(Shoes, 0.9, &Remote{ActivityID: footwearActivityID, Region: GlobalRegion, Parameter: Weight}, "신발", "운동화"),
		clothing(Bag, 0.5, cotton, "가방", "잡화", "가방/잡화"),
		clothing(Unknown, 0.5, cotton),

		// water, per liter, sent as 1 kg per liter
		water(Shower, "샤워"),
		water(Dishwashing, "설거지"),
		water(Laundry, "세탁", "빨래"),
		water(Unknown),

		// waste, per kg
		waste(GeneralWaste, landfill, "일반", "일반쓰레기"),
		waste(Plastic, recycling, "플라스틱", "재활용"),
		waste(Paper, recycling, "종이"),
		waste(Glass, recycling, "유리"),
		waste(Can, recycling, "캔"),
		waste(Bottle, recycling, "병", "페트병"),
		waste(Unknown, landfill),
	)
}
