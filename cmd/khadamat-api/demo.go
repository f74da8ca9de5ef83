package main

import (
	"github.com/shopspring/decimal"

	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

func demoServices() []pricing.ServiceRecord {
	return []pricing.ServiceRecord{
		{ID: "svc_cleaning", BasePrice: decimal.NewFromInt(150), DurationMinutes: 120},
		{ID: "svc_plumbing", BasePrice: decimal.NewFromInt(200), DurationMinutes: 60,
			AllowedFormulas: []pricing.Formula{pricing.FormulaStandard, pricing.FormulaUrgent, pricing.FormulaNight}},
		{ID: "svc_gardening", BasePrice: decimal.NewFromInt(120), DurationMinutes: 180},
	}
}

func demoProviders() []matching.Provider {
	radius := func(v float64) *float64 { return &v }
	return []matching.Provider{
		{ID: "prv_001", Position: types.Point{Lat: 33.5890, Lng: -7.6030}, IsAvailable: true, Rating: 4.8,
			ServiceIDs: []types.ID{"svc_cleaning", "svc_gardening"}},
		{ID: "prv_002", Position: types.Point{Lat: 33.5333, Lng: -7.5833}, IsAvailable: true, Rating: 4.5,
			FreeRadiusKm: radius(15), PricePerExtraKm: radius(4), ServiceIDs: []types.ID{"svc_cleaning", "svc_plumbing"}},
		{ID: "prv_003", Position: types.Point{Lat: 33.6861, Lng: -7.3828}, IsAvailable: false, Rating: 4.9,
			ServiceIDs: []types.ID{"svc_plumbing"}},
		{ID: "prv_004", Position: types.Point{Lat: 34.0209, Lng: -6.8416}, IsAvailable: true, Rating: 4.2,
			ServiceIDs: []types.ID{"svc_cleaning"}},
	}
}
