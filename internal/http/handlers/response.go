// README: Wire shapes. Money goes out as a JSON number with two decimals, distances with one.
package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"khadamat/internal/modules/location"
	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(types.MinorUnitPlaces)), nil
}

type breakdownResponse struct {
	ServiceID              string  `json:"service_id"`
	FormulaType            string  `json:"formula_type"`
	FormulaModifierDisplay string  `json:"formula_modifier_display"`
	BasePrice              money   `json:"base_price"`
	FormulaModifier        money   `json:"formula_modifier"`
	DurationHours          float64 `json:"duration_hours"`
	Quantity               int     `json:"quantity"`
	DistanceFee            money   `json:"distance_fee"`
	BillableExcessKm       int64   `json:"billable_excess_km"`
	NightFee               money   `json:"night_fee"`
	NightType              string  `json:"night_type"`
	NightsCount            int     `json:"nights_count"`
	NightExplanation       string  `json:"night_explanation,omitempty"`
	Subtotal               money   `json:"subtotal"`
	CommissionRate         float64 `json:"commission_rate"`
	CommissionAmount       money   `json:"commission_amount"`
	ProviderAmount         money   `json:"provider_amount"`
	Total                  money   `json:"total"`
	Currency               string  `json:"currency"`
	RatesVersion           int64   `json:"rates_version"`
	Authoritative          bool    `json:"authoritative"`
}

func newBreakdownResponse(b pricing.PriceBreakdown) breakdownResponse {
	rate, _ := b.CommissionRate.Float64()
	return breakdownResponse{
		ServiceID:              string(b.ServiceID),
		FormulaType:            string(b.FormulaType),
		FormulaModifierDisplay: b.FormulaModifierDisplay,
		BasePrice:              money(b.BasePrice),
		FormulaModifier:        money(b.FormulaModifier),
		DurationHours:          b.DurationHours,
		Quantity:               b.Quantity,
		DistanceFee:            money(b.DistanceFee),
		BillableExcessKm:       b.Distance.BillableExcessKm,
		NightFee:               money(b.NightFee),
		NightType:              string(b.Night.Type),
		NightsCount:            b.Night.NightsCount,
		NightExplanation:       b.Night.Explanation,
		Subtotal:               money(b.Subtotal),
		CommissionRate:         rate,
		CommissionAmount:       money(b.CommissionAmount),
		ProviderAmount:         money(b.ProviderAmount),
		Total:                  money(b.Total),
		Currency:               b.Currency,
		RatesVersion:           b.RatesVersion,
		Authoritative:          b.Authoritative,
	}
}

type nightResponse struct {
	Type         string `json:"type"`
	Fee          money  `json:"fee"`
	NightsCount  int    `json:"nights_count"`
	IsNightShift bool   `json:"is_night_shift"`
	Explanation  string `json:"explanation"`
}

func newNightResponse(n pricing.NightResult) nightResponse {
	return nightResponse{
		Type:         string(n.Type),
		Fee:          money(n.Fee),
		NightsCount:  n.NightsCount,
		IsNightShift: n.IsNightShift,
		Explanation:  n.Explanation,
	}
}

type ratesResponse struct {
	Version                int64     `json:"version"`
	Single                 money     `json:"single"`
	Double                 money     `json:"double"`
	NightStartHour         int       `json:"night_start_hour"`
	NightEndHour           int       `json:"night_end_hour"`
	CommissionRate         float64   `json:"commission_rate"`
	DefaultFreeRadiusKm    float64   `json:"default_free_radius_km"`
	DefaultPricePerExtraKm float64   `json:"default_price_per_extra_km"`
	Currency               string    `json:"currency"`
	EffectiveAt            time.Time `json:"effective_at,omitzero"`
}

func newRatesResponse(r pricing.Rates) ratesResponse {
	rate, _ := r.CommissionRate.Float64()
	return ratesResponse{
		Version:                r.Version,
		Single:                 money(r.SingleNightRate),
		Double:                 money(r.DoubleNightRate),
		NightStartHour:         r.NightStartHour,
		NightEndHour:           r.NightEndHour,
		CommissionRate:         rate,
		DefaultFreeRadiusKm:    r.DefaultFreeRadiusKm,
		DefaultPricePerExtraKm: r.DefaultPricePerExtraKm,
		Currency:               r.Currency,
		EffectiveAt:            r.EffectiveAt,
	}
}

type candidateResponse struct {
	ProviderID      string             `json:"provider_id"`
	Lat             float64            `json:"lat"`
	Lng             float64            `json:"lng"`
	DistanceKm      float64            `json:"distance_km"`
	WithinRadius    bool               `json:"within_radius"`
	ExtraKm         float64            `json:"extra_km"`
	IsAvailableNow  bool               `json:"is_available_now"`
	Rating          float64            `json:"rating"`
	CalculatedPrice *breakdownResponse `json:"calculated_price,omitempty"`
}

func newCandidateResponse(c matching.Candidate) candidateResponse {
	out := candidateResponse{
		ProviderID:     string(c.ProviderID),
		Lat:            c.Position.Lat,
		Lng:            c.Position.Lng,
		DistanceKm:     location.RoundKm(c.DistanceKm),
		WithinRadius:   c.WithinRadius,
		ExtraKm:        location.RoundKm(c.ExtraKm),
		IsAvailableNow: c.IsAvailableNow,
		Rating:         c.Rating,
	}
	if c.CalculatedPrice != nil {
		b := newBreakdownResponse(*c.CalculatedPrice)
		out.CalculatedPrice = &b
	}
	return out
}

type searchParamsResponse struct {
	ServiceID         string     `json:"service_id"`
	Lat               float64    `json:"lat"`
	Lng               float64    `json:"lng"`
	Address           string     `json:"address,omitempty"`
	RadiusKm          float64    `json:"radius_km"`
	Formula           string     `json:"formula,omitempty"`
	OnlyAvailable     bool       `json:"only_available"`
	ScheduledTime     *time.Time `json:"scheduled_time,omitempty"`
	IncludeOutOfRange bool       `json:"include_out_of_range"`
}

type searchResponse struct {
	Nearest      *candidateResponse   `json:"nearest"`
	Alternatives []candidateResponse  `json:"alternatives"`
	TotalFound   int                  `json:"total_found"`
	SearchParams searchParamsResponse `json:"search_params"`
}

func newSearchResponse(r matching.SearchResult) searchResponse {
	out := searchResponse{
		Alternatives: make([]candidateResponse, 0, len(r.Alternatives)),
		TotalFound:   r.TotalFound,
		SearchParams: searchParamsResponse{
			ServiceID:         string(r.Params.ServiceID),
			Lat:               r.Params.Lat,
			Lng:               r.Params.Lng,
			Address:           r.Params.Address,
			RadiusKm:          r.Params.RadiusKm,
			Formula:           r.Params.Formula,
			OnlyAvailable:     r.Params.OnlyAvailable,
			ScheduledTime:     r.Params.ScheduledTime,
			IncludeOutOfRange: r.Params.IncludeOutOfRange,
		},
	}
	if r.Nearest != nil {
		n := newCandidateResponse(*r.Nearest)
		out.Nearest = &n
	}
	for _, c := range r.Alternatives {
		out.Alternatives = append(out.Alternatives, newCandidateResponse(c))
	}
	return out
}
