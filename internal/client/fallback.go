// README: Degraded-mode quote computed on the client. Same formulas as the
// service, float arithmetic and a minute walk for nights; never authoritative.
package client

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// LocalEstimate approximates the service's breakdown for display while the
// service is unreachable. The result has Authoritative=false.
func LocalEstimate(req QuoteRequest, basePrice float64, rates RateTable) (Quote, error) {
	start, err := parseInstant(req.ScheduledTime)
	if err != nil {
		return Quote{}, err
	}
	if req.DurationHours <= 0 || math.IsNaN(req.DurationHours) || math.IsInf(req.DurationHours, 0) {
		return Quote{}, fmt.Errorf("duration_hours must be a positive number, got %v", req.DurationHours)
	}
	if req.DistanceKm < 0 {
		return Quote{}, fmt.Errorf("distance_km must be >= 0, got %v", req.DistanceKm)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return Quote{}, fmt.Errorf("quantity must be >= 1, got %d", qty)
	}

	formula := strings.ToLower(strings.TrimSpace(req.FormulaType))
	var modifier float64
	var display string
	switch formula {
	case "standard":
		modifier, display = 0, "Base"
	case "recurring":
		modifier, display = -0.10*basePrice, "-10%"
	case "premium":
		modifier, display = 0.30*basePrice, "+30%"
	case "urgent":
		modifier, display = 50, fmt.Sprintf("+50 %s", rates.Currency)
	case "night":
		modifier, display = 30, fmt.Sprintf("+30 %s", rates.Currency)
	default:
		return Quote{}, fmt.Errorf("unknown formula %q, allowed: standard, recurring, premium, urgent, night", req.FormulaType)
	}

	nights := countNights(start, req.DurationHours, rates.NightStartHour, rates.NightEndHour)
	nightType, nightFee := "none", 0.0
	switch {
	case nights == 1:
		nightType, nightFee = "single", rates.Single
	case nights >= 2:
		nightType, nightFee = "double", rates.Double
	}
	if formula == "night" {
		nightFee = 0
	}

	free := rates.DefaultFreeRadiusKm
	if req.FreeRadiusKm != nil {
		free = *req.FreeRadiusKm
	}
	perKm := rates.DefaultPricePerExtraKm
	if req.PricePerExtraKm != nil {
		perKm = *req.PricePerExtraKm
	}
	var billable int64
	if excess := req.DistanceKm - free; excess > 0 {
		// Trim float noise such as 5.300000000000001 before rounding up.
		billable = int64(math.Ceil(math.Round(excess*1e6) / 1e6))
	}
	distanceFee := float64(billable) * perKm

	commissionRate := rates.CommissionRate
	if req.CommissionRate != nil {
		commissionRate = *req.CommissionRate
	}

	subtotal := round2((basePrice+modifier)*req.DurationHours*float64(qty) + distanceFee + nightFee)
	commission := round2(subtotal * commissionRate)
	provider := round2(subtotal - commission)

	return Quote{
		ServiceID:              req.ServiceID,
		FormulaType:            formula,
		FormulaModifierDisplay: display,
		BasePrice:              round2(basePrice),
		FormulaModifier:        round2(modifier),
		DurationHours:          req.DurationHours,
		Quantity:               qty,
		DistanceFee:            round2(distanceFee),
		BillableExcessKm:       billable,
		NightFee:               round2(nightFee),
		NightType:              nightType,
		NightsCount:            nights,
		Subtotal:               subtotal,
		CommissionRate:         commissionRate,
		CommissionAmount:       commission,
		ProviderAmount:         provider,
		Total:                  subtotal,
		Currency:               rates.Currency,
		RatesVersion:           rates.Version,
		Authoritative:          false,
	}, nil
}

// countNights walks the interval minute by minute and counts distinct night
// periods, each keyed by the date its window opens on.
func countNights(start time.Time, hours float64, nightStart, nightEnd int) int {
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	seen := map[string]struct{}{}
	for t := start; t.Before(end); t = t.Add(time.Minute) {
		h := t.Hour()
		var key time.Time
		switch {
		case nightStart < nightEnd && h >= nightStart && h < nightEnd:
			key = t
		case nightStart > nightEnd && h >= nightStart:
			key = t
		case nightStart > nightEnd && h < nightEnd:
			key = t.AddDate(0, 0, -1)
		default:
			continue
		}
		seen[key.Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}

func parseInstant(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable scheduled_time %q", v)
}

// round2 rounds half away from zero to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
