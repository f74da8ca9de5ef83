package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

// CalculateDistanceFee bills every started kilometre beyond the free radius.
func CalculateDistanceFee(distanceKm, freeRadiusKm, pricePerExtraKm float64) (DistanceFeeResult, error) {
	if err := nonNegative("distance_km", distanceKm); err != nil {
		return DistanceFeeResult{}, err
	}
	if err := nonNegative("free_radius_km", freeRadiusKm); err != nil {
		return DistanceFeeResult{}, err
	}
	if err := nonNegative("price_per_extra_km", pricePerExtraKm); err != nil {
		return DistanceFeeResult{}, err
	}

	if distanceKm <= freeRadiusKm {
		return DistanceFeeResult{WithinRadius: true, Fee: decimal.Zero}, nil
	}

	// Subtract in decimal so 15.3-10 is 5.3, not 5.300000000000001.
	excess := decimal.NewFromFloat(distanceKm).Sub(decimal.NewFromFloat(freeRadiusKm))
	billable := excess.Ceil()
	return DistanceFeeResult{
		BillableExcessKm: billable.IntPart(),
		RawExcessKm:      excess.InexactFloat64(),
		Fee:              billable.Mul(decimal.NewFromFloat(pricePerExtraKm)),
		WithinRadius:     false,
	}, nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.Invalid(field, "must be a finite number")
	}
	if v < 0 {
		return types.Invalid(field, "must be >= 0, got %v", v)
	}
	return nil
}
