// README: Price breakdown assembly. Pure: the same request and snapshot always yield the same breakdown.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

// Compute assembles the authoritative breakdown. Any calculator failure aborts
// the whole computation; no component is ever substituted with zero.
func Compute(req Request, rates Rates) (PriceBreakdown, error) {
	if err := validateRequest(req); err != nil {
		return PriceBreakdown{}, err
	}

	night, err := rates.NightCalculator().Calculate(req.ScheduledTime, req.DurationHours)
	if err != nil {
		return PriceBreakdown{}, err
	}
	nightFee := decimal.Zero
	// The night plan already prices the night premium in.
	if night.Type != NightNone && req.Formula != FormulaNight {
		nightFee = night.Fee
	}

	freeRadius, perKm := rates.DistanceTerms(req.Provider)
	dist, err := CalculateDistanceFee(req.DistanceKm, freeRadius, perKm)
	if err != nil {
		return PriceBreakdown{}, err
	}

	commissionRate := rates.CommissionRate
	if req.CommissionRate != nil {
		commissionRate = decimal.NewFromFloat(*req.CommissionRate)
	}

	base := req.Service.BasePrice
	modifier := req.Formula.Modifier(base)
	hours := decimal.NewFromFloat(req.DurationHours)
	qty := decimal.NewFromInt(int64(req.Quantity))

	subtotal := types.RoundMoney(
		base.Add(modifier).Mul(hours).Mul(qty).Add(dist.Fee).Add(nightFee),
	)
	commission := types.RoundMoney(subtotal.Mul(commissionRate))
	providerAmount := subtotal.Sub(commission)

	return PriceBreakdown{
		ServiceID:              req.Service.ID,
		FormulaType:            req.Formula,
		FormulaModifierDisplay: req.Formula.Display(rates.Currency),
		BasePrice:              types.RoundMoney(base),
		FormulaModifier:        types.RoundMoney(modifier),
		DurationHours:          req.DurationHours,
		Quantity:               req.Quantity,
		DistanceFee:            types.RoundMoney(dist.Fee),
		NightFee:               types.RoundMoney(nightFee),
		Subtotal:               subtotal,
		CommissionRate:         commissionRate,
		CommissionAmount:       commission,
		ProviderAmount:         providerAmount,
		Total:                  subtotal,
		Currency:               rates.Currency,
		Night:                  night,
		Distance:               dist,
		RatesVersion:           rates.Version,
		Authoritative:          true,
	}, nil
}

func validateRequest(req Request) error {
	if !req.Formula.Valid() {
		return types.Invalid("formula_type", "unknown formula %q, allowed: %s", req.Formula, formulaList(AllFormulas))
	}
	if len(req.Service.AllowedFormulas) > 0 && !containsFormula(req.Service.AllowedFormulas, req.Formula) {
		return types.Invalid("formula_type", "formula %q is not offered for this service, allowed: %s",
			req.Formula, formulaList(req.Service.AllowedFormulas))
	}
	if req.Service.BasePrice.IsNegative() {
		return types.Invalid("base_price", "must be >= 0")
	}
	if req.Quantity < 1 {
		return types.Invalid("quantity", "must be >= 1, got %d", req.Quantity)
	}
	if math.IsNaN(req.DurationHours) || math.IsInf(req.DurationHours, 0) || req.DurationHours <= 0 {
		return types.Invalid("duration_hours", "must be a positive number, got %v", req.DurationHours)
	}
	if req.CommissionRate != nil {
		r := *req.CommissionRate
		if math.IsNaN(r) || r < 0 || r > 1 {
			return types.Invalid("commission_rate", "must be within [0,1], got %v", r)
		}
	}
	return nil
}

func containsFormula(fs []Formula, f Formula) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
