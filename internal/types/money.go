// README: Money helpers shared across modules. Amounts are decimal during computation
// and rounded once, half-up, to the settlement currency's minor unit.
package types

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of fractional digits of the settlement currency.
const MinorUnitPlaces = 2

// DefaultCurrency is the platform's single settlement currency.
const DefaultCurrency = "MAD"

// RoundMoney rounds half-up to MinorUnitPlaces. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts the engine produces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}
