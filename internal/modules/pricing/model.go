// README: Pricing value objects: night classification, travel fee and the price breakdown.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"khadamat/internal/types"
)

type NightType string

const (
	NightNone   NightType = "none"
	NightSingle NightType = "single"
	NightDouble NightType = "double"
)

type NightResult struct {
	Type         NightType
	Fee          decimal.Decimal
	NightsCount  int
	IsNightShift bool
	Explanation  string
}

type DistanceFeeResult struct {
	BillableExcessKm int64
	// RawExcessKm is the unrounded distance beyond the free radius.
	RawExcessKm  float64
	Fee          decimal.Decimal
	WithinRadius bool
}

// ServiceRecord is the subset of a catalogue service the engine needs.
type ServiceRecord struct {
	ID              types.ID
	BasePrice       decimal.Decimal
	DurationMinutes int
	// AllowedFormulas restricts the plans a service may be booked with; empty allows all.
	AllowedFormulas []Formula
}

// DefaultDurationHours is the service's nominal duration, at least one hour.
func (s ServiceRecord) DefaultDurationHours() float64 {
	if s.DurationMinutes <= 0 {
		return 1
	}
	return float64(s.DurationMinutes) / 60
}

// ProviderTerms carries a provider's travel terms; nil fields fall back to the
// platform defaults of the rate snapshot.
type ProviderTerms struct {
	FreeRadiusKm    *float64
	PricePerExtraKm *float64
}

type Request struct {
	Service       ServiceRecord
	Formula       Formula
	ScheduledTime time.Time
	DurationHours float64
	DistanceKm    float64
	Quantity      int
	Provider      ProviderTerms
	// CommissionRate overrides the platform rate for this order when set.
	CommissionRate *float64
}

type PriceBreakdown struct {
	ServiceID              types.ID
	FormulaType            Formula
	FormulaModifierDisplay string
	BasePrice              decimal.Decimal
	FormulaModifier        decimal.Decimal
	DurationHours          float64
	Quantity               int
	DistanceFee            decimal.Decimal
	NightFee               decimal.Decimal
	Subtotal               decimal.Decimal
	CommissionRate         decimal.Decimal
	CommissionAmount       decimal.Decimal
	ProviderAmount         decimal.Decimal
	Total                  decimal.Decimal
	Currency               string
	Night                  NightResult
	Distance               DistanceFeeResult
	RatesVersion           int64
	// Authoritative is false only for locally approximated quotes.
	Authoritative bool
}
