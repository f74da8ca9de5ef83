// README: Versioned rate snapshots. A computation reads one snapshot and never
// observes a concurrent admin change halfway through.
package pricing

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"khadamat/internal/config"
)

type Rates struct {
	Version                int64
	NightStartHour         int
	NightEndHour           int
	SingleNightRate        decimal.Decimal
	DoubleNightRate        decimal.Decimal
	CommissionRate         decimal.Decimal
	DefaultFreeRadiusKm    float64
	DefaultPricePerExtraKm float64
	Currency               string
	EffectiveAt            time.Time
}

func RatesFromConfig(cfg config.PricingConfig) Rates {
	return Rates{
		Version:                1,
		NightStartHour:         cfg.NightStartHour,
		NightEndHour:           cfg.NightEndHour,
		SingleNightRate:        decimal.NewFromFloat(cfg.SingleNightRate),
		DoubleNightRate:        decimal.NewFromFloat(cfg.DoubleNightRate),
		CommissionRate:         decimal.NewFromFloat(cfg.CommissionRate),
		DefaultFreeRadiusKm:    cfg.DefaultFreeRadiusKm,
		DefaultPricePerExtraKm: cfg.DefaultPricePerExtraKm,
		Currency:               cfg.Currency,
	}
}

var ErrInvalidRates = errors.New("invalid rate configuration")

func (r Rates) Validate() error {
	if r.NightStartHour < 0 || r.NightStartHour > 23 || r.NightEndHour < 0 || r.NightEndHour > 23 {
		return fmt.Errorf("%w: night hours must be within 0-23", ErrInvalidRates)
	}
	if r.NightStartHour == r.NightEndHour {
		return fmt.Errorf("%w: night window is empty", ErrInvalidRates)
	}
	if r.SingleNightRate.IsNegative() {
		return fmt.Errorf("%w: single night rate is negative", ErrInvalidRates)
	}
	if r.DoubleNightRate.LessThan(r.SingleNightRate) {
		return fmt.Errorf("%w: double night rate %s is lower than single night rate %s",
			ErrInvalidRates, r.DoubleNightRate, r.SingleNightRate)
	}
	if r.CommissionRate.IsNegative() || r.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: commission rate %s outside [0,1]", ErrInvalidRates, r.CommissionRate)
	}
	if r.DefaultFreeRadiusKm < 0 || r.DefaultPricePerExtraKm < 0 {
		return fmt.Errorf("%w: distance defaults must be >= 0", ErrInvalidRates)
	}
	if r.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidRates)
	}
	return nil
}

// NightCalculator returns the calculator bound to this snapshot's window and rates.
func (r Rates) NightCalculator() NightCalculator {
	return NightCalculator{
		StartHour:  r.NightStartHour,
		EndHour:    r.NightEndHour,
		SingleRate: r.SingleNightRate,
		DoubleRate: r.DoubleNightRate,
		Currency:   r.Currency,
	}
}

// DistanceTerms resolves a provider's travel terms against the platform defaults.
func (r Rates) DistanceTerms(p ProviderTerms) (freeRadiusKm, pricePerExtraKm float64) {
	freeRadiusKm = r.DefaultFreeRadiusKm
	if p.FreeRadiusKm != nil {
		freeRadiusKm = *p.FreeRadiusKm
	}
	pricePerExtraKm = r.DefaultPricePerExtraKm
	if p.PricePerExtraKm != nil {
		pricePerExtraKm = *p.PricePerExtraKm
	}
	return freeRadiusKm, pricePerExtraKm
}

// RateProvider holds the current snapshot. Readers never lock.
type RateProvider struct {
	current atomic.Pointer[Rates]
}

func NewRateProvider(initial Rates) (*RateProvider, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	p := &RateProvider{}
	p.current.Store(&initial)
	return p, nil
}

func (p *RateProvider) Current() Rates {
	return *p.current.Load()
}

// Publish validates next and installs it with the following version number.
func (p *RateProvider) Publish(next Rates) (Rates, error) {
	if err := next.Validate(); err != nil {
		return Rates{}, err
	}
	for {
		old := p.current.Load()
		candidate := next
		candidate.Version = old.Version + 1
		if candidate.EffectiveAt.IsZero() {
			candidate.EffectiveAt = time.Now().UTC()
		}
		if p.current.CompareAndSwap(old, &candidate) {
			return candidate, nil
		}
	}
}

// Restore installs a persisted snapshot as-is, keeping its version.
func (p *RateProvider) Restore(r Rates) error {
	if err := r.Validate(); err != nil {
		return err
	}
	p.current.Store(&r)
	return nil
}
