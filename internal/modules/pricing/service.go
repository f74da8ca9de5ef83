// README: Pricing service: resolves the service record and the current rate snapshot, then delegates to Compute.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"khadamat/internal/types"
)

var ErrServiceNotFound = errors.New("service not found")

type Catalog interface {
	GetService(ctx context.Context, id types.ID) (ServiceRecord, error)
}

type RateStore interface {
	LatestRates(ctx context.Context) (Rates, bool, error)
	SaveRates(ctx context.Context, r Rates) error
}

type Service struct {
	catalog Catalog
	rates   *RateProvider
	store   RateStore
	log     *zap.Logger

	publishMu sync.Mutex
}

// NewService wires the pricing service. store may be nil, in which case
// published rates live in memory only.
func NewService(catalog Catalog, rates *RateProvider, store RateStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{catalog: catalog, rates: rates, store: store, log: log}
}

type CalculateCommand struct {
	ServiceID      types.ID
	Formula        string
	ScheduledTime  time.Time
	DurationHours  float64
	DistanceKm     float64
	Quantity       int
	Provider       ProviderTerms
	CommissionRate *float64
}

func (s *Service) Calculate(ctx context.Context, cmd CalculateCommand) (PriceBreakdown, error) {
	formula, err := ParseFormula(cmd.Formula)
	if err != nil {
		return PriceBreakdown{}, err
	}
	rec, err := s.LookupService(ctx, cmd.ServiceID)
	if err != nil {
		return PriceBreakdown{}, err
	}
	rates := s.Rates()
	b, err := Compute(Request{
		Service:        rec,
		Formula:        formula,
		ScheduledTime:  cmd.ScheduledTime,
		DurationHours:  cmd.DurationHours,
		DistanceKm:     cmd.DistanceKm,
		Quantity:       cmd.Quantity,
		Provider:       cmd.Provider,
		CommissionRate: cmd.CommissionRate,
	}, rates)
	if err != nil {
		return PriceBreakdown{}, err
	}
	s.log.Debug("price computed",
		zap.String("service_id", string(rec.ID)),
		zap.String("formula", string(formula)),
		zap.String("subtotal", b.Subtotal.StringFixed(types.MinorUnitPlaces)),
		zap.Int64("rates_version", rates.Version),
	)
	return b, nil
}

func (s *Service) LookupService(ctx context.Context, id types.ID) (ServiceRecord, error) {
	if id == "" {
		return ServiceRecord{}, types.Invalid("service_id", "is required")
	}
	rec, err := s.catalog.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return ServiceRecord{}, err
		}
		return ServiceRecord{}, fmt.Errorf("loading service %s: %w", id, err)
	}
	return rec, nil
}

// Rates returns the snapshot a single computation should use throughout.
func (s *Service) Rates() Rates {
	return s.rates.Current()
}

func (s *Service) CheckNight(scheduled time.Time, durationHours float64) (NightResult, error) {
	return s.Rates().NightCalculator().Calculate(scheduled, durationHours)
}

func (s *Service) IsNightTime(t time.Time) bool {
	return s.Rates().NightCalculator().IsNightTime(t)
}

// LoadRates restores the latest persisted snapshot, keeping the configured
// defaults when nothing has been published yet.
func (s *Service) LoadRates(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	r, ok, err := s.store.LatestRates(ctx)
	if err != nil {
		return fmt.Errorf("loading rates: %w", err)
	}
	if !ok {
		return nil
	}
	if err := s.rates.Restore(r); err != nil {
		return fmt.Errorf("persisted rates version %d: %w", r.Version, err)
	}
	s.log.Info("rates restored", zap.Int64("version", r.Version))
	return nil
}

// PublishRates installs a new snapshot. In-flight computations keep the one
// they already read.
func (s *Service) PublishRates(ctx context.Context, next Rates) (Rates, error) {
	if err := next.Validate(); err != nil {
		return Rates{}, err
	}
	if s.store == nil {
		published, err := s.rates.Publish(next)
		if err != nil {
			return Rates{}, err
		}
		s.log.Info("rates published", zap.Int64("version", published.Version))
		return published, nil
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	next.Version = s.rates.Current().Version + 1
	if next.EffectiveAt.IsZero() {
		next.EffectiveAt = time.Now().UTC()
	}
	if err := s.store.SaveRates(ctx, next); err != nil {
		return Rates{}, fmt.Errorf("saving rates: %w", err)
	}
	if err := s.rates.Restore(next); err != nil {
		return Rates{}, err
	}
	s.log.Info("rates published", zap.Int64("version", next.Version))
	return next, nil
}
