// README: Matching service loads the provider snapshot, overlays live positions and runs Search.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"khadamat/internal/config"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

var ErrDiagnosticsDisabled = errors.New("out-of-range diagnostics are disabled")

type ProviderSource interface {
	ProvidersForService(ctx context.Context, serviceID types.ID) ([]Provider, error)
}

type PositionSource interface {
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Service struct {
	providers ProviderSource
	positions PositionSource
	pricing   *pricing.Service
	geocoder  Geocoder
	cfg       config.SearchConfig
	log       *zap.Logger
	now       func() time.Time
}

type ServiceDeps struct {
	Providers ProviderSource
	// Positions and Geocoder are optional.
	Positions PositionSource
	Geocoder  Geocoder
	Pricing   *pricing.Service
	Config    config.SearchConfig
	Logger    *zap.Logger
}

func NewService(deps ServiceDeps) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		providers: deps.Providers,
		positions: deps.Positions,
		pricing:   deps.Pricing,
		geocoder:  deps.Geocoder,
		cfg:       deps.Config,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) NearbyProviders(ctx context.Context, params SearchParams) (SearchResult, error) {
	if params.RadiusKm == 0 {
		params.RadiusKm = s.cfg.DefaultRadiusKm
	}
	if params.IncludeOutOfRange && !s.cfg.DiagnosticsEnabled {
		return SearchResult{}, ErrDiagnosticsDisabled
	}
	if params.Address != "" && params.Lat == 0 && params.Lng == 0 {
		if s.geocoder == nil {
			return SearchResult{}, types.Invalid("address", "geocoding is not configured; send lat and lng")
		}
		p, err := s.geocoder.Geocode(ctx, params.Address)
		if err != nil {
			return SearchResult{}, err
		}
		params.Lat, params.Lng = p.Lat, p.Lng
	}
	if err := validateParams(params); err != nil {
		return SearchResult{}, err
	}

	rates := s.pricing.Rates()
	opts := SearchOptions{
		MaxAlternatives:     s.cfg.MaxAlternatives,
		DefaultFreeRadiusKm: rates.DefaultFreeRadiusKm,
	}
	if params.Formula != "" {
		price, err := s.priceFunc(ctx, params, rates)
		if errors.Is(err, pricing.ErrServiceNotFound) {
			return SearchResult{Params: params, Alternatives: []Candidate{}}, nil
		}
		if err != nil {
			return SearchResult{}, err
		}
		opts.Price = price
	}

	pool, err := s.providers.ProvidersForService(ctx, params.ServiceID)
	if err != nil {
		return SearchResult{}, fmt.Errorf("loading providers for %s: %w", params.ServiceID, err)
	}
	pool = s.overlayPositions(ctx, pool)

	res, err := Search(pool, params, opts)
	if err != nil {
		return SearchResult{}, err
	}
	s.log.Debug("nearby search",
		zap.String("service_id", string(params.ServiceID)),
		zap.Float64("radius_km", params.RadiusKm),
		zap.Int("pool", len(pool)),
		zap.Int("total_found", res.TotalFound),
	)
	return res, nil
}

// priceFunc binds one rate snapshot and service record for every candidate.
func (s *Service) priceFunc(ctx context.Context, params SearchParams, rates pricing.Rates) (PriceFunc, error) {
	formula, err := pricing.ParseFormula(params.Formula)
	if err != nil {
		return nil, err
	}
	rec, err := s.pricing.LookupService(ctx, params.ServiceID)
	if err != nil {
		return nil, err
	}
	when := s.now()
	if params.ScheduledTime != nil {
		when = *params.ScheduledTime
	}
	return func(p Provider, distanceKm float64) (pricing.PriceBreakdown, error) {
		return pricing.Compute(pricing.Request{
			Service:       rec,
			Formula:       formula,
			ScheduledTime: when,
			DurationHours: rec.DefaultDurationHours(),
			DistanceKm:    distanceKm,
			Quantity:      1,
			Provider:      p.Terms(),
		}, rates)
	}, nil
}

// overlayPositions replaces stored coordinates with live ones where a provider
// has reported a position. Live data is best effort.
func (s *Service) overlayPositions(ctx context.Context, pool []Provider) []Provider {
	if s.positions == nil || len(pool) == 0 {
		return pool
	}
	ids := make([]types.ID, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	live, err := s.positions.Positions(ctx, ids)
	if err != nil {
		s.log.Warn("live positions unavailable, using stored coordinates", zap.Error(err))
		return pool
	}
	out := make([]Provider, len(pool))
	for i, p := range pool {
		if pos, ok := live[p.ID]; ok {
			p.Position = pos
		}
		out[i] = p
	}
	return out
}
