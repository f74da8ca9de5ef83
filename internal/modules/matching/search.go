// README: Nearest-provider ranking. A pure filter/sort pipeline over a provider snapshot.
package matching

import (
	"cmp"
	"math"
	"slices"

	"khadamat/internal/modules/location"
	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

// PriceFunc prices one candidate at its own distance.
type PriceFunc func(p Provider, distanceKm float64) (pricing.PriceBreakdown, error)

type SearchOptions struct {
	MaxAlternatives int
	// DefaultFreeRadiusKm applies to providers without their own intervention radius.
	DefaultFreeRadiusKm float64
	// Price is optional; candidates carry no price when nil.
	Price PriceFunc
}

// Search ranks the pool around params' coordinates. An empty result is not an error.
func Search(pool []Provider, params SearchParams, opts SearchOptions) (SearchResult, error) {
	if err := validateParams(params); err != nil {
		return SearchResult{}, err
	}
	origin := types.Point{Lat: params.Lat, Lng: params.Lng}

	type ranked struct {
		provider  Provider
		candidate Candidate
	}
	var found []ranked
	for _, p := range pool {
		if !p.Offers(params.ServiceID) {
			continue
		}
		d := location.Distance(origin, p.Position)
		if !params.IncludeOutOfRange && d > params.RadiusKm {
			continue
		}
		if params.OnlyAvailable && !p.IsAvailable {
			continue
		}
		free := opts.DefaultFreeRadiusKm
		if p.FreeRadiusKm != nil {
			free = *p.FreeRadiusKm
		}
		found = append(found, ranked{provider: p, candidate: Candidate{
			ProviderID:     p.ID,
			Position:       p.Position,
			DistanceKm:     d,
			WithinRadius:   d <= free,
			ExtraKm:        math.Max(0, d-free),
			IsAvailableNow: p.IsAvailable,
			Rating:         p.Rating,
		}})
	}

	for i := range found {
		if opts.Price == nil {
			break
		}
		b, err := opts.Price(found[i].provider, found[i].candidate.DistanceKm)
		if err != nil {
			return SearchResult{}, err
		}
		found[i].candidate.CalculatedPrice = &b
	}

	slices.SortStableFunc(found, func(a, b ranked) int {
		return compareCandidates(a.candidate, b.candidate)
	})

	res := SearchResult{TotalFound: len(found), Params: params, Alternatives: []Candidate{}}
	if len(found) == 0 {
		return res, nil
	}
	nearest := found[0].candidate
	res.Nearest = &nearest

	limit := opts.MaxAlternatives
	if limit <= 0 {
		limit = defaultMaxAlternatives
	}
	for _, r := range found[1:] {
		if len(res.Alternatives) == limit {
			break
		}
		res.Alternatives = append(res.Alternatives, r.candidate)
	}
	return res, nil
}

// compareCandidates orders by distance ascending, then rating descending, then id ascending.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	return cmp.Compare(a.ProviderID, b.ProviderID)
}

func validateParams(p SearchParams) error {
	if p.ServiceID == "" {
		return types.Invalid("service_id", "is required")
	}
	if err := location.ValidateCoordinates(types.Point{Lat: p.Lat, Lng: p.Lng}); err != nil {
		return err
	}
	if math.IsNaN(p.RadiusKm) || p.RadiusKm <= 0 {
		return types.Invalid("radius", "must be > 0, got %v", p.RadiusKm)
	}
	return nil
}
