// README: Provider snapshot, search parameters and ranked candidates.
package matching

import (
	"time"

	"khadamat/internal/modules/pricing"
	"khadamat/internal/types"
)

const (
	// defaultMaxAlternatives bounds the response when config leaves it unset.
	defaultMaxAlternatives = 5
)

// Provider is a read-only snapshot of a provider row at search time.
type Provider struct {
	ID              types.ID
	Position        types.Point
	FreeRadiusKm    *float64
	PricePerExtraKm *float64
	IsAvailable     bool
	Rating          float64
	ServiceIDs      []types.ID
}

func (p Provider) Offers(serviceID types.ID) bool {
	for _, id := range p.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

func (p Provider) Terms() pricing.ProviderTerms {
	return pricing.ProviderTerms{FreeRadiusKm: p.FreeRadiusKm, PricePerExtraKm: p.PricePerExtraKm}
}

type SearchParams struct {
	ServiceID     types.ID
	Lat           float64
	Lng           float64
	Address       string
	RadiusKm      float64
	Formula       string
	OnlyAvailable bool
	ScheduledTime *time.Time
	// IncludeOutOfRange keeps candidates beyond RadiusKm for diagnostics.
	IncludeOutOfRange bool
}

type Candidate struct {
	ProviderID      types.ID
	Position        types.Point
	DistanceKm      float64
	WithinRadius    bool
	ExtraKm         float64
	IsAvailableNow  bool
	Rating          float64
	CalculatedPrice *pricing.PriceBreakdown
}

type SearchResult struct {
	Nearest      *Candidate
	Alternatives []Candidate
	TotalFound   int
	Params       SearchParams
}
