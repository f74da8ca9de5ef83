// README: Provider rows backed by PostgreSQL.
package matching

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"khadamat/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ProvidersForService(ctx context.Context, serviceID types.ID) ([]Provider, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.latitude, p.longitude, p.intervention_radius_km,
		       p.price_per_extra_km, p.is_available, COALESCE(p.rating, 0)
		FROM providers p
		JOIN provider_services ps ON ps.provider_id = p.id
		WHERE ps.service_id = $1
	`, string(serviceID))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Provider, error) {
		var (
			p  Provider
			id string
		)
		err := row.Scan(&id, &p.Position.Lat, &p.Position.Lng, &p.FreeRadiusKm,
			&p.PricePerExtraKm, &p.IsAvailable, &p.Rating)
		p.ID = types.ID(id)
		p.ServiceIDs = []types.ID{serviceID}
		return p, err
	})
}

// MemoryProviders serves a fixed provider pool; used when no database is configured.
type MemoryProviders struct {
	providers []Provider
}

func NewMemoryProviders(providers ...Provider) *MemoryProviders {
	return &MemoryProviders{providers: providers}
}

func (m *MemoryProviders) ProvidersForService(_ context.Context, serviceID types.ID) ([]Provider, error) {
	var out []Provider
	for _, p := range m.providers {
		if p.Offers(serviceID) {
			out = append(out, p)
		}
	}
	return out, nil
}
