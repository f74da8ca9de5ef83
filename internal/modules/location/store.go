// README: Live provider positions backed by Redis GEO.
package location

import (
	"context"

	"github.com/redis/go-redis/v9"

	"khadamat/internal/types"
)

const providerGeoKey = "geo:providers"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) SetPosition(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *Store) RemovePosition(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, providerGeoKey, string(id)).Err()
}

// Positions returns the last reported position of each id that has one.
func (s *Store) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	out := make(map[types.ID]types.Point, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	pos, err := s.redis.GeoPos(ctx, providerGeoKey, members...).Result()
	if err != nil {
		return nil, err
	}
	for i, p := range pos {
		if p == nil {
			continue
		}
		out[ids[i]] = types.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return out, nil
}
