// README: Location service validates provider position updates and serves the live overlay.
package location

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"khadamat/internal/types"
)

type PositionStore interface {
	SetPosition(ctx context.Context, id types.ID, p types.Point) error
	RemovePosition(ctx context.Context, id types.ID) error
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error)
}

type Service struct {
	store PositionStore
	log   *zap.Logger
}

func NewService(store PositionStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

type Update struct {
	ProviderID types.ID
	Position   types.Point
	// Offline removes the provider from the live overlay.
	Offline bool
}

func (s *Service) Update(ctx context.Context, u Update) error {
	if u.ProviderID == "" {
		return types.Invalid("provider_id", "is required")
	}
	if u.Offline {
		if err := s.store.RemovePosition(ctx, u.ProviderID); err != nil {
			return fmt.Errorf("removing position of %s: %w", u.ProviderID, err)
		}
		return nil
	}
	if err := ValidateCoordinates(u.Position); err != nil {
		return err
	}
	if err := s.store.SetPosition(ctx, u.ProviderID, u.Position); err != nil {
		return fmt.Errorf("storing position of %s: %w", u.ProviderID, err)
	}
	s.log.Debug("provider position updated",
		zap.String("provider_id", string(u.ProviderID)),
		zap.Float64("lat", u.Position.Lat),
		zap.Float64("lng", u.Position.Lng),
	)
	return nil
}

func (s *Service) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	return s.store.Positions(ctx, ids)
}
