package location

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"khadamat/internal/types"
)

type memoryPositions struct {
	mu  sync.Mutex
	pos map[types.ID]types.Point
}

func newMemoryPositions() *memoryPositions {
	return &memoryPositions{pos: make(map[types.ID]types.Point)}
}

func (m *memoryPositions) SetPosition(_ context.Context, id types.ID, p types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos[id] = p
	return nil
}

func (m *memoryPositions) RemovePosition(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pos, id)
	return nil
}

func (m *memoryPositions) Positions(_ context.Context, ids []types.ID) (map[types.ID]types.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[types.ID]types.Point)
	for _, id := range ids {
		if p, ok := m.pos[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestService_Update(t *testing.T) {
	store := newMemoryPositions()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Update(ctx, Update{ProviderID: "p1", Position: types.Point{Lat: 33.57, Lng: -7.59}}); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	got, _ := svc.Positions(ctx, []types.ID{"p1", "p2"})
	if len(got) != 1 || got["p1"].Lat != 33.57 {
		t.Fatalf("positions = %v", got)
	}

	if err := svc.Update(ctx, Update{ProviderID: "p1", Offline: true}); err != nil {
		t.Fatalf("offline update = %v", err)
	}
	got, _ = svc.Positions(ctx, []types.ID{"p1"})
	if len(got) != 0 {
		t.Fatalf("expected p1 removed, got %v", got)
	}
}

func TestService_UpdateRejectsInvalid(t *testing.T) {
	svc := NewService(newMemoryPositions(), nil)
	ctx := context.Background()

	if err := svc.Update(ctx, Update{Position: types.Point{Lat: 1, Lng: 1}}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("missing id: expected validation error, got %v", err)
	}
	if err := svc.Update(ctx, Update{ProviderID: "p1", Position: types.Point{Lat: 95, Lng: 1}}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("bad lat: expected validation error, got %v", err)
	}
}

func TestStore_RedisPositions(t *testing.T) {
	redisAddr := os.Getenv("KHADAMAT_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("KHADAMAT_TEST_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(rdb)
	ctx := context.Background()
	id := types.ID(fmt.Sprintf("provider_test_%d", time.Now().UnixNano()))
	defer store.RemovePosition(ctx, id)

	if err := store.SetPosition(ctx, id, types.Point{Lat: 33.5731, Lng: -7.5898}); err != nil {
		t.Fatalf("SetPosition() = %v", err)
	}
	got, err := store.Positions(ctx, []types.ID{id, "provider_never_seen"})
	if err != nil {
		t.Fatalf("Positions() = %v", err)
	}
	p, ok := got[id]
	if !ok {
		t.Fatalf("expected position for %s", id)
	}
	// Redis GEO stores a 52-bit geohash, precise to well under a metre.
	if d := Distance(p, types.Point{Lat: 33.5731, Lng: -7.5898}); d > 0.01 {
		t.Errorf("stored position drifted by %f km", d)
	}
	if _, ok := got["provider_never_seen"]; ok {
		t.Error("unexpected position for unknown provider")
	}
}
