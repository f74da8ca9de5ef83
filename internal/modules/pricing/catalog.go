package pricing

import (
	"context"

	"khadamat/internal/types"
)

// MemoryCatalog serves a fixed set of services; used when no database is configured.
type MemoryCatalog struct {
	services map[types.ID]ServiceRecord
}

func NewMemoryCatalog(records ...ServiceRecord) *MemoryCatalog {
	m := &MemoryCatalog{services: make(map[types.ID]ServiceRecord, len(records))}
	for _, r := range records {
		m.services[r.ID] = r
	}
	return m
}

func (m *MemoryCatalog) GetService(_ context.Context, id types.ID) (ServiceRecord, error) {
	r, ok := m.services[id]
	if !ok {
		return ServiceRecord{}, ErrServiceNotFound
	}
	return r, nil
}
