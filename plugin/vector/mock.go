package vector

import (
	"context"
	"sort"
	"sync"
)

// MockIndex is an in-memory Index for testing. Scores are assigned by
// insertion order (earlier points rank higher), which stands in for
// descending similarity.
type MockIndex struct {
	mu          sync.RWMutex
	collections map[string][]UpsertPoint

	// SearchErr, when set, is returned by every Search call.
	SearchErr error
	// Searched records the collections queried, in order.
	Searched []string
}

func NewMockIndex() *MockIndex {
	return &MockIndex{collections: make(map[string][]UpsertPoint)}
}

// Seed replaces the contents of a collection.
func (m *MockIndex) Seed(collection string, points []UpsertPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = points
}

func (m *MockIndex) Search(_ context.Context, collection string, _ []float32, opts SearchOptions) ([]Point, error) {
	m.mu.Lock()
	m.Searched = append(m.Searched, collection)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	excluded := make(map[string]bool, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		excluded[id] = true
	}

	var results []Point
	for i, p := range m.collections[collection] {
		if excluded[p.ID] {
			continue
		}
		if p.Payload.Price < opts.PriceMin || p.Payload.Price > opts.PriceMax {
			continue
		}
		results = append(results, Point{
			ID:      p.ID,
			Score:   1 - float32(i)/float32(len(m.collections[collection])+1),
			Payload: p.Payload,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (m *MockIndex) CollectionExists(_ context.Context, collection string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[collection]
	return ok, nil
}

func (m *MockIndex) Upsert(_ context.Context, collection string, points []UpsertPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], points...)
	return nil
}

func (m *MockIndex) Scroll(_ context.Context, collection string, limit int) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Point
	for _, p := range m.collections[collection] {
		results = append(results, Point{ID: p.ID, Payload: p.Payload})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
