package chatctx

import (
	"context"
	"sync"
	"time"
)

// MockFastTier is an in-memory FastTier for tests. TTLs are recorded but not
// enforced.
type MockFastTier struct {
	mu sync.Mutex

	values map[string]string
	TTLs   map[string]time.Duration

	GetErr error
	SetErr error
}

func NewMockFastTier() *MockFastTier {
	return &MockFastTier{
		values: map[string]string{},
		TTLs:   map[string]time.Duration{},
	}
}

func (t *MockFastTier) Get(_ context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.GetErr != nil {
		return "", t.GetErr
	}
	value, ok := t.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return value, nil
}

func (t *MockFastTier) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.SetErr != nil {
		return t.SetErr
	}
	t.values[key] = value
	t.TTLs[key] = ttl
	return nil
}

func (t *MockFastTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, key)
	delete(t.TTLs, key)
	return nil
}

func (t *MockFastTier) Close() error {
	return nil
}
