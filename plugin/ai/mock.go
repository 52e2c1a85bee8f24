package ai

import (
	"context"
	"sync"
)

// MockCompletionService is a scriptable CompletionService for testing.
type MockCompletionService struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     [][]Message

	next int
}

func NewMockCompletionService(responses ...string) *MockCompletionService {
	return &MockCompletionService{Responses: responses}
}

func (m *MockCompletionService) Complete(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[m.next%len(m.Responses)]
	m.next++
	return resp, nil
}

// MockEmbeddingService returns a fixed vector for any input.
type MockEmbeddingService struct {
	Vector []float32
	Err    error

	mu    sync.Mutex
	Texts []string
}

func NewMockEmbeddingService(dim int) *MockEmbeddingService {
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.1
	}
	return &MockEmbeddingService{Vector: v}
}

func (m *MockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return len(m.Vector)
}
