package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates counters for the recommendation pipeline.
type Metrics struct {
	mu sync.Mutex

	turnTotal    atomic.Int64
	turnFailed   atomic.Int64
	streamChunks atomic.Int64

	stageMetrics map[string]*StageMetrics

	durations    []time.Duration
	maxDurations int
}

// StageMetrics represents metrics for one pipeline stage (intent, retrieval,
// narrative).
type StageMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		stageMetrics: make(map[string]*StageMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordTurn records a chat turn entering the pipeline.
func (m *Metrics) RecordTurn() {
	m.turnTotal.Add(1)
}

// RecordTurnFailure records a turn that ended with an error event.
func (m *Metrics) RecordTurnFailure() {
	m.turnFailed.Add(1)
}

// RecordStage records one completed pipeline stage.
func (m *Metrics) RecordStage(stage string, duration time.Duration, err error) {
	sm := m.getStageMetrics(stage)
	sm.executionCount.Add(1)
	sm.totalDuration.Add(duration.Milliseconds())
	if err != nil {
		sm.errorCount.Add(1)
	}

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// RecordStreamChunk records a stream event sent to the client.
func (m *Metrics) RecordStreamChunk() {
	m.streamChunks.Add(1)
}

// GetTurnTotal returns the total number of turns.
func (m *Metrics) GetTurnTotal() int64 {
	return m.turnTotal.Load()
}

// GetTurnFailed returns the total number of failed turns.
func (m *Metrics) GetTurnFailed() int64 {
	return m.turnFailed.Load()
}

// GetStreamChunks returns the total number of stream events sent.
func (m *Metrics) GetStreamChunks() int64 {
	return m.streamChunks.Load()
}

// StageSnapshot is a read-only view of one stage's counters.
type StageSnapshot struct {
	Executions    int64 `json:"executions"`
	Errors        int64 `json:"errors"`
	AvgDurationMs int64 `json:"avg_duration_ms"`
}

// Snapshot returns per-stage counters keyed by stage name.
func (m *Metrics) Snapshot() map[string]StageSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]StageSnapshot, len(m.stageMetrics))
	for name, sm := range m.stageMetrics {
		count := sm.executionCount.Load()
		snap := StageSnapshot{
			Executions: count,
			Errors:     sm.errorCount.Load(),
		}
		if count > 0 {
			snap.AvgDurationMs = sm.totalDuration.Load() / count
		}
		out[name] = snap
	}
	return out
}

func (m *Metrics) getStageMetrics(stage string) *StageMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sm, ok := m.stageMetrics[stage]; ok {
		return sm
	}
	sm := &StageMetrics{}
	m.stageMetrics[stage] = sm
	return sm
}
