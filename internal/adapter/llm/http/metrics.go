package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for API calls.
type Metrics interface {
	// RecordRequest records an API request
	RecordRequest(provider, model string)

	// RecordDuration records request duration
	RecordDuration(provider, model string, duration time.Duration)

	// RecordTokens records token usage
	RecordTokens(provider, model string, tokensIn, tokensOut int)

	// RecordCost records API cost
	RecordCost(provider, model string, cost float64)

	// RecordError records an error
	RecordError(provider, model string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics for one run. The per-model
// breakdown separates review traffic from any secondary model in use.
type Stats struct {
	TotalRequests  int
	TotalTokensIn  int
	TotalTokensOut int
	TotalCost      float64
	TotalDuration  time.Duration
	ErrorCount     int
	ByModel        map[string]ModelStats
}

// ModelStats contains per-model statistics.
type ModelStats struct {
	Provider  string
	Requests  int
	TokensIn  int
	TokensOut int
	Cost      float64
	Duration  time.Duration
	Errors    int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByModel: make(map[string]ModelStats),
		},
	}
}

func (m *DefaultMetrics) update(provider, model string, fn func(*ModelStats)) {
	ms := m.stats.ByModel[model]
	ms.Provider = provider
	fn(&ms)
	m.stats.ByModel[model] = ms
}

// RecordRequest increments request counters.
func (m *DefaultMetrics) RecordRequest(provider, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++
	m.update(provider, model, func(ms *ModelStats) { ms.Requests++ })
}

// RecordDuration records API call duration.
func (m *DefaultMetrics) RecordDuration(provider, model string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration
	m.update(provider, model, func(ms *ModelStats) { ms.Duration += duration })
}

// RecordTokens records token usage.
func (m *DefaultMetrics) RecordTokens(provider, model string, tokensIn, tokensOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalTokensIn += tokensIn
	m.stats.TotalTokensOut += tokensOut
	m.update(provider, model, func(ms *ModelStats) {
		ms.TokensIn += tokensIn
		ms.TokensOut += tokensOut
	})
}

// RecordCost records API cost.
func (m *DefaultMetrics) RecordCost(provider, model string, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalCost += cost
	m.update(provider, model, func(ms *ModelStats) { ms.Cost += cost })
}

// RecordError records an error.
func (m *DefaultMetrics) RecordError(provider, model string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++
	m.update(provider, model, func(ms *ModelStats) { ms.Errors++ })
}

// GetStats returns a copy of current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statsCopy := m.stats
	statsCopy.ByModel = make(map[string]ModelStats, len(m.stats.ByModel))
	for k, v := range m.stats.ByModel {
		statsCopy.ByModel[k] = v
	}
	return statsCopy
}
