package metrics

import (
	"sync"
	"time"
)

// Metrics collects counters for a single pipeline run. All methods are
// safe on a nil receiver so stages can run without a collector.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched        int64
	FeedsFailed         int64
	CandidatesCollected int64
	URLsSelected        int64
	SelectionFallbacks  int64
	ArticlesExtracted   int64
	ExtractionFailures  int64
	ModelRequests       int64

	// Timings
	StageDurations map[string]time.Duration
	StartedAt      time.Time

	// Status
	LastError string
	IsHealthy bool
}

func New() *Metrics {
	return &Metrics{
		StageDurations: make(map[string]time.Duration),
		StartedAt:      time.Now(),
		IsHealthy:      true,
	}
}

func (m *Metrics) add(counter *int64, n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter += int64(n)
}

func (m *Metrics) IncrementFeedsFetched() {
	if m != nil {
		m.add(&m.FeedsFetched, 1)
	}
}

func (m *Metrics) IncrementFeedsFailed() {
	if m != nil {
		m.add(&m.FeedsFailed, 1)
	}
}

func (m *Metrics) AddCandidates(n int) {
	if m != nil {
		m.add(&m.CandidatesCollected, n)
	}
}

func (m *Metrics) AddSelected(n int) {
	if m != nil {
		m.add(&m.URLsSelected, n)
	}
}

func (m *Metrics) IncrementSelectionFallbacks() {
	if m != nil {
		m.add(&m.SelectionFallbacks, 1)
	}
}

func (m *Metrics) IncrementArticlesExtracted() {
	if m != nil {
		m.add(&m.ArticlesExtracted, 1)
	}
}

func (m *Metrics) IncrementExtractionFailures() {
	if m != nil {
		m.add(&m.ExtractionFailures, 1)
	}
}

func (m *Metrics) IncrementModelRequests() {
	if m != nil {
		m.add(&m.ModelRequests, 1)
	}
}

// RecordStage stores how long a named stage took.
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StageDurations[stage] = duration
}

func (m *Metrics) SetError(err string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"feeds_fetched":        m.FeedsFetched,
		"feeds_failed":         m.FeedsFailed,
		"candidates_collected": m.CandidatesCollected,
		"urls_selected":        m.URLsSelected,
		"selection_fallbacks":  m.SelectionFallbacks,
		"articles_extracted":   m.ArticlesExtracted,
		"extraction_failures":  m.ExtractionFailures,
		"model_requests":       m.ModelRequests,
		"total_time_ms":        time.Since(m.StartedAt).Milliseconds(),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
	for stage, d := range m.StageDurations {
		stats[stage+"_ms"] = d.Milliseconds()
	}
	return stats
}
