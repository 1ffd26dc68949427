package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/country-insights/internal/insights"
)

var (
	// ErrNotFound is returned when no probe has been recorded for a provider.
	ErrNotFound = errors.New("no probe results for provider")
)

// ProbeHistory holds a time-ordered list of probe results for a provider.
type ProbeHistory struct {
	Results []insights.ProbeResult
}

// MemoryStore is a concurrency-safe in-memory store of upstream probe
// results. It never holds domain responses.
type MemoryStore struct {
	mu sync.RWMutex

	// key: provider name
	data map[string]*ProbeHistory

	maxHistory int           // max results per provider (<= 0 = unlimited)
	maxAge     time.Duration // max age of results (<= 0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveProbe appends a result for its provider and enforces retention.
func (s *MemoryStore) SaveProbe(result insights.ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[result.Provider]
	if !ok {
		history = &ProbeHistory{}
		s.data[result.Provider] = history
	}

	history.Results = append(history.Results, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	// Enforce retention by age; the newest result is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results)-1; i++ {
			if !history.Results[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		history.Results = history.Results[i:]
	}
}

// Latest returns the most recent result for a provider.
func (s *MemoryStore) Latest(provider string) (insights.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Results) == 0 {
		return insights.ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// History returns a copy of all retained results for a provider, oldest first.
func (s *MemoryStore) History(provider string) ([]insights.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[provider]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	out := make([]insights.ProbeResult, len(history.Results))
	copy(out, history.Results)
	return out, nil
}

// Providers returns the names of all providers with results, sorted.
func (s *MemoryStore) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
