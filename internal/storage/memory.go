package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schutz/internal/models"
)

const defaultReadingCapacity = 10000

// MemoryStore is an in-process Store for local development and tests.
// The reading buffer is bounded; when full, the oldest readings are
// dropped.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []models.Reading
	capacity int
	rules    map[string]models.AlertRule
}

// NewMemoryStore creates a memory store with the given reading
// capacity (<=0 uses the default).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultReadingCapacity
	}
	return &MemoryStore{
		readings: make([]models.Reading, 0, capacity),
		capacity: capacity,
		rules:    make(map[string]models.AlertRule),
	}
}

// AppendReadings stores the whole batch under one lock acquisition, so
// concurrent cycles never observe a partial cycle.
func (s *MemoryStore) AppendReadings(ctx context.Context, readings []models.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, readings...)
	if over := len(s.readings) - s.capacity; over > 0 {
		s.readings = s.readings[over:]
	}
	return nil
}

// ListRules returns a copy of the current rule set.
func (s *MemoryStore) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]models.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *MemoryStore) CreateRule(ctx context.Context, rule models.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = rule
	return nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	delete(s.rules, id)
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *MemoryStore) RecentReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.readings) {
		limit = len(s.readings)
	}
	out := make([]models.Reading, 0, limit)
	for i := len(s.readings) - 1; i >= len(s.readings)-limit; i-- {
		out = append(out, s.readings[i])
	}
	return out, nil
}

func (s *MemoryStore) PruneReadingsBefore(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.readings[:0]
	for _, r := range s.readings {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	s.readings = kept
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
