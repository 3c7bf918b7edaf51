// Package alertlog holds received alerts in a bounded, thread-safe
// ring buffer. When the buffer is full the oldest entry is dropped.
package alertlog

import "sync"

const defaultCapacity = 50

// Entry is one received alert payload.
type Entry map[string]interface{}

// Log is a bounded drop-oldest ring buffer of alert entries.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// New creates a log with the given capacity (<=0 uses the default).
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, evicting the oldest when at capacity.
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry)
}

// All returns a copy of the entries, oldest first.
func (l *Log) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
