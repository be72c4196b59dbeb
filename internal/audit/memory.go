package audit

import (
	"context"
	"sync"
)

// InMemoryLog keeps entries in insertion order in process memory.
type InMemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Append(_ context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *InMemoryLog) List(_ context.Context) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry{}, l.entries...), nil
}
