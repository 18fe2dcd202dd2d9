package cache

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	val     []byte
	expires time.Time
}

// Local is the in-process tier. Entries expire lazily on read; an
// invalidation sweeps the whole map under one lock, which is fine at the
// key counts a single city produces.
type Local struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]localEntry
}

// NewLocal returns a process-local tier. ttl <= 0 means entries never
// expire (invalidation still removes them).
func NewLocal(ttl time.Duration) *Local {
	return &Local{ttl: ttl, entries: map[string]localEntry{}}
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(l.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (l *Local) Put(_ context.Context, key string, val []byte) error {
	e := localEntry{val: val}
	if l.ttl > 0 {
		e.expires = time.Now().Add(l.ttl)
	}
	l.mu.Lock()
	l.entries[key] = e
	l.mu.Unlock()
	return nil
}

func (l *Local) Invalidate(_ context.Context, pattern string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.entries {
		if matchPattern(pattern, k) {
			delete(l.entries, k)
		}
	}
	return nil
}
