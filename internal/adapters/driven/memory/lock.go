package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a process-local DistributedLock with TTL expiry, used when the
// API and workers run in one process without Redis.
type Lock struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewLock creates an empty Lock
func NewLock() *Lock {
	return &Lock{expires: make(map[string]time.Time)}
}

func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.expires[name]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.expires[name] = time.Now().Add(ttl)
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, name)
	return nil
}

func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[name]
	if !ok || time.Now().After(exp) {
		return fmt.Errorf("lock %s not held", name)
	}
	l.expires[name] = time.Now().Add(ttl)
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}

// IsHeld reports whether name is currently locked
func (l *Lock) IsHeld(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[name]
	return ok && time.Now().Before(exp)
}
