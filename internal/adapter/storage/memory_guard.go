package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is the single-process AttemptGuard used when no Redis address is configured.
type MemoryGuard struct {
	mu     sync.Mutex
	now    func() time.Time
	claims map[string]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

func (g *MemoryGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.claims {
		if now.After(expires) {
			delete(g.claims, k)
		}
	}

	if _, ok := g.claims[key]; ok {
		return false, nil
	}
	g.claims[key] = now.Add(ttl)
	return true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}
