package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

// Mock InventoryRepository
type mockInventoryRepo struct {
	mu        sync.Mutex
	materials []domain.Material
	log       []domain.AuditLogEntry
	calls     int
	err       error
}

func newMockInventoryRepo(materials ...domain.Material) *mockInventoryRepo {
	return &mockInventoryRepo{materials: materials}
}

func (m *mockInventoryRepo) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Material, len(m.materials))
	copy(out, m.materials)
	return out, nil
}

func (m *mockInventoryRepo) SearchMaterials(ctx context.Context, column domain.SearchColumn, term string) ([]domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	term = strings.ToLower(term)
	out := make([]domain.Material, 0)
	for _, mat := range m.materials {
		var field string
		switch column {
		case domain.SearchByName:
			field = mat.Name
		case domain.SearchByCategory:
			field = mat.Category
		case domain.SearchByLength:
			field = mat.Length.String()
		case domain.SearchByColor:
			field = mat.Color
		}
		if strings.Contains(strings.ToLower(field), term) {
			out = append(out, mat)
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) Withdraw(ctx context.Context, w domain.Withdrawal) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}

	for i := range m.materials {
		if m.materials[i].ID != string(w.MaterialTag) {
			continue
		}
		if m.materials[i].Quantity < w.Quantity {
			return m.materials[i].Quantity, fmt.Errorf("material %s: %w", w.MaterialTag, domain.ErrInsufficientStock)
		}
		m.materials[i].Quantity -= w.Quantity
		m.log = append(m.log, domain.AuditLogEntry{
			ID:          int64(len(m.log) + 1),
			UserTag:     w.UserTag,
			MaterialTag: w.MaterialTag,
			Quantity:    w.Quantity,
			Action:      domain.ActionWithdrawal,
			Timestamp:   w.At,
		})
		return m.materials[i].Quantity, nil
	}
	return 0, fmt.Errorf("material %s: %w", w.MaterialTag, domain.ErrNotFound)
}

func (m *mockInventoryRepo) ListLog(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	out := make([]domain.AuditLogEntry, 0, limit)
	for i := len(m.log) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.log[i])
	}
	return out, nil
}

func (m *mockInventoryRepo) Ping(ctx context.Context) error {
	return m.err
}

func (m *mockInventoryRepo) quantity(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mat := range m.materials {
		if mat.ID == id {
			return mat.Quantity
		}
	}
	return -1
}

func (m *mockInventoryRepo) material(id string) domain.Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mat := range m.materials {
		if mat.ID == id {
			return mat
		}
	}
	return domain.Material{}
}

func (m *mockInventoryRepo) logLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

func (m *mockInventoryRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Mock AttemptGuard
type mockGuard struct {
	mu       sync.Mutex
	now      func() time.Time
	claimed  map[string]time.Time
	releases int
	err      error
}

func newMockGuard() *mockGuard {
	return &mockGuard{now: time.Now, claimed: make(map[string]time.Time)}
}

func (g *mockGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if until, ok := g.claimed[key]; ok && !g.now().After(until) {
		return false, nil
	}
	g.claimed[key] = g.now().Add(ttl)
	return true, nil
}

func (g *mockGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.releases++
	delete(g.claimed, key)
	return nil
}

func (g *mockGuard) held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	until, ok := g.claimed[key]
	return ok && !g.now().After(until)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 26, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
