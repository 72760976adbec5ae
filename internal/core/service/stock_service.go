package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/port"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// StockService is the read-only side of the inventory.
type StockService struct {
	store  port.InventoryRepository
	logger *slog.Logger
}

func NewStockService(store port.InventoryRepository, logger *slog.Logger) *StockService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockService{store: store, logger: logger.With("component", "stock")}
}

func (s *StockService) ListAll(ctx context.Context) ([]domain.StockRow, error) {
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.StockRow, 0, len(materials))
	for _, m := range materials {
		rows = append(rows, domain.NewStockRow(m))
	}
	return rows, nil
}

// Search validates its input before touching the store.
func (s *StockService) Search(ctx context.Context, column, term string) ([]domain.Material, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("term", "please enter a search term")
	}
	col, err := domain.ParseSearchColumn(column)
	if err != nil {
		return nil, err
	}

	materials, err := s.store.SearchMaterials(ctx, col, term)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search", "column", col, "term", term, "results", len(materials))
	return materials, nil
}

// RecentLog returns audit entries newest first. limit <= 0 selects the default.
func (s *StockService) RecentLog(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultLogLimit
	case limit > maxLogLimit:
		limit = maxLogLimit
	}
	return s.store.ListLog(ctx, limit)
}

func (s *StockService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
