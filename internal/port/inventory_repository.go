package port

import (
	"context"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

type InventoryRepository interface {
	// ListMaterials returns every material in material_id order
	ListMaterials(ctx context.Context) ([]domain.Material, error)

	// SearchMaterials matches a case-insensitive substring on one column
	SearchMaterials(ctx context.Context, column domain.SearchColumn, term string) ([]domain.Material, error)

	// Withdraw locks the material row, checks the quantity, decrements it and appends a log entry in one transaction.
	// Returns the quantity left after the decrement.
	Withdraw(ctx context.Context, w domain.Withdrawal) (int, error)

	// ListLog returns the most recent audit entries, newest first
	ListLog(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)

	Ping(ctx context.Context) error
}
