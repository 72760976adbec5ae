package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

const (
	materialTable = "material"
	logTable      = "inventory_log"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var materialColumns = []string{
	"material_id", "name", "category", "quantity", "length",
	"shelf_location", "shelf_height", "min_quantity", "color",
}

var searchColumnNames = map[domain.SearchColumn]string{
	domain.SearchByName:     "name",
	domain.SearchByCategory: "category",
	domain.SearchByLength:   "length",
	domain.SearchByColor:    "color",
}

// \ is MySQL's default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	query, args, err := builder.Select(materialColumns...).
		From(materialTable).
		OrderBy("material_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	return m.queryMaterials(ctx, "list materials", query, args...)
}

func (m *MySQLAdapter) SearchMaterials(ctx context.Context, column domain.SearchColumn, term string) ([]domain.Material, error) {
	col, ok := searchColumnNames[column]
	if !ok {
		return nil, domain.NewValidationError("column", fmt.Sprintf("unsupported search column %q", column))
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	query, args, err := builder.Select(materialColumns...).
		From(materialTable).
		Where(sq.Expr("LOWER(CAST("+col+" AS CHAR)) LIKE ?", pattern)).
		OrderBy("material_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return m.queryMaterials(ctx, "search materials", query, args...)
}

func (m *MySQLAdapter) queryMaterials(ctx context.Context, op, query string, args ...any) ([]domain.Material, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	materials := make([]domain.Material, 0)
	for rows.Next() {
		var mat domain.Material
		if err := rows.Scan(
			&mat.ID, &mat.Name, &mat.Category, &mat.Quantity, &mat.Length,
			&mat.ShelfLocation, &mat.ShelfHeight, &mat.MinQuantity, &mat.Color,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		materials = append(materials, mat)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return materials, nil
}

func (m *MySQLAdapter) Withdraw(ctx context.Context, w domain.Withdrawal) (int, error) {
	if w.Quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, mapError(err, "begin tx")
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM material WHERE material_id = ? FOR UPDATE`,
		string(w.MaterialTag),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("material %s: %w", w.MaterialTag, domain.ErrNotFound)
	}
	if err != nil {
		return 0, mapError(err, "lock material")
	}

	if current < w.Quantity {
		return current, fmt.Errorf("material %s has %d, requested %d: %w",
			w.MaterialTag, current, w.Quantity, domain.ErrInsufficientStock)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE material
		SET quantity = quantity - ?
		WHERE material_id = ? AND quantity >= ?`,
		w.Quantity, string(w.MaterialTag), w.Quantity,
	)
	if err != nil {
		return 0, mapError(err, "update material")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return current, fmt.Errorf("material %s: %w", w.MaterialTag, domain.ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_log (user_tag, material_tag, quantity, action, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		string(w.UserTag), string(w.MaterialTag), w.Quantity, string(domain.ActionWithdrawal), w.At.UTC(),
	)
	if err != nil {
		return 0, mapError(err, "insert log")
	}

	if err := tx.Commit(); err != nil {
		return 0, mapError(err, "commit")
	}

	return current - w.Quantity, nil
}

func (m *MySQLAdapter) ListLog(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	query, args, err := builder.Select("id", "user_tag", "material_tag", "quantity", "action", "timestamp").
		From(logTable).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log query: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list log")
	}
	defer rows.Close()

	entries := make([]domain.AuditLogEntry, 0, limit)
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.UserTag, &e.MaterialTag, &e.Quantity, &e.Action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("list log: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list log")
	}
	return entries, nil
}

// UpsertMaterial inserts or replaces a material row. Used for seeding.
func (m *MySQLAdapter) UpsertMaterial(ctx context.Context, mat domain.Material) error {
	query, args, err := builder.Insert(materialTable).
		Columns(materialColumns...).
		Values(mat.ID, mat.Name, mat.Category, mat.Quantity, mat.Length,
			mat.ShelfLocation, mat.ShelfHeight, mat.MinQuantity, mat.Color).
		Suffix(`ON DUPLICATE KEY UPDATE name = VALUES(name), category = VALUES(category),
			quantity = VALUES(quantity), length = VALUES(length), shelf_location = VALUES(shelf_location),
			shelf_height = VALUES(shelf_height), min_quantity = VALUES(min_quantity), color = VALUES(color)`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "upsert material")
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return mapError(m.db.PingContext(ctx), "ping")
}
