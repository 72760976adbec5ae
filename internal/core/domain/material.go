package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type StockLevel string

const (
	StockLevelLow    StockLevel = "low_stock"
	StockLevelNormal StockLevel = "normal"
)

type Material struct {
	ID            string          `json:"material_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	Length        decimal.Decimal `json:"length"`
	ShelfLocation string          `json:"shelf_location"`
	ShelfHeight   decimal.Decimal `json:"shelf_height"`
	MinQuantity   int             `json:"min_quantity"`
	Color         string          `json:"color"`
}

// Level reports low_stock when the quantity has dropped below the configured minimum.
func (m Material) Level() StockLevel {
	if m.Quantity < m.MinQuantity {
		return StockLevelLow
	}
	return StockLevelNormal
}

// Fields returns the report columns in table order.
func (m Material) Fields() []string {
	return []string{
		m.ID,
		m.Name,
		m.Category,
		strconv.Itoa(m.Quantity),
		m.Length.String(),
		m.ShelfLocation,
		m.ShelfHeight.String(),
		strconv.Itoa(m.MinQuantity),
		m.Color,
	}
}

type StockRow struct {
	Material
	Level StockLevel `json:"level"`
}

func NewStockRow(m Material) StockRow {
	return StockRow{Material: m, Level: m.Level()}
}

type SearchColumn string

const (
	SearchByName     SearchColumn = "Name"
	SearchByCategory SearchColumn = "Category"
	SearchByLength   SearchColumn = "Length"
	SearchByColor    SearchColumn = "Color"
)

var searchColumns = map[string]SearchColumn{
	"name":     SearchByName,
	"category": SearchByCategory,
	"length":   SearchByLength,
	"color":    SearchByColor,
}

// ParseSearchColumn accepts the column label in any letter case.
func ParseSearchColumn(s string) (SearchColumn, error) {
	col, ok := searchColumns[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", NewValidationError("column", "must be one of Name, Category, Length, Color")
	}
	return col, nil
}
