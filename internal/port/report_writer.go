package port

import (
	"context"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

type ReportFormat string

const (
	ReportText ReportFormat = "text"
	ReportPDF  ReportFormat = "pdf"
)

type ReportWriter interface {
	Export(ctx context.Context, materials []domain.Material, path string, format ReportFormat) error
}
