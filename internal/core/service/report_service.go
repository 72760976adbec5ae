package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/port"
)

type ReportService struct {
	store  port.InventoryRepository
	writer port.ReportWriter
	logger *slog.Logger
}

func NewReportService(store port.InventoryRepository, writer port.ReportWriter, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{store: store, writer: writer, logger: logger.With("component", "report")}
}

// Save writes the full material table to path and returns the number of rows written.
// An empty format is inferred from the file extension.
func (s *ReportService) Save(ctx context.Context, path, format string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, domain.NewValidationError("path", "must not be empty")
	}
	f, err := ResolveReportFormat(path, format)
	if err != nil {
		return 0, err
	}

	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.writer.Export(ctx, materials, path, f); err != nil {
		return 0, err
	}
	s.logger.Info("report saved", "path", path, "format", f, "rows", len(materials))
	return len(materials), nil
}

func ResolveReportFormat(path, format string) (port.ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			return port.ReportPDF, nil
		}
		return port.ReportText, nil
	case "text", "txt":
		return port.ReportText, nil
	case "pdf":
		return port.ReportPDF, nil
	}
	return "", domain.NewValidationError("format", "must be text or pdf")
}
