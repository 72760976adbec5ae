package report

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/port"
)

const (
	cellWidth  = 200.0
	cellHeight = 10.0
	fontSize   = 12.0
)

// Exporter writes flat, header-less reports: one comma-joined line per material.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, materials []domain.Material, path string, format port.ReportFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch format {
	case port.ReportText:
		return writeText(path, materials)
	case port.ReportPDF:
		return writePDF(path, materials)
	}
	return domain.NewValidationError("format", fmt.Sprintf("unsupported report format %q", format))
}

func Line(m domain.Material) string {
	return strings.Join(m.Fields(), ", ")
}

func writeText(path string, materials []domain.Material) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", path, domain.ErrIO, err)
	}

	w := bufio.NewWriter(f)
	for _, m := range materials {
		w.WriteString(Line(m))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w: %w", path, domain.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", path, domain.ErrIO, err)
	}
	return nil
}

func writePDF(path string, materials []domain.Material) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, m := range materials {
		pdf.CellFormat(cellWidth, cellHeight, tr(Line(m)), "", 1, "", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w: %w", path, domain.ErrIO, err)
	}
	return nil
}
