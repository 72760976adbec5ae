package scanner

import (
	"io"
	"log/slog"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

// BellNotifier rings the terminal bell and logs each successful read.
type BellNotifier struct {
	out    io.Writer
	beep   bool
	logger *slog.Logger
}

func NewBellNotifier(out io.Writer, beep bool, logger *slog.Logger) *BellNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BellNotifier{out: out, beep: beep, logger: logger}
}

func (n *BellNotifier) Notify(role domain.ScanRole, tag domain.TagID) {
	if n.beep && n.out != nil {
		io.WriteString(n.out, "\a")
	}
	n.logger.Info("tag scanned", "role", role, "tag", tag)
}
