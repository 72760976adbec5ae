package port

import (
	"context"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

type TagScanner interface {
	// Scan blocks until a tag is read or the reader gives up; any failure is domain.ErrNotDetected.
	// A reader that can never produce another tag also reports domain.ErrReaderClosed.
	Scan(ctx context.Context, role domain.ScanRole) (domain.TagID, error)
}
