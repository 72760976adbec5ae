package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

type Notifier interface {
	Notify(role domain.ScanRole, tag domain.TagID)
}

// LineReader adapts readers that emit one tag identifier per line, such as keyboard-wedge
// or serial NFC readers. The reader itself does not know about roles; the caller decides
// which role a scan fills.
type LineReader struct {
	lines   chan string
	done    chan struct{}
	err     error // set before done is closed
	timeout time.Duration
	notify  Notifier
}

func NewLineReader(src io.Reader, timeout time.Duration, notify Notifier) *LineReader {
	r := &LineReader{
		lines:   make(chan string),
		done:    make(chan struct{}),
		timeout: timeout,
		notify:  notify,
	}
	go r.readLoop(src)
	return r
}

func (r *LineReader) readLoop(src io.Reader) {
	defer close(r.done)

	s := bufio.NewScanner(src)
	for s.Scan() {
		tag := strings.TrimSpace(s.Text())
		if tag == "" {
			continue
		}
		r.lines <- tag
	}
	r.err = s.Err()
	if r.err == nil {
		r.err = io.EOF
	}
}

func (r *LineReader) Scan(ctx context.Context, role domain.ScanRole) (domain.TagID, error) {
	// A cancelled read must not take a line meant for the next one.
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNotDetected, err)
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case line := <-r.lines:
		tag := domain.TagID(line)
		if r.notify != nil {
			r.notify.Notify(role, tag)
		}
		return tag, nil
	case <-r.done:
		return "", fmt.Errorf("%w: %w: %w", domain.ErrNotDetected, domain.ErrReaderClosed, r.err)
	case <-timer.C:
		return "", domain.ErrNotDetected
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrNotDetected, ctx.Err())
	}
}
