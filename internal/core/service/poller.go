package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/port"
)

// ScanSink receives scans from the poller. Workflow implements it.
type ScanSink interface {
	NextRole() domain.ScanRole
	Record(ctx context.Context, ev domain.ScanEvent) (*domain.Attempt, error)
}

// Poller is the only reader of the tag scanner. It keeps the reader busy in the
// background and hands every detected tag to the sink. Operators steer the role of
// the next read with Request instead of reading the scanner themselves.
type Poller struct {
	scanner  port.TagScanner
	sink     ScanSink
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	requested domain.ScanRole
	interrupt context.CancelFunc
	stopped   bool
}

func NewPoller(scanner port.TagScanner, sink ScanSink, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		scanner:  scanner,
		sink:     sink,
		interval: interval,
		now:      time.Now,
		logger:   logger.With("component", "poller"),
	}
}

// Request makes the next tag read count as role, cutting short a read already
// waiting for the other role. It does not wait for the tag.
func (p *Poller) Request(role domain.ScanRole) error {
	role, err := domain.ParseScanRole(string(role))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return domain.ErrReaderClosed
	}
	p.requested = role
	if p.interrupt != nil {
		p.interrupt()
	}
	p.logger.Info("scan requested", "role", role)
	return nil
}

// Pending returns the role a Request is still waiting on, if any.
func (p *Poller) Pending() (domain.ScanRole, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.requested, p.requested != ""
}

// Run polls until ctx is cancelled or the reader closes. Misses back off for the
// poll interval; attempt failures are logged and never stop the loop.
func (p *Poller) Run(ctx context.Context) {
	defer p.stop()

	for ctx.Err() == nil {
		scanCtx, cancel := context.WithCancel(ctx)
		role := p.begin(cancel)

		tag, err := p.scanner.Scan(scanCtx, role)
		interrupted := p.end(scanCtx)
		cancel()

		if err != nil {
			switch {
			case ctx.Err() != nil:
				return
			case interrupted:
				continue
			case errors.Is(err, domain.ErrReaderClosed):
				p.logger.Error("tag reader closed, polling stopped", "error", err)
				return
			case !errors.Is(err, domain.ErrNotDetected):
				p.logger.Debug("scan failed", "role", role, "error", err)
			}
			if !sleepCtx(ctx, p.interval) {
				return
			}
			continue
		}

		p.consume(role)
		ev := domain.NewScanEvent(role, tag, p.now())
		attempt, err := p.sink.Record(ctx, ev)
		switch {
		case err != nil:
			p.logger.Debug("scan produced rejected attempt", "role", role, "tag", tag, "error", err)
		case attempt != nil:
			p.logger.Debug("scan completed pair", "attempt_id", attempt.ID)
		}
	}
}

// begin picks the role for the next read: a pending request wins over the sink.
func (p *Poller) begin(cancel context.CancelFunc) domain.ScanRole {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.interrupt = cancel
	if p.requested != "" {
		return p.requested
	}
	return p.sink.NextRole()
}

// end reports whether the read was cut short by Request.
func (p *Poller) end(scanCtx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.interrupt = nil
	return scanCtx.Err() != nil && p.requested != ""
}

func (p *Poller) consume(role domain.ScanRole) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.requested == role {
		p.requested = ""
	}
}

func (p *Poller) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	p.requested = ""
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
