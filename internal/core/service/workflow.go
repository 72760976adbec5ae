package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/port"
)

const DefaultFreshnessWindow = 30 * time.Second

// Workflow pairs the latest user scan with the latest material scan and withdraws stock
// once both are held and fresh. A single mutex covers the scan slots and the
// read-check-write against the store, so two pairs completing together for the same
// material are applied one after the other.
type Workflow struct {
	store  port.InventoryRepository
	guard  port.AttemptGuard
	window time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu            sync.Mutex
	lastUser      *domain.ScanEvent
	lastMaterial  *domain.ScanEvent
	specify       bool
	quantityInput string
	lastAttempt   *domain.Attempt
}

type WorkflowOption func(*Workflow)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(store port.InventoryRepository, guard port.AttemptGuard, window time.Duration, logger *slog.Logger, opts ...WorkflowOption) *Workflow {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workflow{
		store:  store,
		guard:  guard,
		window: window,
		now:    time.Now,
		logger: logger.With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record stores ev in its role's slot, overwriting the previous scan of that role,
// and then evaluates the pair. A nil attempt means no pair was eligible yet.
func (w *Workflow) Record(ctx context.Context, ev domain.ScanEvent) (*domain.Attempt, error) {
	if ev.Tag == "" {
		return nil, domain.NewValidationError("tag", "must not be empty")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Role {
	case domain.RoleUser:
		w.lastUser = &ev
	case domain.RoleMaterial:
		w.lastMaterial = &ev
	default:
		return nil, domain.NewValidationError("role", "must be user or material")
	}
	w.logger.Debug("scan recorded", "role", ev.Role, "tag", ev.Tag, "scan_id", ev.ID)

	return w.evaluateLocked(ctx)
}

// Evaluate attempts a withdrawal with whatever scans are currently held.
func (w *Workflow) Evaluate(ctx context.Context) (*domain.Attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.evaluateLocked(ctx)
}

func (w *Workflow) evaluateLocked(ctx context.Context) (*domain.Attempt, error) {
	w.pruneLocked()
	if w.lastUser == nil || w.lastMaterial == nil {
		return nil, nil
	}

	user, material := *w.lastUser, *w.lastMaterial
	// Every attempt consumes the pair, applied or not.
	w.lastUser, w.lastMaterial = nil, nil

	attempt := &domain.Attempt{
		ID:          uuid.New(),
		UserTag:     user.Tag,
		MaterialTag: material.Tag,
		At:          w.now(),
	}
	w.lastAttempt = attempt

	qty, err := w.requestedQuantityLocked()
	if err != nil {
		return w.reject(attempt, err)
	}
	attempt.Requested = qty

	// The same pair again within the window is a duplicate read. Guard errors fail open.
	key := pairKey(user.Tag, material.Tag)
	claimed, err := w.guard.Claim(ctx, key, w.window)
	switch {
	case err != nil:
		w.logger.Warn("attempt guard unavailable, skipping duplicate check", "attempt_id", attempt.ID, "error", err)
	case !claimed:
		return w.reject(attempt, domain.ErrDuplicateAttempt)
	}

	left, err := w.store.Withdraw(ctx, domain.Withdrawal{
		UserTag:     user.Tag,
		MaterialTag: material.Tag,
		Quantity:    qty,
		At:          attempt.At,
	})
	if err != nil {
		if claimed {
			if rerr := w.guard.Release(ctx, key); rerr != nil {
				w.logger.Warn("release scan pair claim", "key", key, "error", rerr)
			}
		}
		return w.reject(attempt, err)
	}

	attempt.Outcome = domain.OutcomeApplied
	attempt.NewQuantity = left
	w.logger.Info("withdrawal applied",
		"attempt_id", attempt.ID,
		"user_tag", attempt.UserTag,
		"material_tag", attempt.MaterialTag,
		"quantity", qty,
		"remaining", left,
	)
	return attempt, nil
}

func (w *Workflow) reject(attempt *domain.Attempt, err error) (*domain.Attempt, error) {
	attempt.Outcome = domain.OutcomeRejected
	attempt.Reason = err.Error()

	level := slog.LevelWarn
	if errors.Is(err, domain.ErrStoreUnavailable) {
		level = slog.LevelError
	}
	w.logger.Log(context.Background(), level, "withdrawal rejected",
		"attempt_id", attempt.ID,
		"user_tag", attempt.UserTag,
		"material_tag", attempt.MaterialTag,
		"requested", attempt.Requested,
		"error", err,
	)
	return attempt, err
}

// pruneLocked drops scans that fell out of the freshness window, either relative to now
// or relative to the other slot. Scans must be recent to act on; a stale scan never
// triggers a withdrawal.
func (w *Workflow) pruneLocked() {
	now := w.now()
	if w.lastUser != nil && now.Sub(w.lastUser.ScannedAt) > w.window {
		w.lastUser = nil
	}
	if w.lastMaterial != nil && now.Sub(w.lastMaterial.ScannedAt) > w.window {
		w.lastMaterial = nil
	}
	if w.lastUser == nil || w.lastMaterial == nil {
		return
	}

	gap := w.lastUser.ScannedAt.Sub(w.lastMaterial.ScannedAt)
	if gap.Abs() <= w.window {
		return
	}
	if gap > 0 {
		w.lastMaterial = nil
	} else {
		w.lastUser = nil
	}
}

func (w *Workflow) requestedQuantityLocked() (int, error) {
	if !w.specify {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(w.quantityInput))
	if err != nil || n <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}
	return n, nil
}

// SetQuantityInput mirrors the operator's "specify quantity" toggle and entry field.
// The entry is validated when a withdrawal is attempted.
func (w *Workflow) SetQuantityInput(specify bool, raw string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.specify = specify
	w.quantityInput = raw
}

// Withdraw runs a withdrawal without going through the scan slots.
func (w *Workflow) Withdraw(ctx context.Context, userTag, materialTag domain.TagID, quantity int) (int, error) {
	if userTag == "" || materialTag == "" {
		return 0, domain.NewValidationError("tag", "user and material tags are required")
	}
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "must be a positive integer")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.store.Withdraw(ctx, domain.Withdrawal{
		UserTag:     userTag,
		MaterialTag: materialTag,
		Quantity:    quantity,
		At:          w.now(),
	})
}

// NextRole tells the poller which tag it is waiting for.
func (w *Workflow) NextRole() domain.ScanRole {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked()
	if w.lastUser == nil {
		return domain.RoleUser
	}
	return domain.RoleMaterial
}

func (w *Workflow) State() domain.ScanState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked()
	state := domain.ScanState{
		Phase:           domain.PhaseEmpty,
		SpecifyQuantity: w.specify,
		QuantityInput:   w.quantityInput,
	}
	if w.lastUser != nil {
		ev := *w.lastUser
		state.User = &ev
	}
	if w.lastMaterial != nil {
		ev := *w.lastMaterial
		state.Material = &ev
	}
	switch {
	case state.User != nil && state.Material != nil:
		state.Phase = domain.PhaseBothScanned
	case state.User != nil || state.Material != nil:
		state.Phase = domain.PhasePartiallyScanned
	}
	if w.lastAttempt != nil {
		a := *w.lastAttempt
		state.LastAttempt = &a
	}
	return state
}

func pairKey(userTag, materialTag domain.TagID) string {
	return "withdrawal:" + string(userTag) + ":" + string(materialTag)
}
