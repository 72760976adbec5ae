package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

// scriptedScanner returns tags in order, then reports nothing detected.
type scriptedScanner struct {
	mu    sync.Mutex
	tags  []domain.TagID
	roles []domain.ScanRole
}

func (s *scriptedScanner) Scan(ctx context.Context, role domain.ScanRole) (domain.TagID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, role)
	if len(s.tags) == 0 {
		return "", domain.ErrNotDetected
	}
	tag := s.tags[0]
	s.tags = s.tags[1:]
	return tag, nil
}

func TestPoller_FeedsWorkflow(t *testing.T) {
	store := newMockInventoryRepo(bolts(5, 2))
	wf := NewWorkflow(store, newMockGuard(), DefaultFreshnessWindow, nil)
	scanner := &scriptedScanner{tags: []domain.TagID{"user-1", "7"}}
	poller := NewPoller(scanner, wf, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.quantity("7") == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	scanner.mu.Lock()
	defer scanner.mu.Unlock()
	require.GreaterOrEqual(t, len(scanner.roles), 2)
	assert.Equal(t, domain.RoleUser, scanner.roles[0])
	assert.Equal(t, domain.RoleMaterial, scanner.roles[1])
}

func TestPoller_RejectedAttemptKeepsPolling(t *testing.T) {
	store := newMockInventoryRepo(bolts(0, 2))
	wf := NewWorkflow(store, newMockGuard(), DefaultFreshnessWindow, nil)
	scanner := &scriptedScanner{tags: []domain.TagID{"user-1", "7", "user-2", "7"}}
	poller := NewPoller(scanner, wf, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	require.Eventually(t, func() bool {
		scanner.mu.Lock()
		defer scanner.mu.Unlock()
		return len(scanner.tags) == 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		last := wf.State().LastAttempt
		return last != nil && last.UserTag == "user-2"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.OutcomeRejected, wf.State().LastAttempt.Outcome)
	assert.Equal(t, 0, store.logLen())
}

func TestPoller_StopsWhenCancelledBeforeStart(t *testing.T) {
	scanner := &scriptedScanner{}
	wf := NewWorkflow(newMockInventoryRepo(), newMockGuard(), DefaultFreshnessWindow, nil)
	poller := NewPoller(scanner, wf, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	poller.Run(ctx)

	assert.Empty(t, scanner.roles)
}

// blockingScanner waits for a tag on its channel until ctx ends, like a physical reader.
type blockingScanner struct {
	tags    chan domain.TagID
	mu      sync.Mutex
	roles   []domain.ScanRole
	started chan domain.ScanRole
}

func newBlockingScanner() *blockingScanner {
	return &blockingScanner{tags: make(chan domain.TagID), started: make(chan domain.ScanRole, 16)}
}

func (s *blockingScanner) Scan(ctx context.Context, role domain.ScanRole) (domain.TagID, error) {
	s.mu.Lock()
	s.roles = append(s.roles, role)
	s.mu.Unlock()
	select {
	case s.started <- role:
	default:
	}

	select {
	case tag := <-s.tags:
		return tag, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrNotDetected, ctx.Err())
	}
}

func waitForRole(t *testing.T, s *blockingScanner, want domain.ScanRole) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case role := <-s.started:
			if role == want {
				return
			}
		case <-deadline:
			t.Fatalf("scanner never waited for a %s tag", want)
		}
	}
}

func TestPoller_RequestOverridesRoleOfWaitingRead(t *testing.T) {
	store := newMockInventoryRepo(bolts(5, 2))
	wf := NewWorkflow(store, newMockGuard(), DefaultFreshnessWindow, nil)
	scanner := newBlockingScanner()
	poller := NewPoller(scanner, wf, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	// With nothing held the poller waits for a user tag.
	waitForRole(t, scanner, domain.RoleUser)

	require.NoError(t, poller.Request(domain.RoleMaterial))
	waitForRole(t, scanner, domain.RoleMaterial)
	role, pending := poller.Pending()
	assert.True(t, pending)
	assert.Equal(t, domain.RoleMaterial, role)

	scanner.tags <- "7"
	require.Eventually(t, func() bool {
		state := wf.State()
		return state.Material != nil && state.Material.Tag == "7"
	}, time.Second, 5*time.Millisecond)

	state := wf.State()
	assert.Nil(t, state.User)
	assert.Equal(t, 5, store.quantity("7"))
	_, pending = poller.Pending()
	assert.False(t, pending)

	// The request is spent; the poller goes back to asking the workflow.
	waitForRole(t, scanner, domain.RoleUser)
	scanner.tags <- "user-1"
	require.Eventually(t, func() bool { return store.quantity("7") == 4 }, time.Second, 5*time.Millisecond)
}

func TestPoller_RequestRejectsUnknownRole(t *testing.T) {
	wf := NewWorkflow(newMockInventoryRepo(), newMockGuard(), DefaultFreshnessWindow, nil)
	poller := NewPoller(&scriptedScanner{}, wf, time.Millisecond, nil)

	assert.ErrorIs(t, poller.Request(domain.ScanRole("admin")), domain.ErrValidation)
	_, pending := poller.Pending()
	assert.False(t, pending)
}

// closedScanner behaves like a reader whose source has ended.
type closedScanner struct {
	mu    sync.Mutex
	calls int
}

func (s *closedScanner) Scan(ctx context.Context, role domain.ScanRole) (domain.TagID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "", fmt.Errorf("%w: %w", domain.ErrNotDetected, domain.ErrReaderClosed)
}

func TestPoller_StopsWhenReaderCloses(t *testing.T) {
	scanner := &closedScanner{}
	wf := NewWorkflow(newMockInventoryRepo(), newMockGuard(), DefaultFreshnessWindow, nil)
	poller := NewPoller(scanner, wf, time.Millisecond, nil)

	done := make(chan struct{})
	go func() {
		poller.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller kept running after the reader closed")
	}

	scanner.mu.Lock()
	assert.Equal(t, 1, scanner.calls)
	scanner.mu.Unlock()
	assert.ErrorIs(t, poller.Request(domain.RoleUser), domain.ErrReaderClosed)
}
