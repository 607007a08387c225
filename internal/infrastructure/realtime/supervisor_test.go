package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSupervisor(transport Transport, maxAttempts int) (*Supervisor, *Subscriber) {
	sub := newTestSubscriber(transport)
	cfg := &SupervisorConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    3 * time.Millisecond,
	}
	return NewSupervisor(sub, cfg, nil), sub
}

func TestSupervisor_DelayGrowsLinearlyWithCap(t *testing.T) {
	s, _ := newTestSupervisor(&fakeTransport{}, 5)

	assert.Equal(t, 1*time.Millisecond, s.delayFor(1))
	assert.Equal(t, 2*time.Millisecond, s.delayFor(2))
	assert.Equal(t, 3*time.Millisecond, s.delayFor(3))
	assert.Equal(t, 3*time.Millisecond, s.delayFor(4), "delay is capped")
	assert.Equal(t, 3*time.Millisecond, s.delayFor(5))
}

func TestSupervisor_ReconnectsAfterDrop(t *testing.T) {
	transport := &fakeTransport{}
	s, sub := newTestSupervisor(transport, 5)

	require.NoError(t, sub.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx)

	transport.disconnectFn(errors.New("connection reset"))

	require.Eventually(t, func() bool {
		return sub.State() == StateConnectedPrimary
	}, time.Second, 2*time.Millisecond)
	assert.True(t, s.Online())
}

func TestSupervisor_GoesOfflineAfterAttemptBudget(t *testing.T) {
	transport := &fakeTransport{
		primaryErr:  errors.New("primary down"),
		fallbackErr: errors.New("fallback down"),
	}
	s, sub := newTestSupervisor(transport, 3)

	var offline atomic.Int64
	s.OnOffline(func() { offline.Add(1) })

	// Simulate a previously live subscription whose transport died.
	sub.mu.Lock()
	sub.refs = 1
	sub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx)

	s.trigger()

	require.Eventually(t, func() bool {
		return offline.Load() == 1
	}, time.Second, 2*time.Millisecond)
	assert.False(t, s.Online())

	// Budget spent: exactly MaxAttempts primary attempts were made.
	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 3, transport.tableCalls)
}

func TestSupervisor_ResetSkipsBackoffDelay(t *testing.T) {
	transport := &fakeTransport{}
	sub := newTestSubscriber(transport)
	cfg := &SupervisorConfig{
		MaxAttempts: 3,
		BaseDelay:   300 * time.Millisecond,
		MaxDelay:    time.Second,
	}
	s := NewSupervisor(sub, cfg, nil)

	sub.mu.Lock()
	sub.refs = 1
	sub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx)

	s.Reset()

	// Well inside the first backoff window, so the attempt must have
	// run without waiting out the delay.
	require.Eventually(t, func() bool {
		return sub.State() == StateConnectedPrimary
	}, 100*time.Millisecond, 2*time.Millisecond)
}

func TestSupervisor_PauseHoldsAttemptUntilResume(t *testing.T) {
	transport := &fakeTransport{
		primaryErr:  errors.New("primary down"),
		fallbackErr: errors.New("fallback down"),
	}
	s, sub := newTestSupervisor(transport, 2)

	sub.mu.Lock()
	sub.refs = 1
	sub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx)

	s.Pause()
	s.trigger()

	// Parked: no attempt spent, no offline verdict.
	time.Sleep(30 * time.Millisecond)
	transport.mu.Lock()
	calls := transport.tableCalls
	transport.mu.Unlock()
	assert.Equal(t, 0, calls)
	assert.True(t, s.Paused())
	assert.True(t, s.Online())

	transport.mu.Lock()
	transport.primaryErr = nil
	transport.mu.Unlock()

	s.Resume()

	require.Eventually(t, func() bool {
		return sub.State() == StateConnectedPrimary
	}, time.Second, 2*time.Millisecond)
	assert.False(t, s.Paused())

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 1, transport.tableCalls, "held attempt runs once on resume")
}

func TestSupervisor_ResetRestartsCycle(t *testing.T) {
	transport := &fakeTransport{
		primaryErr:  errors.New("primary down"),
		fallbackErr: errors.New("fallback down"),
	}
	s, sub := newTestSupervisor(transport, 2)

	var online atomic.Int64
	s.OnOnline(func() { online.Add(1) })

	sub.mu.Lock()
	sub.refs = 1
	sub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Start(ctx)

	s.trigger()
	require.Eventually(t, func() bool { return !s.Online() }, time.Second, 2*time.Millisecond)

	// Service recovers, operator kicks a retry.
	transport.mu.Lock()
	transport.primaryErr = nil
	transport.mu.Unlock()

	s.Reset()

	require.Eventually(t, func() bool {
		return sub.State() == StateConnectedPrimary
	}, time.Second, 2*time.Millisecond)
	require.Eventually(t, func() bool { return s.Online() }, time.Second, 2*time.Millisecond)
}
