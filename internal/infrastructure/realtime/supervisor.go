package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// SupervisorConfig holds the reconnection policy, sourced from the
// central config package.
type SupervisorConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func NewSupervisorConfig() *SupervisorConfig {
	return &SupervisorConfig{
		MaxAttempts: config.ReconnectMaxAttempts,
		BaseDelay:   config.ReconnectBaseDelay,
		MaxDelay:    config.ReconnectMaxDelay,
	}
}

// Supervisor watches the subscriber and re-establishes lost
// subscriptions. Retry delays grow linearly with the attempt number and
// are capped; after the attempt budget is spent the supervisor declares
// the session offline and stops until Reset. While the network is known
// to be down the cycle can be paused, holding the pending attempt until
// Resume retries it immediately.
type Supervisor struct {
	subscriber *Subscriber
	cfg        *SupervisorConfig
	logger     *logging.ChanneledLogger

	kick chan struct{}

	mu        sync.Mutex
	online    bool
	paused    bool
	immediate bool
	resume    chan struct{}
	onOnline  func()
	onOffline func()
}

func NewSupervisor(subscriber *Subscriber, cfg *SupervisorConfig, logger *logging.ChanneledLogger) *Supervisor {
	s := &Supervisor{
		subscriber: subscriber,
		cfg:        cfg,
		logger:     logger,
		kick:       make(chan struct{}, 1),
		online:     true,
	}
	subscriber.OnDrop(func(error) { s.trigger() })
	return s
}

// OnOnline registers the hook fired when connectivity is restored.
func (s *Supervisor) OnOnline(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOnline = fn
}

// OnOffline registers the hook fired when the attempt budget is spent.
// The sync layer switches to interval polling off this.
func (s *Supervisor) OnOffline(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOffline = fn
}

// Online reports whether the realtime link is considered healthy.
func (s *Supervisor) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Reset clears the offline verdict and kicks a fresh reconnect cycle.
// Called when the portal regains focus or the operator asks for a retry;
// the first attempt skips the backoff delay.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	s.online = true
	s.immediate = true
	s.mu.Unlock()
	s.trigger()
}

// Pause suspends reconnection while the network is known to be down.
// A cycle parked on a pause consumes no attempt.
func (s *Supervisor) Pause() {
	s.mu.Lock()
	if !s.paused {
		s.paused = true
		s.resume = make(chan struct{})
	}
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Realtime().Info("Reconnection paused, network unavailable")
	}
}

// Resume lifts a pause. A parked cycle retries immediately.
func (s *Supervisor) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	s.immediate = true
	ch := s.resume
	s.resume = nil
	s.mu.Unlock()
	close(ch)
	if s.logger != nil {
		s.logger.Realtime().Info("Reconnection resumed, network restored")
	}
}

// Paused reports whether reconnection is suspended.
func (s *Supervisor) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Start runs the supervision loop until the context is cancelled.
func (s *Supervisor) Start(ctx context.Context) {
	if s.logger != nil {
		s.logger.Realtime().Info("Reconnection supervisor started",
			"maxAttempts", s.cfg.MaxAttempts, "baseDelay", s.cfg.BaseDelay, "maxDelay", s.cfg.MaxDelay)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
			s.reconnectCycle(ctx)
		}
	}
}

func (s *Supervisor) trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// reconnectCycle runs one bounded retry sequence.
func (s *Supervisor) reconnectCycle(ctx context.Context) {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		delay := s.delayFor(attempt)
		if s.takeImmediate() {
			delay = 0
		}
		if s.logger != nil {
			s.logger.Realtime().Info("Scheduling reconnect", "attempt", attempt, "delay", delay)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		if !s.awaitResume(ctx) {
			return
		}

		if err := s.subscriber.Reconnect(ctx); err == nil {
			s.markOnline()
			return
		} else if s.logger != nil {
			s.logger.Realtime().Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
		}
	}
	s.markOffline()
}

func (s *Supervisor) takeImmediate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	imm := s.immediate
	s.immediate = false
	return imm
}

// awaitResume parks the cycle while paused. The pending attempt is held,
// not spent; it runs as soon as Resume fires.
func (s *Supervisor) awaitResume(ctx context.Context) bool {
	for {
		s.mu.Lock()
		paused := s.paused
		ch := s.resume
		s.mu.Unlock()
		if !paused {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ch:
		}
	}
}

// delayFor grows linearly with the attempt number, capped at MaxDelay.
func (s *Supervisor) delayFor(attempt int) time.Duration {
	delay := time.Duration(attempt) * s.cfg.BaseDelay
	if delay > s.cfg.MaxDelay {
		delay = s.cfg.MaxDelay
	}
	return delay
}

func (s *Supervisor) markOnline() {
	s.mu.Lock()
	wasOffline := !s.online
	s.online = true
	fn := s.onOnline
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Realtime().Info("Realtime link restored")
	}
	if wasOffline && fn != nil {
		fn()
	}
}

func (s *Supervisor) markOffline() {
	s.mu.Lock()
	wasOnline := s.online
	s.online = false
	fn := s.onOffline
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Alert().Error("Realtime link down, attempt budget spent", "maxAttempts", s.cfg.MaxAttempts)
	}
	if wasOnline && fn != nil {
		fn()
	}
}
