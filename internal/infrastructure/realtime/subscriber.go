package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// State describes the subscriber connection lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateConnecting        State = "connecting"
	StateConnectedPrimary  State = "connectedPrimary"
	StateConnectedFallback State = "connectedFallback"
)

// Channel tags which of the two channels delivered an event or carries
// the current subscription.
type Channel string

const (
	ChannelPrimary  Channel = "primary"
	ChannelFallback Channel = "fallback"
)

// SubscriberConfig holds the channel targets, sourced from the central
// config package.
type SubscriberConfig struct {
	Table string
	Topic string
}

func NewSubscriberConfig() *SubscriberConfig {
	return &SubscriberConfig{
		Table: config.InvestigationsTable,
		Topic: config.BroadcastTopic,
	}
}

// Subscriber maintains at most one live change-event subscription for
// the session, shared by every consumer through reference counting.
// The first Acquire connects, later Acquires reuse the subscription,
// and the last Release tears it down.
//
// Connection attempts try the primary row-level channel first and fall
// back to the authenticated broadcast topic when the primary fails.
type Subscriber struct {
	transport Transport
	cfg       *SubscriberConfig
	logger    *logging.ChanneledLogger

	// tokenFn mints the auth token presented on the fallback handshake.
	tokenFn func() (string, error)

	handler func(ChangeEvent)
	onDrop  func(error)

	mu      sync.Mutex
	refs    int
	state   State
	channel Channel
	sub     Subscription
}

func NewSubscriber(transport Transport, cfg *SubscriberConfig, tokenFn func() (string, error), logger *logging.ChanneledLogger) *Subscriber {
	s := &Subscriber{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		tokenFn:   tokenFn,
		state:     StateIdle,
	}
	transport.OnDisconnect(s.handleDisconnect)
	return s
}

// OnEvent registers the consumer of normalized change events. Must be
// called before the first Acquire.
func (s *Subscriber) OnEvent(fn func(ChangeEvent)) {
	s.handler = fn
}

// OnDrop registers the hook invoked when a live subscription is lost.
// The reconnection supervisor hangs off this.
func (s *Subscriber) OnDrop(fn func(error)) {
	s.onDrop = fn
}

// Acquire adds a consumer reference, connecting on the first one.
func (s *Subscriber) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs++
	if s.refs > 1 {
		return nil
	}
	return s.connectLocked(ctx)
}

// Release drops a consumer reference, unsubscribing on the last one.
func (s *Subscriber) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}

	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil && s.logger != nil {
			s.logger.Realtime().Warn("Unsubscribe failed", "error", err)
		}
		s.sub = nil
	}
	s.state = StateIdle
	if s.logger != nil {
		s.logger.Realtime().Info("Change subscription released")
	}
}

// Reconnect re-establishes the subscription after a drop. It is a no-op
// when no consumers remain.
func (s *Subscriber) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return nil
	}
	return s.connectLocked(ctx)
}

// State returns the current lifecycle state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveChannel reports which channel carries the live subscription.
// Only meaningful in a connected state.
func (s *Subscriber) ActiveChannel() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Subscriber) connectLocked(ctx context.Context) error {
	s.state = StateConnecting

	sub, err := s.transport.SubscribeTable(ctx, s.cfg.Table, s.handleRow)
	if err == nil {
		s.sub = sub
		s.state = StateConnectedPrimary
		s.channel = ChannelPrimary
		if s.logger != nil {
			s.logger.Realtime().Info("Subscribed on primary channel", "table", s.cfg.Table)
		}
		return nil
	}

	if s.logger != nil {
		s.logger.Realtime().Warn("Primary channel failed, trying fallback", "table", s.cfg.Table, "error", err)
	}

	token, tokenErr := s.tokenFn()
	if tokenErr != nil {
		s.state = StateIdle
		return fmt.Errorf("fallback token: %w", tokenErr)
	}
	s.transport.SetAuth(token)

	// Status callbacks fired synchronously inside SubscribeTopic would
	// re-enter the subscriber lock; arm the handler only once the
	// subscription is established.
	var armed atomic.Bool
	statusFn := func(status Status) {
		if armed.Load() {
			s.handleStatus(status)
		}
	}

	sub, fbErr := s.transport.SubscribeTopic(ctx, s.cfg.Topic, s.handleBroadcast, statusFn)
	if fbErr != nil {
		s.state = StateIdle
		return fmt.Errorf("both channels failed: primary %v, fallback %w", err, fbErr)
	}
	armed.Store(true)

	s.sub = sub
	s.state = StateConnectedFallback
	s.channel = ChannelFallback
	if s.logger != nil {
		s.logger.Realtime().Info("Subscribed on fallback channel", "topic", s.cfg.Topic)
	}
	return nil
}

func (s *Subscriber) handleRow(ev RowEvent) {
	if s.handler == nil {
		return
	}
	if change, ok := NormalizeRowEvent(nextRef(), ev); ok {
		s.handler(change)
	} else if s.logger != nil {
		s.logger.Realtime().Debug("Dropping malformed row event", "type", ev.Type)
	}
}

func (s *Subscriber) handleBroadcast(msg BroadcastMessage) {
	if s.handler == nil {
		return
	}
	if change, ok := NormalizeBroadcast(nextRef(), msg); ok {
		s.handler(change)
	} else if s.logger != nil {
		s.logger.Realtime().Debug("Dropping malformed broadcast", "event", msg.Event)
	}
}

func (s *Subscriber) handleStatus(status Status) {
	switch status {
	case StatusChannelError, StatusTimedOut, StatusClosed:
		s.handleDisconnect(fmt.Errorf("fallback channel status %s", status))
	case StatusSubscribed:
		if s.logger != nil {
			s.logger.Realtime().Debug("Fallback channel confirmed")
		}
	}
}

func (s *Subscriber) handleDisconnect(err error) {
	s.mu.Lock()
	hadConsumers := s.refs > 0
	wasConnected := s.state == StateConnectedPrimary || s.state == StateConnectedFallback
	if wasConnected {
		s.state = StateIdle
		s.sub = nil
	}
	s.mu.Unlock()

	if !hadConsumers || !wasConnected {
		return
	}
	if s.logger != nil {
		s.logger.Realtime().Warn("Change subscription lost", "error", err)
	}
	if s.onDrop != nil {
		s.onDrop(err)
	}
}
