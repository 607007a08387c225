package realtime

import "context"

// Subscription is a handle to one live channel registration.
type Subscription interface {
	Unsubscribe() error
}

// Transport abstracts the realtime backend. The production implementation
// speaks websocket to the hosted data service; tests substitute fakes.
type Transport interface {
	// SetAuth installs the token presented on subsequent topic handshakes.
	SetAuth(token string)

	// SubscribeTable opens the primary row-level channel for one table.
	SubscribeTable(ctx context.Context, table string, onEvent func(RowEvent)) (Subscription, error)

	// SubscribeTopic opens the fallback broadcast channel for one topic.
	SubscribeTopic(ctx context.Context, topic string, onEvent func(BroadcastMessage), onStatus func(Status)) (Subscription, error)

	// OnDisconnect registers the hook invoked when the underlying
	// connection is lost. A nil error means an orderly close.
	OnDisconnect(fn func(error))

	// Close tears down the connection and every subscription on it.
	Close() error
}
