package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// frame is the wire envelope spoken with the data service's realtime
// endpoint. Every message carries a ref for correlation.
type frame struct {
	Ref     string          `json:"ref"`
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSTransport implements Transport over a single websocket connection.
// The connection is dialed lazily on the first subscribe.
type WSTransport struct {
	url    string
	logger *logging.ChanneledLogger

	writeMu sync.Mutex

	mu           sync.Mutex
	conn         *websocket.Conn
	authToken    string
	rowHandlers  map[string]func(RowEvent)
	msgHandlers  map[string]func(BroadcastMessage)
	statHandlers map[string]func(Status)
	onDisconnect func(error)
	closed       bool
}

var _ Transport = (*WSTransport)(nil)

func NewWSTransport(logger *logging.ChanneledLogger) *WSTransport {
	return &WSTransport{
		url:          config.RealtimeURL,
		logger:       logger,
		rowHandlers:  make(map[string]func(RowEvent)),
		msgHandlers:  make(map[string]func(BroadcastMessage)),
		statHandlers: make(map[string]func(Status)),
	}
}

func (t *WSTransport) SetAuth(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authToken = token
}

func (t *WSTransport) OnDisconnect(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

func (t *WSTransport) SubscribeTable(ctx context.Context, table string, onEvent func(RowEvent)) (Subscription, error) {
	topic := "table:" + table
	if err := t.join(ctx, topic, nil); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.rowHandlers[topic] = onEvent
	t.mu.Unlock()

	return &wsSubscription{transport: t, topic: topic}, nil
}

func (t *WSTransport) SubscribeTopic(ctx context.Context, topic string, onEvent func(BroadcastMessage), onStatus func(Status)) (Subscription, error) {
	full := "broadcast:" + topic

	t.mu.Lock()
	token := t.authToken
	t.mu.Unlock()

	payload := map[string]string{"token": token}
	if err := t.join(ctx, full, payload); err != nil {
		if onStatus != nil {
			onStatus(StatusChannelError)
		}
		return nil, err
	}

	t.mu.Lock()
	t.msgHandlers[full] = onEvent
	if onStatus != nil {
		t.statHandlers[full] = onStatus
	}
	t.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusSubscribed)
	}
	return &wsSubscription{transport: t, topic: full}, nil
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.closed = true
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// join ensures the connection is up and sends the subscribe frame.
func (t *WSTransport) join(ctx context.Context, topic string, payload any) error {
	if err := t.ensureConnected(ctx); err != nil {
		return err
	}

	f := frame{Ref: nextRef(), Topic: topic, Event: "subscribe"}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode join payload: %w", err)
		}
		f.Payload = raw
	}
	return t.send(f)
}

func (t *WSTransport) leave(topic string) error {
	t.mu.Lock()
	delete(t.rowHandlers, topic)
	delete(t.msgHandlers, topic)
	delete(t.statHandlers, topic)
	connected := t.conn != nil
	t.mu.Unlock()

	if !connected {
		return nil
	}
	return t.send(frame{Ref: nextRef(), Topic: topic, Event: "unsubscribe"})
}

func (t *WSTransport) ensureConnected(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	header := http.Header{}
	if t.authToken != "" {
		header.Set("Authorization", "Bearer "+t.authToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial realtime endpoint: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	t.conn = conn
	t.closed = false
	go t.readPump(conn)
	go t.pingLoop(conn)

	if t.logger != nil {
		t.logger.Realtime().Info("Realtime connection established", "url", t.url)
	}
	return nil
}

func (t *WSTransport) send(f frame) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("realtime connection not established")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (t *WSTransport) readPump(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.handleReadError(conn, err)
			return
		}
		t.dispatch(f)
	}
}

func (t *WSTransport) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		current := t.conn
		t.mu.Unlock()
		if current != conn {
			return
		}

		t.writeMu.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		t.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (t *WSTransport) dispatch(f frame) {
	t.mu.Lock()
	rowFn := t.rowHandlers[f.Topic]
	msgFn := t.msgHandlers[f.Topic]
	statFn := t.statHandlers[f.Topic]
	t.mu.Unlock()

	switch f.Event {
	case "change":
		if rowFn == nil {
			return
		}
		var ev RowEvent
		if err := json.Unmarshal(f.Payload, &ev); err != nil {
			if t.logger != nil {
				t.logger.Realtime().Warn("Undecodable row event", "topic", f.Topic, "error", err)
			}
			return
		}
		rowFn(ev)
	case "broadcast":
		if msgFn == nil {
			return
		}
		var msg BroadcastMessage
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			if t.logger != nil {
				t.logger.Realtime().Warn("Undecodable broadcast", "topic", f.Topic, "error", err)
			}
			return
		}
		msgFn(msg)
	case "status":
		if statFn == nil {
			return
		}
		var status Status
		if err := json.Unmarshal(f.Payload, &status); err != nil {
			return
		}
		statFn(status)
	}
}

func (t *WSTransport) handleReadError(conn *websocket.Conn, err error) {
	t.mu.Lock()
	stale := t.conn != conn
	orderly := t.closed
	if !stale {
		t.conn = nil
	}
	fn := t.onDisconnect
	t.mu.Unlock()

	conn.Close()
	if stale {
		return
	}

	if orderly {
		err = nil
	} else if t.logger != nil {
		t.logger.Realtime().Warn("Realtime connection lost", "error", err)
	}
	if fn != nil {
		fn(err)
	}
}

type wsSubscription struct {
	transport *WSTransport
	topic     string
}

func (s *wsSubscription) Unsubscribe() error {
	return s.transport.leave(s.topic)
}
