package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/logging"
)

// Envelope is the wire format for push events: an event name plus a
// Message-shaped payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSConfig configures the websocket transport.
type WSConfig struct {
	// URL is the websocket endpoint (ws:// or wss://); http(s) URLs are
	// rewritten.
	URL string

	// Token is the bearer credential passed on the query string.
	Token string

	// AutoReconnect re-dials with exponential backoff after a dropped
	// connection.
	AutoReconnect bool

	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
}

func (c *WSConfig) defaults() {
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 10
	}
}

// reconnector tracks backoff state between connection attempts.
type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	attempt     int
	connectedAt time.Time
}

func (r *reconnector) shouldReconnect() bool {
	return r.maxAttempts == 0 || r.attempt < r.maxAttempts
}

func (r *reconnector) markConnected() {
	r.connectedAt = time.Now()
}

func (r *reconnector) nextDelay() time.Duration {
	// A connection that held for a minute resets the backoff ladder.
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > time.Minute {
		r.attempt = 0
	}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}

// WS is the websocket Transport used against a live server. Subscriptions
// are local; the server fans every event out to all connected clients and
// filtering happens in the subscriber.
type WS struct {
	cfg WSConfig
	log zerolog.Logger

	mu               sync.Mutex
	conn             *websocket.Conn
	subscriptions    map[string]*subscription
	intentionalClose bool
	cancelRead       context.CancelFunc
	recon            reconnector
}

// NewWS creates a websocket transport. Connect must be called before Emit;
// Subscribe works at any time.
func NewWS(cfg WSConfig) *WS {
	cfg.defaults()
	return &WS{
		cfg:           cfg,
		log:           logging.Component("transport"),
		subscriptions: make(map[string]*subscription),
		recon: reconnector{
			baseDelay:   cfg.ReconnectBaseDelay,
			maxDelay:    cfg.ReconnectMaxDelay,
			maxAttempts: cfg.MaxReconnectAttempts,
		},
	}
}

// Connect dials the server and starts the read loop.
func (w *WS) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.conn != nil {
		w.mu.Unlock()
		return nil
	}
	w.intentionalClose = false
	w.mu.Unlock()

	url := strings.Replace(w.cfg.URL, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	if w.cfg.Token != "" {
		url += "?token=" + w.cfg.Token
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	w.conn = conn
	w.cancelRead = cancel
	w.mu.Unlock()
	w.recon.markConnected()

	go w.readLoop(readCtx, conn)
	return nil
}

// Emit writes the message as an envelope on the connection.
func (w *WS) Emit(ctx context.Context, event string, msg chat.Message) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Subscribe registers a handler for one event name.
func (w *WS) Subscribe(id, event string, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}
	w.subscriptions[id] = &subscription{id: id, event: event, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by id. The connection stays up for the
// remaining subscribers.
func (w *WS) Unsubscribe(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(w.subscriptions, id)
	return nil
}

// Close tears down the connection and all subscriptions.
func (w *WS) Close() error {
	w.mu.Lock()
	w.intentionalClose = true
	if w.cancelRead != nil {
		w.cancelRead()
		w.cancelRead = nil
	}
	conn := w.conn
	w.conn = nil
	w.subscriptions = make(map[string]*subscription)
	w.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func (w *WS) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			w.mu.Lock()
			intentional := w.intentionalClose
			if w.conn == conn {
				w.conn = nil
			}
			w.mu.Unlock()

			if intentional || ctx.Err() != nil {
				return
			}

			w.log.Warn().Err(err).Msg("push connection lost")
			if w.cfg.AutoReconnect && w.recon.shouldReconnect() {
				w.scheduleReconnect(ctx)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			w.log.Debug().Err(err).Msg("dropping undecodable push frame")
			continue
		}
		w.dispatch(env)
	}
}

func (w *WS) dispatch(env Envelope) {
	var msg chat.Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		w.log.Debug().Err(err).Str("event", env.Event).Msg("dropping malformed push payload")
		return
	}
	if err := msg.Normalize(); err != nil {
		w.log.Debug().Err(err).Str("event", env.Event).Msg("dropping unroutable push payload")
		return
	}

	w.mu.Lock()
	var handlers []Handler
	for _, sub := range w.subscriptions {
		if sub.event == env.Event {
			handlers = append(handlers, sub.handler)
		}
	}
	w.mu.Unlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

func (w *WS) scheduleReconnect(ctx context.Context) {
	delay := w.recon.nextDelay()
	w.log.Info().Dur("delay", delay).Int("attempt", w.recon.attempt).Msg("reconnecting push transport")

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := w.Connect(context.Background()); err != nil {
		if w.cfg.AutoReconnect && w.recon.shouldReconnect() {
			w.scheduleReconnect(ctx)
		} else {
			w.log.Error().Err(err).Msg("push transport reconnect gave up")
		}
	}
}
