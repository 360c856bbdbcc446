package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pushwire/pushwire-go/pkg/connection"
)

// Socket errors.
var (
	ErrNotConnected    = errors.New("socket not connected")
	ErrStaleConnection = errors.New("no pong received, connection stale")
)

// Message is a raw inbound payload with its arrival timestamp.
type Message struct {
	Data       []byte
	ReceivedAt time.Time
}

// SocketConfig holds websocket transport settings.
type SocketConfig struct {
	// URL is the push-service endpoint (ws:// or wss://).
	URL string

	// Token, when set, is sent as a bearer token during the handshake.
	Token string

	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration

	// PingTimeout is the maximum silence before the connection is
	// considered stale.
	PingTimeout time.Duration

	// MessageBuffer is the inbound channel capacity.
	MessageBuffer int
}

// Socket is a websocket connection to the push service. It satisfies the
// connection manager's client capability, including the abrupt-close fast
// path.
type Socket struct {
	cfg    SocketConfig
	logger *slog.Logger

	// Channels stable across dials.
	messages    chan Message
	closeEvents chan error

	mu        sync.Mutex
	conn      *websocket.Conn
	connID    string
	connected bool
	lastPong  time.Time
	done      chan struct{} // per-dial; closed by Disconnect
}

// New creates a Socket. A nil logger disables logging.
func New(cfg SocketConfig, logger *slog.Logger) *Socket {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 30 * time.Second
	}
	if cfg.MessageBuffer <= 0 {
		cfg.MessageBuffer = 256
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Socket{
		cfg:         cfg,
		logger:      logger,
		messages:    make(chan Message, cfg.MessageBuffer),
		closeEvents: make(chan error, 4),
	}
}

// Connect dials the push service. Any previous dial is torn down first.
func (s *Socket) Connect(ctx context.Context) error {
	s.Disconnect()

	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	connID := uuid.NewString()
	header.Set("X-Pushwire-Connection-Id", connID)

	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		return err
	}

	done := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.connID = connID
	s.connected = true
	s.lastPong = time.Now()
	s.done = done
	s.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		s.mu.Lock()
		s.lastPong = time.Now()
		s.mu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		s.mu.Lock()
		s.lastPong = time.Now()
		s.mu.Unlock()
		return nil
	})

	go s.readLoop(conn, done)
	go s.heartbeatLoop(conn, done)

	s.logger.Debug("websocket connected", "url", s.cfg.URL, "conn_id", connID)
	return nil
}

// Disconnect tears down the current dial. It is idempotent and safe to
// call when not connected.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	done := s.done
	s.conn = nil
	s.done = nil
	s.connected = false
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	if done != nil {
		close(done)
	}

	// Best-effort close frame before dropping the connection.
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

// Connected reports whether the current dial is live.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ConnectionID returns the ID of the current dial, or empty when
// disconnected.
func (s *Socket) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return s.connID
}

// Messages returns the inbound payload channel. It is never closed and
// survives redials.
func (s *Socket) Messages() <-chan Message {
	return s.messages
}

// CloseEvents returns the abrupt-close channel consumed by the
// connection manager's fast detection path.
func (s *Socket) CloseEvents() <-chan error {
	return s.closeEvents
}

// Send writes a raw payload to the push service.
func (s *Socket) Send(data []byte) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads payloads until the dial ends. A read error on a live
// dial is reported as an abrupt close.
func (s *Socket) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-done:
				// Local Disconnect; not an abrupt close.
			default:
				s.markDropped(conn, err)
			}
			return
		}

		select {
		case s.messages <- Message{Data: data, ReceivedAt: receivedAt}:
		default:
			s.logger.Warn("message buffer full, dropping message")
		}
	}
}

// heartbeatLoop pings the server and reports a stale connection when no
// pong (or server ping) arrives within PingTimeout.
func (s *Socket) heartbeatLoop(conn *websocket.Conn, done chan struct{}) {
	interval := s.cfg.PingTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			last := s.lastPong
			s.mu.Unlock()

			if time.Since(last) > s.cfg.PingTimeout {
				select {
				case <-done:
				default:
					s.markDropped(conn, ErrStaleConnection)
				}
				return
			}

			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		}
	}
}

// markDropped flips the connected flag and emits a close event, if this
// conn is still the current dial.
func (s *Socket) markDropped(conn *websocket.Conn, err error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.connected = false
	connID := s.connID
	s.mu.Unlock()

	s.logger.Warn("connection dropped", "conn_id", connID, "error", err)
	_ = conn.Close()

	select {
	case s.closeEvents <- err:
	default:
	}
}

// Compile-time checks that Socket satisfies the manager's client
// capability and the close fast path.
var (
	_ connection.Client        = (*Socket)(nil)
	_ connection.CloseNotifier = (*Socket)(nil)
)
