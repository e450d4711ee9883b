package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/gorilla/websocket"

	"rollaway/server/internal/config"
	"rollaway/server/internal/game"
	"rollaway/server/internal/input"
	"rollaway/server/internal/logging"
)

// sendBufferSize bounds each client's outbound queue; a full queue marks the
// client as too slow and disconnects it.
const sendBufferSize = 64

// Stream subprotocols offered during the WebSocket handshake. Clients that
// negotiate the snappy variant receive snapshots as snappy-compressed binary
// frames instead of plain JSON text.
const (
	streamProtocolJSON   = "rollaway.v1"
	streamProtocolSnappy = "rollaway.v1+snappy"
)

// client is one connected WebSocket peer.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	id     string
	snappy bool
}

// encodeFrame picks the wire encoding the client negotiated at handshake time.
func encodeFrame(compress bool, frame []byte) (int, []byte) {
	if !compress {
		return websocket.TextMessage, frame
	}
	return websocket.BinaryMessage, snappy.Encode(nil, frame)
}

// Server owns the game, the intent pipeline and the set of connected clients.
type Server struct {
	cfg  *config.Config
	log  *logging.Logger
	game *game.Game
	gate *input.Gate

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	intentMu       sync.Mutex
	lastIntentSeqs map[string]uint64

	started    time.Time
	startupErr error
}

// NewServer wires the game and intent gate behind a WebSocket hub.
func NewServer(cfg *config.Config, g *game.Game, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.L()
	}
	s := &Server{
		cfg:            cfg,
		log:            logger,
		game:           g,
		gate:           input.NewGate(cfg.DebounceInterval, nil),
		clients:        make(map[*client]struct{}),
		lastIntentSeqs: make(map[string]uint64),
		started:        time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:  s.checkOrigin,
		Subprotocols: []string{streamProtocolSnappy, streamProtocolJSON},
	}
	return s
}

// checkOrigin accepts same-origin requests plus anything on the allow list.
// An empty allow list accepts every origin, matching local development use.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and runs the client's read and write pumps.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.cfg.MaxClients > 0 && len(s.clients) >= s.cfg.MaxClients {
		s.mu.Unlock()
		s.log.Warn("connection rejected: client limit reached",
			logging.String("remote_addr", r.RemoteAddr),
			logging.Int("max_clients", s.cfg.MaxClients),
		)
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		id:     r.RemoteAddr,
		snappy: conn.Subprotocol() == streamProtocolSnappy,
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.log.Info("client connected",
		logging.String("client_id", c.id),
		logging.Int("clients", count),
		logging.Bool("snappy_frames", c.snappy),
	)

	go s.readPump(c)
	go s.writePump(c)
}

// readPump consumes intent frames until the connection drops.
func (s *Server) readPump(c *client) {
	defer func() {
		s.dropClient(c)
		c.conn.Close()
	}()
	if s.cfg.MaxPayloadBytes > 0 {
		c.conn.SetReadLimit(s.cfg.MaxPayloadBytes)
	}
	clientLog := s.log.With(logging.String("client_id", c.id))
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				clientLog.Warn("read failed", logging.Error(err))
			}
			return
		}
		//1.- Dropped intents are logged inside processIntent; the connection stays up.
		_ = s.processIntent(c.id, msg, clientLog)
	}
}

// writePump streams queued snapshots and keeps the connection alive with pings.
func (s *Server) writePump(c *client) {
	interval := s.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			messageType, payload := encodeFrame(c.snappy, msg)
			if err := c.conn.WriteMessage(messageType, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// Broadcast queues the payload for every connected client. Clients whose send
// buffer is full are disconnected rather than allowed to stall the tick.
func (s *Server) Broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			//1.- A full buffer means the client cannot keep up with the tick rate.
			s.log.Warn("dropping slow client", logging.String("client_id", c.id))
			close(c.send)
			delete(s.clients, c)
		}
	}
}

// dropClient removes the client from the hub if it is still registered.
func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	count := len(s.clients)
	s.mu.Unlock()
	s.log.Info("client disconnected",
		logging.String("client_id", c.id),
		logging.Int("clients", count),
	)
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Uptime reports how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}

// StartupError surfaces a fatal initialisation problem to readiness probes.
func (s *Server) StartupError() error {
	return s.startupErr
}

// InputDrops totals the key presses suppressed by the debounce gate.
func (s *Server) InputDrops() uint64 {
	var total uint64
	for _, count := range s.gate.Drops() {
		total += count
	}
	return total
}

// Close disconnects every client.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs error
	for c := range s.clients {
		close(c.send)
		if err := c.conn.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("close %s: %w", c.id, err))
		}
		delete(s.clients, c)
	}
	return errs
}
