// Package server exposes a match over REST and a websocket that pushes a
// snapshot after every transition.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/match"
)

// DefaultPingInterval is how often idle websocket peers are pinged.
const DefaultPingInterval = 30 * time.Second

// Server serves one match
type Server struct {
	addr         string
	match        *match.Match
	router       chi.Router
	upgrader     websocket.Upgrader
	clock        quartz.Clock
	logger       *log.Logger
	pingInterval time.Duration

	mu          sync.RWMutex
	connections map[*Connection]bool
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock for message timestamps and ping tickers.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPingInterval sets the websocket keepalive period. Non-positive
// values keep the default.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

// NewServer creates a server for m listening on addr
func NewServer(addr string, m *match.Match, opts ...Option) *Server {
	s := &Server{
		addr:  addr,
		match: m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clock:        quartz.NewReal(),
		logger:       log.New(io.Discard),
		pingInterval: DefaultPingInterval,
		connections:  make(map[*Connection]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("server")
	s.router = s.routes()
	m.Subscribe(s.broadcastTransition)
	return s
}

// Handler returns the HTTP handler serving the API and the websocket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	s.closeConnections()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
		delete(s.connections, conn)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s)
	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	client.Start()
	client.sendSession(nil, s.match.Snapshot(), "")

	go func() {
		<-client.ctx.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "total", total)
	}()
}

// ConnectionCount returns the number of open websocket clients.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// broadcastTransition pushes a snapshot to every client. It runs inside the
// match lock and never blocks.
func (s *Server) broadcastTransition(e game.Event, snap game.Snapshot) {
	msg, err := NewMessage(s.clock.Now(), MessageTypeSession, SessionData{Event: &e, Session: snap})
	if err != nil {
		s.logger.Error("Failed to encode snapshot", "error", err)
		return
	}
	s.Broadcast(msg)
}

// Broadcast sends a message to all connections
func (s *Server) Broadcast(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send message to client", "error", err)
			continue
		}
		count++
	}
	s.logger.Debug("Broadcast message", "type", msg.Type, "recipients", count)
}
