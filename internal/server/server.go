package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/chat"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/connection"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transport"
	"golang.org/x/net/netutil"
)

// Server accepts chat clients over TCP and, optionally, WebSocket, and hands
// every connection to the router.
type Server struct {
	router        *chat.Router
	outboxSize    int
	maxLineLength int
	maxConns      int
	connections   *connection.ConnectionManager
	upgrader      websocket.Upgrader

	mu          sync.Mutex
	listeners   []net.Listener
	httpServers []*http.Server
	handlers    sync.WaitGroup
}

func NewServer(cfg config.Config, router *chat.Router) *Server {
	s := &Server{
		router:        router,
		outboxSize:    cfg.Session.OutboxSize,
		maxLineLength: cfg.Listen.MaxLineLength,
		maxConns:      cfg.Listen.MaxConnections,
		connections:   connection.NewConnectionManager(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.WebSocket.AllowedOrigins),
	}
	return s
}

func (s *Server) Connections() *connection.ConnectionManager {
	return s.connections
}

func (s *Server) limit(ln net.Listener) net.Listener {
	if s.maxConns > 0 {
		return netutil.LimitListener(ln, s.maxConns)
	}
	return ln
}

func (s *Server) track(ln net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, ln)
}

// Serve accepts TCP clients on ln until ln is closed.
func (s *Server) Serve(ln net.Listener) error {
	ln = s.limit(ln)
	s.track(ln)
	logger.InfoF("Chat relay listen on %s", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logger.WarnF("Accept connection timeout: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			logger.ErrorF("Accept connection error: %v", err)
			return err
		}

		logger.DebugF("Accepted new connection from %s", conn.RemoteAddr().String())
		s.handlers.Add(1)
		go func(c net.Conn) {
			defer s.handlers.Done()
			s.handleConnection(transport.NewLineConn(c, s.maxLineLength))
		}(conn)
	}
}

// ServeWebSocket serves the upgrade endpoint at path on ln until ln is closed.
func (s *Server) ServeWebSocket(ln net.Listener, path string) error {
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.WebSocketHandler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ln = s.limit(ln)
	s.mu.Lock()
	s.httpServers = append(s.httpServers, srv)
	s.mu.Unlock()
	logger.InfoF("WebSocket gateway listen on %s%s", ln.Addr().String(), path)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// WebSocketHandler upgrades the request and runs the connection until it ends.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnF("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	s.handlers.Add(1)
	defer s.handlers.Done()
	s.handleConnection(transport.NewWebSocketConn(ws, s.maxLineLength))
}

// StartServer binds the configured listeners and serves them in the
// background. The returned server is registered for shutdown by the caller.
func StartServer(cfg config.Config, router *chat.Router) (*Server, error) {
	s := NewServer(cfg, router)

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Listen.Host, strconv.Itoa(cfg.Listen.Port)))
	if err != nil {
		return nil, fmt.Errorf("chat relay start error: %w", err)
	}
	go func() {
		if err := s.Serve(ln); err != nil {
			logger.ErrorF("Chat relay stopped: %v", err)
		}
	}()

	if cfg.WebSocket.Enabled {
		wsLn, err := net.Listen("tcp", net.JoinHostPort(cfg.Listen.Host, strconv.Itoa(cfg.WebSocket.Port)))
		if err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("websocket gateway start error: %w", err)
		}
		go func() {
			if err := s.ServeWebSocket(wsLn, cfg.WebSocket.Path); err != nil {
				logger.ErrorF("WebSocket gateway stopped: %v", err)
			}
		}()
	}
	return s, nil
}

// Shutdown stops accepting, closes every client connection and waits for the
// handlers to finish their cleanup or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	listeners := s.listeners
	servers := s.httpServers
	s.listeners, s.httpServers = nil, nil
	s.mu.Unlock()

	for _, ln := range listeners {
		if err := ln.Close(); err != nil && !transport.IsNetClosedError(err) {
			logger.ErrorF("Server close error: %v", err)
		}
	}
	for _, srv := range servers {
		// hijacked websocket connections are closed through the manager below
		_ = srv.Close()
	}
	s.connections.CloseAll()

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All client connections closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for connection handlers: %w", ctx.Err())
	}
}

// Invoke lets the cleaner shut the server down.
func (s *Server) Invoke(ctx context.Context) error {
	logger.Info("Shutting down chat relay")
	return s.Shutdown(ctx)
}
