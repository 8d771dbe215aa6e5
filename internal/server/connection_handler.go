package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/chat"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/connection"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transport"
)

const drainTimeout = 5 * time.Second

type ConnectionState int

const (
	Handshaking ConnectionState = iota
	Active
	Closed
)

func (s ConnectionState) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

type ConnectionHandler struct {
	conn    transport.Conn
	connId  string
	session *chat.Session
	router  *chat.Router
	state   ConnectionState
}

// handleHandshake reads candidate nicknames until one is accepted. A rejected
// nickname keeps the connection in the handshake.
func (c *ConnectionHandler) handleHandshake() error {
	relay := c.router.Relay()
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			return err
		}
		if err := relay.Login(c.session, line); err != nil {
			logger.DebugF("[%s] Handshake rejected: %v", c.connId, err)
			continue
		}
		c.state = Active
		return nil
	}
}

func (c *ConnectionHandler) handleLines() error {
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			return err
		}
		c.router.Handle(c.session, line)
	}
}

func (c *ConnectionHandler) cleanup() {
	c.state = Closed
	c.router.Relay().Logout(c.session)
	c.session.Close()
	select {
	case <-c.session.Done():
	case <-time.After(drainTimeout):
		logger.WarnF("[%s] Outbox not drained in time", c.connId)
	}
	if err := c.conn.Close(); err != nil && !transport.IsNetClosedError(err) {
		logger.WarnF("[%s] Error occured while closing connection, details: %v", c.connId, err)
	}
	logger.DebugF("[%s] Connection closed", c.connId)
}

func (c *ConnectionHandler) handleConnection() {
	defer c.cleanup()
	go c.session.Run()

	err := c.handleHandshake()
	if err == nil {
		err = c.handleLines()
	}
	if errors.Is(err, transport.ErrLineTooLong) || errors.Is(err, transport.ErrBinaryFrame) {
		logger.WarnF("[%s] Dropping connection in %s state: %v", c.connId, c.state, err)
		return
	}
	transport.HandleReadError(c.connId, err)
}

// handleConnection runs one client from handshake to cleanup.
func (s *Server) handleConnection(conn transport.Conn) {
	connID := uuid.NewString()
	if !s.connections.AddConnection(&connection.Connection{Conn: conn, ConnID: connID}) {
		logger.DebugF("[%s] Server shutting down, rejecting %s", connID, conn.RemoteAddr())
		return
	}
	defer s.connections.RemoveConnection(connID)

	logger.DebugF("[%s] New client from %s", connID, conn.RemoteAddr())
	handler := &ConnectionHandler{
		conn:    conn,
		connId:  connID,
		session: chat.NewSession(connID, conn, s.outboxSize),
		router:  s.router,
		state:   Handshaking,
	}
	handler.handleConnection()
}
