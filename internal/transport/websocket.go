package transport

import (
	"errors"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBinaryFrame = errors.New("binary frames are not supported")

type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketConn treats every text frame as one line. Only one goroutine
// may call WriteLine at a time.
func NewWebSocketConn(conn *websocket.Conn, maxLineLength int) Conn {
	if maxLineLength > 0 {
		conn.SetReadLimit(int64(maxLineLength))
	}
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadLine() (string, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return "", ErrLineTooLong
		}
		return "", err
	}
	if messageType != websocket.TextMessage {
		return "", ErrBinaryFrame
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (c *wsConn) WriteLine(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
