// Package connection tracks the live client connections so they can be
// closed together at shutdown.
package connection

import (
	"sync"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transport"
)

type Connection struct {
	Conn   transport.Conn
	ConnID string
}

type ConnectionManager struct {
	connections sync.Map
	closing     sync.Mutex
	closed      bool
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{}
}

// AddConnection registers conn. Once CloseAll has run, new connections are
// closed immediately and false is returned.
func (cm *ConnectionManager) AddConnection(conn *Connection) bool {
	cm.closing.Lock()
	defer cm.closing.Unlock()
	if cm.closed {
		_ = conn.Conn.Close()
		return false
	}
	cm.connections.Store(conn.ConnID, conn)
	logger.DebugF("[%s] Connection tracked", conn.ConnID)
	return true
}

func (cm *ConnectionManager) RemoveConnection(connID string) {
	cm.connections.Delete(connID)
	logger.DebugF("[%s] Connection untracked", connID)
}

func (cm *ConnectionManager) Len() int {
	count := 0
	cm.connections.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// CloseAll closes every tracked connection and refuses new ones. The read
// loops observe the close and run their own cleanup.
func (cm *ConnectionManager) CloseAll() {
	cm.closing.Lock()
	cm.closed = true
	cm.closing.Unlock()

	cm.connections.Range(func(_, value any) bool {
		conn := value.(*Connection)
		if err := conn.Conn.Close(); err != nil && !transport.IsNetClosedError(err) {
			logger.WarnF("[%s] Error occured while closing connection, details: %v", conn.ConnID, err)
		}
		return true
	})
}
