package chat

import (
	"sync"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
)

const DefaultOutboxSize = 256

// Conn is the part of a transport connection a session writes through.
type Conn interface {
	WriteLine(line string) error
	Close() error
}

// Session is the server side of one connected client. Its nickname is set
// once by Login; room and blocks are mutated only through the relay and the
// router while other goroutines read them during delivery.
type Session struct {
	id   string
	conn Conn

	mu     sync.RWMutex
	nick   string
	room   int
	blocks map[string]BlockLevel

	outMu  sync.Mutex
	outbox chan string
	closed bool
	done   chan struct{}
}

func NewSession(id string, conn Conn, outboxSize int) *Session {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Session{
		id:     id,
		conn:   conn,
		blocks: make(map[string]BlockLevel),
		outbox: make(chan string, outboxSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

func (s *Session) setNickname(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nick = nick
}

// Room returns the current room id, 0 while in the lobby.
func (s *Session) Room() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) setRoom(roomID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = roomID
}

func (s *Session) Block(nick string, level BlockLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level == Unblocked {
		delete(s.blocks, nick)
		return
	}
	s.blocks[nick] = level
}

// Unblock removes any block on nick and reports whether one existed.
func (s *Session) Unblock(nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[nick]
	delete(s.blocks, nick)
	return ok
}

func (s *Session) BlockLevel(nick string) BlockLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks[nick]
}

// Deliver queues msg unless this session blocks its sender for that kind of
// message. It reports whether the message was accepted by the block policy.
func (s *Session) Deliver(msg Message) bool {
	if msg.From != "" && s.BlockLevel(msg.From).Suppresses(msg.Kind) {
		return false
	}
	s.Send(msg.Text)
	return true
}

// Send queues a line for the writer. A full outbox means the client stopped
// reading; the connection is closed and the read loop performs cleanup.
func (s *Session) Send(line string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.outbox <- line:
	default:
		logger.WarnF("[%s] Outbox full, dropping connection", s.id)
		_ = s.conn.Close()
	}
}

// Run writes queued lines until Close is called and the outbox is drained.
func (s *Session) Run() {
	defer close(s.done)
	failed := false
	for line := range s.outbox {
		if failed {
			continue
		}
		if err := s.conn.WriteLine(line); err != nil {
			logger.WarnF("[%s] Fail to send line, details: %v", s.id, err)
			failed = true
			_ = s.conn.Close()
		}
	}
}

// Close stops accepting lines. Lines already queued are still written.
func (s *Session) Close() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.outbox)
}

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
