package chat

import (
	"errors"
	"sort"
	"sync"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
)

// Room is a password-optional group of sessions. Participants are kept by
// nickname and resolved through the registry when a line is delivered.
type Room struct {
	id       int
	password []byte
	sessions *SessionRegistry

	mu           sync.RWMutex
	participants map[string]struct{}

	logMu sync.Mutex
	sink  transcript.Sink
}

func newRoom(id int, passwordHash []byte, sessions *SessionRegistry, sink transcript.Sink) *Room {
	return &Room{
		id:           id,
		password:     passwordHash,
		sessions:     sessions,
		participants: make(map[string]struct{}),
		sink:         sink,
	}
}

func (r *Room) ID() int {
	return r.id
}

func (r *Room) HasPassword() bool {
	return len(r.password) > 0
}

func (r *Room) CheckPassword(supplied string) bool {
	return checkPassword(r.password, supplied)
}

// Join adds session if the password matches and announces it to the room.
// On a mismatch the session is told and nothing changes. The caller must have
// taken the session out of any previous room; Relay.JoinRoom does that and
// compares the password outside its lock.
func (r *Room) Join(session *Session, password string) bool {
	if !r.CheckPassword(password) {
		session.Send(msgInvalidPassword)
		return false
	}
	r.admit(session)
	return true
}

// admit records the membership on both sides, so session.Room() always names
// the room that lists it.
func (r *Room) admit(session *Session) {
	nick := session.Nickname()
	session.setRoom(r.id)
	r.mu.Lock()
	r.participants[nick] = struct{}{}
	r.mu.Unlock()
	r.Broadcast(NewNotice(roomJoined(r.id, nick)))
}

// Leave removes session if present and announces the departure to whoever
// remains.
func (r *Room) Leave(session *Session) {
	nick := session.Nickname()
	if session.Room() == r.id {
		session.setRoom(0)
	}
	r.mu.Lock()
	_, present := r.participants[nick]
	delete(r.participants, nick)
	r.mu.Unlock()
	if present {
		r.Broadcast(NewNotice(roomLeft(r.id, nick)))
	}
}

func (r *Room) Contains(nick string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participants[nick]
	return ok
}

// Members returns participant nicknames in sorted order.
func (r *Room) Members() []string {
	r.mu.RLock()
	members := make([]string, 0, len(r.participants))
	for nick := range r.participants {
		members = append(members, nick)
	}
	r.mu.RUnlock()
	sort.Strings(members)
	return members
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

func (r *Room) Empty() bool {
	return r.Len() == 0
}

// Broadcast delivers msg to every participant whose block policy allows it
// and appends the line to the transcript.
func (r *Room) Broadcast(msg Message) {
	for _, nick := range r.Members() {
		if session, ok := r.sessions.Lookup(nick); ok {
			session.Deliver(msg)
		}
	}
	r.appendTranscript(msg.Text)
}

func (r *Room) appendTranscript(line string) {
	r.logMu.Lock()
	defer r.logMu.Unlock()
	if err := r.sink.Append(line); err != nil && !errors.Is(err, transcript.ErrClosed) {
		logger.ErrorF("Fail to append transcript of room %d, details: %v", r.id, err)
	}
}

func (r *Room) release() {
	r.logMu.Lock()
	defer r.logMu.Unlock()
	if err := r.sink.Close(); err != nil {
		logger.ErrorF("Fail to release transcript of room %d, details: %v", r.id, err)
	}
}
