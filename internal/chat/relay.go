package chat

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
)

var (
	ErrNicknameTaken   = errors.New("nickname taken")
	ErrNicknameEmpty   = errors.New("nickname empty")
	ErrNicknameSpaces  = errors.New("nickname contains whitespace")
	ErrRoomNotFound    = errors.New("room not found")
	ErrAlreadyInRoom   = errors.New("already in room")
	ErrInvalidPassword = errors.New("invalid password")
	ErrNotInRoom       = errors.New("not in a room")
)

// Relay owns the session registry and the room directory. mu serialises
// every structural change that spans both: login, logout, room creation,
// join and exit. Delivery never takes mu.
type Relay struct {
	mu       sync.Mutex
	sessions *SessionRegistry
	rooms    *RoomDirectory

	idleRoomTimeout time.Duration
}

type RoomInfo struct {
	ID           int
	HasPassword  bool
	Participants int
}

type UserInfo struct {
	Nickname string
	Room     int
}

func NewRelay(store transcript.Store, passwordCost int) *Relay {
	sessions := NewSessionRegistry()
	return &Relay{
		sessions: sessions,
		rooms:    NewRoomDirectory(sessions, store, passwordCost),
	}
}

// SetIdleRoomTimeout makes rooms that nobody joins within d disappear. Zero
// keeps them until the process exits.
func (r *Relay) SetIdleRoomTimeout(d time.Duration) {
	r.idleRoomTimeout = d
}

func (r *Relay) Sessions() *SessionRegistry {
	return r.sessions
}

func (r *Relay) Rooms() *RoomDirectory {
	return r.rooms
}

func validateNickname(nick string) error {
	if nick == "" {
		return ErrNicknameEmpty
	}
	if strings.IndexFunc(nick, unicode.IsSpace) >= 0 {
		return ErrNicknameSpaces
	}
	return nil
}

// Login completes the handshake for session. On success the client gets OK,
// the lobby is told, and the session is registered under nickname. On failure
// the client gets the reason and may try again.
func (r *Relay) Login(session *Session, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if err := validateNickname(nickname); err != nil {
		if errors.Is(err, ErrNicknameEmpty) {
			session.Send(msgNicknameEmpty)
		} else {
			session.Send(msgNicknameSpaces)
		}
		return err
	}

	r.mu.Lock()
	if _, taken := r.sessions.Lookup(nickname); taken {
		r.mu.Unlock()
		session.Send(msgNicknameTaken)
		return ErrNicknameTaken
	}
	session.setNickname(nickname)
	// OK is queued before the session becomes visible to any broadcast.
	session.Send(replyOK)
	r.sessions.Register(nickname, session)
	r.mu.Unlock()

	logger.InfoF("[%s] %s connected", session.ID(), nickname)
	r.BroadcastLobby(NewNotice(lobbyConnected(nickname)))
	session.Send(msgHelpHint)
	return nil
}

// Logout removes a logged-in session: it leaves its room exactly like /exit,
// is unregistered, and the lobby is told. Sessions that never completed the
// handshake are ignored.
func (r *Relay) Logout(session *Session) {
	nick := session.Nickname()
	if nick == "" {
		return
	}

	r.mu.Lock()
	current, ok := r.sessions.Lookup(nick)
	if !ok || current != session {
		r.mu.Unlock()
		return
	}
	if session.Room() != 0 {
		r.leaveLocked(session)
	}
	r.sessions.Unregister(nick)
	r.mu.Unlock()

	logger.InfoF("[%s] %s disconnected", session.ID(), nick)
	r.BroadcastLobby(NewNotice(lobbyDisconnected(nick)))
}

// BroadcastLobby delivers msg to every registered session.
func (r *Relay) BroadcastLobby(msg Message) {
	for _, session := range r.sessions.Snapshot() {
		session.Deliver(msg)
	}
}

// CreateRoom hashes the password and opens the transcript before taking the
// structural lock; only publishing the room is serialised.
func (r *Relay) CreateRoom(password string) (int, error) {
	room, err := r.rooms.prepareRoom(password)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.rooms.add(room)
	r.mu.Unlock()

	if timeout := r.idleRoomTimeout; timeout > 0 {
		time.AfterFunc(timeout, func() { r.reclaimIdleRoom(room.id) })
	}
	return room.id, nil
}

// reclaimIdleRoom removes a room nobody has joined since it was created.
// Rooms that were joined and emptied are already gone, occupied ones stay.
func (r *Relay) reclaimIdleRoom(roomID int) {
	r.mu.Lock()
	removed := r.rooms.RemoveRoomIfEmpty(roomID)
	r.mu.Unlock()
	if removed {
		logger.InfoF("Room %d reclaimed, nobody joined it", roomID)
	}
}

// JoinRoom moves session into roomID. A session already in a room leaves it
// first, including reclamation, and stays in the lobby if the join then
// fails. The password is compared before the structural lock is taken.
func (r *Relay) JoinRoom(session *Session, roomID int, password string) error {
	if session.Room() == roomID {
		return ErrAlreadyInRoom
	}
	target, found := r.rooms.GetRoom(roomID)
	// bcrypt is slow; compare before taking the structural lock.
	passwordOK := found && target.CheckPassword(password)

	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Room() != 0 {
		r.leaveLocked(session)
	}
	// the room may have been reclaimed while the password was checked
	if current, ok := r.rooms.GetRoom(roomID); !found || !ok || current != target {
		return ErrRoomNotFound
	}
	if !passwordOK {
		return ErrInvalidPassword
	}
	target.admit(session)
	logger.DebugF("[%s] %s joined room %d", session.ID(), session.Nickname(), roomID)
	return nil
}

// ExitRoom returns session to the lobby.
func (r *Relay) ExitRoom(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.Room() == 0 {
		return ErrNotInRoom
	}
	r.leaveLocked(session)
	return nil
}

func (r *Relay) leaveLocked(session *Session) {
	roomID := session.Room()
	session.setRoom(0)
	if room, ok := r.rooms.GetRoom(roomID); ok {
		room.Leave(session)
	}
	r.rooms.RemoveRoomIfEmpty(roomID)
	logger.DebugF("[%s] %s left room %d", session.ID(), session.Nickname(), roomID)
}

func (r *Relay) RoomList() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := r.rooms.Rooms()
	result := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, RoomInfo{ID: room.ID(), HasPassword: room.HasPassword(), Participants: room.Len()})
	}
	return result
}

func (r *Relay) UserList() []UserInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := r.sessions.Snapshot()
	result := make([]UserInfo, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, UserInfo{Nickname: session.Nickname(), Room: session.Room()})
	}
	return result
}
