package chat

import (
	"sort"
	"sync"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
)

// RoomDirectory owns every room and hands out room ids. Ids start at 1 and
// are never reused.
type RoomDirectory struct {
	mu           sync.RWMutex
	rooms        map[int]*Room
	lastID       int
	store        transcript.Store
	sessions     *SessionRegistry
	passwordCost int
}

func NewRoomDirectory(sessions *SessionRegistry, store transcript.Store, passwordCost int) *RoomDirectory {
	if store == nil {
		store = transcript.NewMemoryStore()
	}
	return &RoomDirectory{
		rooms:        make(map[int]*Room),
		store:        store,
		sessions:     sessions,
		passwordCost: passwordCost,
	}
}

// CreateRoom stores a new empty room. An empty password makes the room open.
// The only error is ErrPasswordTooLong.
func (d *RoomDirectory) CreateRoom(password string) (int, error) {
	room, err := d.prepareRoom(password)
	if err != nil {
		return 0, err
	}
	d.add(room)
	return room.id, nil
}

// prepareRoom does the slow part of creation: it hashes the password,
// allocates the id and opens the transcript. The room is not visible until
// add is called.
func (d *RoomDirectory) prepareRoom(password string) (*Room, error) {
	hash, err := hashPassword(password, d.passwordCost)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.lastID++
	id := d.lastID
	d.mu.Unlock()

	sink, err := d.store.Open(id)
	if err != nil {
		logger.ErrorF("Fail to open transcript of room %d, details: %v", id, err)
		sink = transcript.Discard
	}
	return newRoom(id, hash, d.sessions, sink), nil
}

func (d *RoomDirectory) add(room *Room) {
	d.mu.Lock()
	d.rooms[room.id] = room
	d.mu.Unlock()
	logger.InfoF("Room %d created, password=%v", room.id, room.HasPassword())
}

func (d *RoomDirectory) GetRoom(roomID int) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	return room, ok
}

// RemoveRoomIfEmpty deletes the room and releases its transcript when no
// participant is left. It reports whether the room was removed.
func (d *RoomDirectory) RemoveRoomIfEmpty(roomID int) bool {
	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if !ok || !room.Empty() {
		d.mu.Unlock()
		return false
	}
	delete(d.rooms, roomID)
	d.mu.Unlock()

	room.release()
	logger.InfoF("Room %d deleted", roomID)
	return true
}

// Rooms returns the current rooms ordered by id.
func (d *RoomDirectory) Rooms() []*Room {
	d.mu.RLock()
	result := make([]*Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		result = append(result, room)
	}
	d.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

func (d *RoomDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
