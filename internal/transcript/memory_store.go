package transcript

import (
	"sync"
)

type MemoryStore struct {
	mu    sync.Mutex
	rooms map[int][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[int][]string)}
}

func (ms *MemoryStore) Open(roomID int) (Sink, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.rooms[roomID] = []string{}
	return &memorySink{store: ms, roomID: roomID}, nil
}

// Lines returns a copy of the room's transcript and whether it still exists.
func (ms *MemoryStore) Lines(roomID int) ([]string, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	lines, ok := ms.rooms[roomID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), lines...), true
}

type memorySink struct {
	store  *MemoryStore
	roomID int
}

func (m *memorySink) Append(line string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	lines, ok := m.store.rooms[m.roomID]
	if !ok {
		return ErrClosed
	}
	m.store.rooms[m.roomID] = append(lines, line)
	return nil
}

func (m *memorySink) Close() error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.rooms, m.roomID)
	return nil
}
