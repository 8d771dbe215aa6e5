package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
)

// FileStore keeps one file per room. Open handles are cached; an evicted
// handle is closed and reopened in append mode on the next write.
type FileStore struct {
	dir     string
	mu      sync.Mutex
	handles *expirable.LRU[int, *os.File]
	open    map[int]bool
}

func NewFileStore(dir string, cacheSize int, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	s := &FileStore{
		dir:  dir,
		open: make(map[int]bool),
	}
	s.handles = expirable.NewLRU[int, *os.File](cacheSize, s.onEvict, ttl)
	return s, nil
}

func (s *FileStore) onEvict(roomID int, f *os.File) {
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.WarnF("Fail to close transcript of room %d, details: %v", roomID, err)
	}
}

func (s *FileStore) Path(roomID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("room_%d.log", roomID))
}

func (s *FileStore) Open(roomID int) (Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(roomID), os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open transcript of room %d: %w", roomID, err)
	}
	s.handles.Remove(roomID)
	s.handles.Add(roomID, f)
	s.open[roomID] = true
	return &fileSink{store: s, roomID: roomID}, nil
}

func (s *FileStore) handle(roomID int) (*os.File, error) {
	if f, ok := s.handles.Get(roomID); ok {
		return f, nil
	}
	f, err := os.OpenFile(s.Path(roomID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	s.handles.Add(roomID, f)
	return f, nil
}

func (s *FileStore) append(roomID int, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open[roomID] {
		return ErrClosed
	}

	for attempt := 0; ; attempt++ {
		f, err := s.handle(roomID)
		if err != nil {
			return fmt.Errorf("open transcript of room %d: %w", roomID, err)
		}
		_, err = f.WriteString(line + "\n")
		if err == nil {
			return nil
		}
		// the handle may have expired between Get and WriteString
		if errors.Is(err, os.ErrClosed) && attempt == 0 {
			s.handles.Remove(roomID)
			continue
		}
		return fmt.Errorf("write transcript of room %d: %w", roomID, err)
	}
}

func (s *FileStore) release(roomID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open[roomID] {
		return nil
	}
	delete(s.open, roomID)
	s.handles.Remove(roomID)
	if err := os.Remove(s.Path(roomID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove transcript of room %d: %w", roomID, err)
	}
	return nil
}

type fileSink struct {
	store  *FileStore
	roomID int
}

func (f *fileSink) Append(line string) error {
	return f.store.append(f.roomID, line)
}

func (f *fileSink) Close() error {
	return f.store.release(f.roomID)
}
