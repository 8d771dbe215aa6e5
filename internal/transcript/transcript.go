// Package transcript stores the lines delivered in each room. A transcript
// lives exactly as long as its room: closing a sink deletes what it stored.
package transcript

import (
	"errors"
	"fmt"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/database"
)

var ErrClosed = errors.New("transcript closed")

type Sink interface {
	Append(line string) error
	// Close releases the transcript and removes its contents.
	Close() error
}

type Store interface {
	Open(roomID int) (Sink, error)
}

const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// FromConfig builds the store selected by transcript.backend. The mongo
// backend connects to the database first.
func FromConfig(cfg config.Config) (Store, error) {
	switch cfg.Transcript.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Transcript.Dir, cfg.Transcript.CacheSize, cfg.Transcript.CacheTTL)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendMongo:
		if err := database.ConnectDatabase(cfg); err != nil {
			return nil, err
		}
		return NewMongoStore(database.Transcripts, database.OperationTimeout), nil
	default:
		return nil, fmt.Errorf("unknown transcript backend %q", cfg.Transcript.Backend)
	}
}

type discard struct{}

func (discard) Append(string) error { return nil }
func (discard) Close() error        { return nil }

// Discard is used when a room's real sink could not be opened.
var Discard Sink = discard{}
