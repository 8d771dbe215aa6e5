package database

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const TranscriptCollectionName = "transcripts"

// TranscriptLine is one delivered room line.
type TranscriptLine struct {
	RoomID    int       `bson:"room_id"`
	Seq       int64     `bson:"seq"`
	Line      string    `bson:"line"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewTranscriptLine(roomID int, seq int64, line string) *TranscriptLine {
	return &TranscriptLine{
		RoomID:    roomID,
		Seq:       seq,
		Line:      line,
		CreatedAt: time.Now(),
	}
}

// WrapErr classifies driver errors the same way for every caller.
func WrapErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("unique key conflicts: %w", err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("document does not exist: %w", err)
	}
	return fmt.Errorf("database operation failed: %w", err)
}
