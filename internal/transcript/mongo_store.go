package transcript

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/database"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoStore struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoStore(collection *mongo.Collection, timeout time.Duration) *MongoStore {
	return &MongoStore{collection: collection, timeout: timeout}
}

func (ms *MongoStore) Open(roomID int) (Sink, error) {
	return &mongoSink{store: ms, roomID: roomID}, nil
}

type mongoSink struct {
	store  *MongoStore
	roomID int
	seq    atomic.Int64
	closed atomic.Bool
}

func (m *mongoSink) Append(line string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.store.timeout)
	defer cancel()

	doc := database.NewTranscriptLine(m.roomID, m.seq.Add(1), line)
	if _, err := m.store.collection.InsertOne(ctx, doc); err != nil {
		return database.WrapErr(err)
	}
	return nil
}

func (m *mongoSink) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.store.timeout)
	defer cancel()

	result, err := m.store.collection.DeleteMany(ctx, bson.D{{Key: "room_id", Value: m.roomID}})
	if err != nil {
		return database.WrapErr(err)
	}
	logger.DebugF("Transcript of room %d deleted, lines=%d", m.roomID, result.DeletedCount)
	return nil
}
