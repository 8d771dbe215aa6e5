package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	c "github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultOperationTimeout = 5 * time.Second

var Client *mongo.Client
var Database *mongo.Database
var Transcripts *mongo.Collection
var OperationTimeout = defaultOperationTimeout

// DBCloseCallback disconnects the client. It is registered after the servers
// so that rooms released during shutdown can still clear their transcripts.
type DBCloseCallback struct {
}

func NewDBCloseCallback() *DBCloseCallback {
	return &DBCloseCallback{}
}

func (dc *DBCloseCallback) Invoke(ctx context.Context) error {
	logger.InfoF("Closing database connection")
	return Client.Disconnect(ctx)
}

// URI builds the connection string, escaping credentials.
func URI(config c.Config) string {
	if config.Database.Username == "" {
		return fmt.Sprintf("mongodb://%s:%d/", config.Database.Host, config.Database.Port)
	}
	encodedUser := url.QueryEscape(config.Database.Username)
	encodedPass := url.QueryEscape(config.Database.Password)
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/?authSource=admin",
		encodedUser, encodedPass,
		config.Database.Host,
		config.Database.Port,
	)
}

func clientOptions(config c.Config) *options.ClientOptions {
	opts := options.Client().ApplyURI(URI(config)).SetAppName(config.AppName)
	opts.SetMinPoolSize(config.Database.MinPoolSize)
	opts.SetMaxPoolSize(config.Database.MaxPoolSize)
	if config.Database.ConnectIdleTimeout > 0 {
		opts.SetMaxConnIdleTime(config.Database.ConnectIdleTimeout)
	}
	if config.Database.ConnectTimeout > 0 {
		opts.SetConnectTimeout(config.Database.ConnectTimeout)
	}
	if config.Database.SocketTimeout > 0 {
		opts.SetSocketTimeout(config.Database.SocketTimeout)
	}
	if config.Database.Heartbeat > 0 {
		opts.SetHeartbeatInterval(config.Database.Heartbeat)
	}
	if config.Database.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.SetPoolMonitor(&event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				logger.DebugF("Database connection created: %+v", evt)
			case event.ConnectionClosed:
				logger.DebugF("Database connection closed: %+v", evt)
			}
		},
	})
	return opts
}

func ConnectDatabase(config c.Config) error {
	logger.DebugF("Connecting to database...")

	if config.Database.OperationTimeout > 0 {
		OperationTimeout = config.Database.OperationTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, clientOptions(config))
	if err != nil {
		return fmt.Errorf("error occured while connecting to database: %w", err)
	}

	if err = Client.Ping(ctx, nil); err != nil {
		_ = Client.Disconnect(ctx)
		return fmt.Errorf("error occured while pinging database: %w", err)
	}

	Database = Client.Database(config.Database.Database)
	Transcripts = Database.Collection(TranscriptCollectionName)

	_, err = Transcripts.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetName("transcripts_room_seq"),
		},
	)
	if err != nil {
		return fmt.Errorf("error occured while creating database indexes: %w", err)
	}

	// Room ids restart at 1 with every process, so old lines must not leak
	// into a new room's transcript.
	if _, err = Transcripts.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("error occured while clearing stale transcripts: %w", err)
	}

	logger.InfoF("Connected to database %s", config.Database.Database)
	return nil
}
