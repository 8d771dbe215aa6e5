package main

import (
	"flag"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/admin"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/chat"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/database"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/event"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/server"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the JSON configuration file")
	flag.Parse()

	config.SetPath(*configPath)
	cfg, err := config.ReadConfig()
	if err != nil {
		logger.FatalF("Error occured while reading config %v", err)
		return
	}
	loggerCallback := logger.Init()
	logger.Debug("Application initializing...")
	cleaner := event.NewCleaner()
	cleaner.Init(loggerCallback)
	defer cleaner.Clean()

	store, err := transcript.FromConfig(cfg)
	if err != nil {
		logger.FatalF("Error occured while initializing transcript store, details: %v", err)
		return
	}

	relay := chat.NewRelay(store, cfg.Room.PasswordCost)
	relay.SetIdleRoomTimeout(cfg.Room.IdleTimeout)
	srv, err := server.StartServer(cfg, chat.NewRouter(relay))
	if err != nil {
		logger.FatalF("Error occured while starting server, details: %v", err)
		return
	}

	if cfg.Admin.Enabled {
		adminServer, err := admin.StartServer(cfg.Listen.Host, cfg.Admin.Port)
		if err != nil {
			logger.FatalF("Error occured while starting admin endpoint, details: %v", err)
			return
		}
		// health flips to NOT_SERVING before clients are disconnected
		cleaner.Add(adminServer)
	}
	cleaner.Add(srv)
	if cfg.Transcript.Backend == transcript.BackendMongo {
		cleaner.Add(database.NewDBCloseCallback())
	}

	<-cleaner.Done()
}
