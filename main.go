package main

import (
	"log/slog"
	"os"

	"github.com/danglnh07/concord/api"
	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/mail"
	"github.com/danglnh07/concord/service/notify"
	"github.com/danglnh07/concord/service/pubsub"
	"github.com/danglnh07/concord/service/storage"
	"github.com/danglnh07/concord/service/worker"
	"github.com/danglnh07/concord/util"
	"github.com/hibiken/asynq"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config from .env
	config := util.LoadConfig(".env")

	// Connect to database
	queries, err := db.NewQueries(config)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run auto migration
	if err = queries.AutoMigration(); err != nil {
		logger.Error("Failed to run auto migration", "error", err)
		os.Exit(1)
	}

	// Hubs for realtime delivery
	notifyHub := notify.NewHub()
	eventHub := pubsub.NewHub()

	// Blob storage for avatars, attachments and emoji images
	blobs, err := storage.NewBlobStore(config)
	if err != nil {
		logger.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	// Task queue: distributor on the API side, processor + scheduler in
	// the background
	redisOpt := asynq.RedisClientOpt{Addr: config.RedisAddr}
	distributor := worker.NewRedisTaskDistributor(redisOpt, logger)
	processor := worker.NewRedisTaskProcessor(
		redisOpt, queries, mail.NewEmailService(config), notifyHub, eventHub, logger)

	go func() {
		if err := processor.Start(); err != nil {
			logger.Error("Failed to start task processor", "error", err)
			os.Exit(1)
		}
	}()

	scheduler := worker.NewScheduler(redisOpt)
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("Failed to start sweep scheduler", "error", err)
			os.Exit(1)
		}
	}()

	// Create and start server
	server := api.NewServer(queries, config, notifyHub, eventHub, distributor, blobs, logger)
	if err = server.Start(); err != nil {
		logger.Error("Failed to run the server or server shutdown unexpectedly", "error", err)
		os.Exit(1)
	}
}
