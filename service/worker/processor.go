package worker

import (
	"context"
	"log/slog"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/mail"
	"github.com/danglnh07/concord/service/notify"
	"github.com/danglnh07/concord/service/pubsub"
	"github.com/hibiken/asynq"
)

// Task processor interface
type TaskProcessor interface {
	Start() error
	ProcessTaskSendEmail(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskDeliverEvent(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSweepStatuses(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSweepTyping(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSweepCalls(ctx context.Context, task *asynq.Task) (err error)
}

// Redis task processor
type RedisTaskProcessor struct {
	server      *asynq.Server
	store       db.Store
	mailService *mail.EmailService
	notifyHub   *notify.Hub
	eventHub    *pubsub.Hub
	logger      *slog.Logger
}

// Constructor method for Redis task processor
func NewRedisTaskProcessor(
	redisOpts asynq.RedisClientOpt,
	store db.Store,
	mailService *mail.EmailService,
	notifyHub *notify.Hub,
	eventHub *pubsub.Hub,
	logger *slog.Logger,
) TaskProcessor {
	return &RedisTaskProcessor{
		server:      asynq.NewServer(redisOpts, asynq.Config{}),
		store:       store,
		mailService: mailService,
		notifyHub:   notifyHub,
		eventHub:    eventHub,
		logger:      logger,
	}
}

// Method to start the worker server
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(SendEmail, processor.ProcessTaskSendEmail)
	mux.HandleFunc(SendNotification, processor.ProcessTaskSendNotification)
	mux.HandleFunc(DeliverEvent, processor.ProcessTaskDeliverEvent)
	mux.HandleFunc(SweepStatuses, processor.ProcessTaskSweepStatuses)
	mux.HandleFunc(SweepTyping, processor.ProcessTaskSweepTyping)
	mux.HandleFunc(SweepCalls, processor.ProcessTaskSweepCalls)

	return processor.server.Start(mux)
}
