package worker

import (
	"context"
	"encoding/json"

	"github.com/danglnh07/concord/db"
	"github.com/hibiken/asynq"
)

// Payload struct for send notification job
type NotificationPayload struct {
	AccountID      uint                `json:"account_id"`
	Type           db.NotificationType `json:"type"`
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	FromID         *uint               `json:"from_id,omitempty"`
	ConversationID *uint               `json:"conversation_id,omitempty"`
	MessageID      *uint               `json:"message_id,omitempty"`
}

// Send notification key
const SendNotification = "send-notification"

// Method to distribute send notification task
func (distributor *RedisTaskDistributor) DistributeTaskSendNotification(
	ctx context.Context,
	payload NotificationPayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(SendNotification, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", SendNotification, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Method to process send notification task: persist the row first, then
// push it to the recipient's SSE streams.
func (processor *RedisTaskProcessor) ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", SendNotification)

	// Unmarshal payload
	var payload NotificationPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// Insert notification into database first
	notification := db.Notification{
		AccountID:      payload.AccountID,
		Type:           payload.Type,
		Title:          payload.Title,
		Content:        payload.Content,
		Read:           false,
		FromID:         payload.FromID,
		ConversationID: payload.ConversationID,
		MessageID:      payload.MessageID,
	}
	if err = processor.store.CreateNotification(&notification); err != nil {
		return err
	}
	processor.logger.Info("Insert notification successfully", "type", notification.Type, "account_id", notification.AccountID)

	// Publish event through hub
	processor.notifyHub.Publish(notification)

	return nil
}
