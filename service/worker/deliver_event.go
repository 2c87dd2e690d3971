package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danglnh07/concord/service/pubsub"
	"github.com/hibiken/asynq"
)

// Payload struct for the realtime delivery job
type EventPayload struct {
	Event      pubsub.Event `json:"event"`
	Recipients []uint       `json:"recipients"`
}

const DeliverEvent = "deliver-event"

// Method to distribute realtime event delivery
func (distributor *RedisTaskDistributor) DistributeTaskDeliverEvent(
	ctx context.Context,
	payload EventPayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(DeliverEvent, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", DeliverEvent, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Method to process realtime event delivery. Offline recipients are simply
// skipped: the write is already in the store, so they converge on the next
// fetch.
func (processor *RedisTaskProcessor) ProcessTaskDeliverEvent(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", DeliverEvent)

	// Unmarshal payload
	var payload EventPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	delivered := processor.eventHub.Push(payload.Event, payload.Recipients)
	processor.logger.Info(fmt.Sprintf("%d / %d events delivered", delivered, len(payload.Recipients)),
		"event_type", payload.Event.Type)

	return nil
}
