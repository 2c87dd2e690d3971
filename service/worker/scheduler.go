package worker

import (
	"github.com/hibiken/asynq"
)

// NewScheduler enqueues the maintenance sweeps on fixed intervals: status
// recomputation every minute, typing cleanup every 30 seconds, stale call
// purge daily.
func NewScheduler(redisOpt asynq.RedisClientOpt) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(redisOpt, nil)

	// Registration only fails on a malformed cronspec, which would be a
	// programming error, so the entry IDs are discarded.
	scheduler.Register("@every 60s", asynq.NewTask(SweepStatuses, nil))
	scheduler.Register("@every 30s", asynq.NewTask(SweepTyping, nil))
	scheduler.Register("@every 24h", asynq.NewTask(SweepCalls, nil))

	return scheduler
}
