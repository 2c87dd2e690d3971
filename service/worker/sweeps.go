package worker

import (
	"context"
	"time"

	"github.com/danglnh07/concord/service/presence"
	"github.com/hibiken/asynq"
)

// Periodic sweep task keys. These run on fixed intervals (see scheduler.go)
// with empty payloads.
const (
	SweepStatuses = "sweep:user-statuses"
	SweepTyping   = "sweep:typing-statuses"
	SweepCalls    = "sweep:voice-calls"
)

// How long an inactive call is kept before the sweep purges it.
const callRetention = 24 * time.Hour

// ProcessTaskSweepStatuses recomputes every profile's status from its
// lastSeen bands. It only writes rows whose status actually changed, and a
// failure on one row never aborts the sweep. This sweep can race the
// heartbeat; last-writer-wins is fine since both converge to the same band.
func (processor *RedisTaskProcessor) ProcessTaskSweepStatuses(ctx context.Context, task *asynq.Task) error {
	profiles, err := processor.store.ListProfiles()
	if err != nil {
		return err
	}

	now := time.Now()
	var updated int
	for _, profile := range profiles {
		computed := presence.StatusFor(profile.LastSeen, profile.DoNotDisturb, now)
		if computed == profile.Status {
			continue
		}
		if err := processor.store.UpdateProfileStatus(profile.ID, computed); err != nil {
			processor.logger.Error("Status sweep: failed to update profile", "profile_id", profile.ID, "error", err)
			continue
		}
		updated++
	}

	processor.logger.Info("Status sweep completed", "profiles", len(profiles), "updated", updated)
	return nil
}

// ProcessTaskSweepTyping garbage-collects typing rows past the retention
// window. Readers already filter to the shorter display window, so rows
// removed here were long invisible.
func (processor *RedisTaskProcessor) ProcessTaskSweepTyping(ctx context.Context, task *asynq.Task) error {
	removed, err := processor.store.DeleteTypingBefore(time.Now().Add(-presence.TypingRetention))
	if err != nil {
		return err
	}

	processor.logger.Info("Typing sweep completed", "removed", removed)
	return nil
}

// ProcessTaskSweepCalls purges voice calls that ended more than a day ago.
// Active calls are never touched.
func (processor *RedisTaskProcessor) ProcessTaskSweepCalls(ctx context.Context, task *asynq.Task) error {
	purged, err := processor.store.DeleteInactiveCallsBefore(time.Now().Add(-callRetention))
	if err != nil {
		return err
	}

	processor.logger.Info("Voice call sweep completed", "purged", purged)
	return nil
}
