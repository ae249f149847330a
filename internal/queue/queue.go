package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/service"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueRunAll schedules an "...all" entry point. While an earlier task for
// the same operation is still pending or running the new one is dropped.
func EnqueueRunAll(client Enqueuer, op models.Operation, uniqueFor time.Duration) error {
	taskType, ok := runAllTaskTypes[op]
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}

	task := asynq.NewTask(taskType, nil)
	info, err := client.Enqueue(task, asynq.Unique(uniqueFor), asynq.MaxRetry(0))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			slog.Warn("entry point still pending, not enqueued", "operation", string(op))
			return nil
		}
		slog.Info(err.Error())
		return err
	}

	slog.Info("task enqueued", "type", taskType, "id", info.ID)
	return nil
}

// AccountRunUniqueFor bounds how long an on-demand run blocks another one
// for the same operation and account. asynq releases the lock as soon as the
// task succeeds; a failed task holds it until the ttl expires.
const AccountRunUniqueFor = 10 * time.Minute

// EnqueueAccountRun schedules a single-account run. While a task with the
// same operation and account is pending, running, or failed within
// AccountRunUniqueFor, the request is rejected with service.ErrRunInFlight.
func EnqueueAccountRun(client Enqueuer, payload AccountRunPayload) (*asynq.TaskInfo, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	task := asynq.NewTask(TaskTypeAccountRun, taskPayload)
	info, err := client.Enqueue(task, asynq.Unique(AccountRunUniqueFor), asynq.MaxRetry(0))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil, service.ErrRunInFlight
		}
		slog.Info(err.Error())
		return nil, err
	}

	slog.Info("task enqueued", "type", TaskTypeAccountRun, "id", info.ID, "account_id", payload.AccountID)
	return info, nil
}
