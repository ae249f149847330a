package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/queue"
	"github.com/maheshrc27/followflow/internal/service"
	"github.com/robfig/cron"
)

// AutomationJob is the scheduler driver. With an enqueuer each tick becomes
// an asynq task; without one the entry points run in-process.
type AutomationJob struct {
	runner    *queue.Queue
	enqueuer  queue.Enqueuer
	uniqueFor time.Duration
}

// NewAutomationJob builds the driver. enqueuer may be nil.
func NewAutomationJob(runner *queue.Queue, enqueuer queue.Enqueuer, uniqueFor time.Duration) *AutomationJob {
	return &AutomationJob{
		runner:    runner,
		enqueuer:  enqueuer,
		uniqueFor: uniqueFor,
	}
}

// Schedule registers the four entry points on c.
func (j *AutomationJob) Schedule(c *cron.Cron, schedule config.Schedule) error {
	entries := []struct {
		spec string
		fn   func()
	}{
		{schedule.Sync, j.SyncAll},
		{schedule.Follow, j.FollowAll},
		{schedule.Unfollow, j.UnfollowAll},
		{schedule.DirectMessage, j.DirectMessageAll},
	}

	for _, e := range entries {
		if err := c.AddFunc(e.spec, e.fn); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", e.spec, err)
		}
	}
	return nil
}

func (j *AutomationJob) SyncAll() { j.trigger(models.OperationSync) }
func (j *AutomationJob) FollowAll() { j.trigger(models.OperationFollow) }
func (j *AutomationJob) UnfollowAll() { j.trigger(models.OperationUnfollow) }
func (j *AutomationJob) DirectMessageAll() { j.trigger(models.OperationDirectMessage) }

func (j *AutomationJob) trigger(op models.Operation) {
	if j.enqueuer != nil {
		if err := queue.EnqueueRunAll(j.enqueuer, op, j.uniqueFor); err != nil {
			slog.Error("failed to enqueue entry point", "operation", string(op), "error", err)
		}
		return
	}

	if _, err := j.runner.RunAll(context.Background(), op); err != nil {
		slog.Error("entry point failed", "operation", string(op), "error", err)
	}
}

// AccountRun reports how an on-demand run was handled: queued under TaskID or
// executed inline with Result.
type AccountRun struct {
	TaskID string                   `json:"task_id,omitempty"`
	Result *service.ReconcileResult `json:"result,omitempty"`
}

func (j *AutomationJob) RunAccount(ctx context.Context, op models.Operation, accountID int64) (*AccountRun, error) {
	if op == models.OperationSync {
		return nil, fmt.Errorf("%w: operation %q cannot run for a single account", service.ErrInvalidInput, op)
	}

	if j.enqueuer != nil {
		info, err := queue.EnqueueAccountRun(j.enqueuer, queue.AccountRunPayload{AccountID: accountID, Operation: op})
		if err != nil {
			return nil, err
		}
		return &AccountRun{TaskID: info.ID}, nil
	}

	result, err := j.runner.RunAccount(ctx, op, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountRun{Result: result}, nil
}
