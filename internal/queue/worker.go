package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/service"
)

// Register binds every automation task type to its handler.
func (q *Queue) Register(mux *asynq.ServeMux) {
	for _, taskType := range runAllTaskTypes {
		mux.HandleFunc(taskType, q.HandleRunAllTask)
	}
	mux.HandleFunc(TaskTypeAccountRun, q.HandleAccountRunTask)
}

func (q *Queue) HandleRunAllTask(ctx context.Context, task *asynq.Task) error {
	for op, taskType := range runAllTaskTypes {
		if taskType == task.Type() {
			_, err := q.RunAll(ctx, op)
			return err
		}
	}
	return fmt.Errorf("unknown task type %q: %w", task.Type(), asynq.SkipRetry)
}

func (q *Queue) HandleAccountRunTask(ctx context.Context, task *asynq.Task) error {
	var payload AccountRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	_, err := q.RunAccount(ctx, payload.Operation, payload.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound),
			errors.Is(err, service.ErrNoFollowTarget),
			errors.Is(err, service.ErrRunInFlight),
			errors.Is(err, service.ErrNoMessagePattern),
			errors.Is(err, service.ErrInvalidInput):
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// RunAll invokes the entry point for op in the calling goroutine.
func (q *Queue) RunAll(ctx context.Context, op models.Operation) (*service.RunSummary, error) {
	switch op {
	case models.OperationSync:
		return q.status.SyncAll(ctx)
	case models.OperationFollow:
		return q.follow.FollowAllEligible(ctx)
	case models.OperationUnfollow:
		return q.unfollow.UnfollowAllEligible(ctx)
	case models.OperationDirectMessage:
		return q.campaign.SendAllEligible(ctx)
	}
	return nil, fmt.Errorf("%w: unknown operation %q", service.ErrInvalidInput, op)
}

// RunAccount reconciles a single account. Sync has no per-account form.
func (q *Queue) RunAccount(ctx context.Context, op models.Operation, accountID int64) (*service.ReconcileResult, error) {
	switch op {
	case models.OperationFollow:
		return q.follow.RunForAccount(ctx, accountID)
	case models.OperationUnfollow:
		return q.unfollow.RunForAccount(ctx, accountID)
	case models.OperationDirectMessage:
		return q.campaign.RunForAccount(ctx, accountID)
	}
	return nil, fmt.Errorf("%w: operation %q cannot run for a single account", service.ErrInvalidInput, op)
}
