package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
)

// ReconcileResult describes one account's pass through a reconciler.
type ReconcileResult struct {
	Candidates    int  `json:"candidates"`
	Attempted     int  `json:"attempted"`
	Succeeded     int  `json:"succeeded"`
	Failed        int  `json:"failed"`
	Skipped       int  `json:"skipped"`
	TargetCleared bool `json:"target_cleared"`
}

// RunSummary describes one invocation of an "...all" entry point.
type RunSummary struct {
	RunID     string           `json:"run_id"`
	Operation models.Operation `json:"operation"`
	Accounts  int              `json:"accounts"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Actions   int              `json:"actions"`
	Duration  time.Duration    `json:"duration"`
}

func (s *RunSummary) log() {
	slog.Info("run finished",
		"run_id", s.RunID,
		"operation", string(s.Operation),
		"accounts", s.Accounts,
		"processed", s.Processed,
		"skipped", s.Skipped,
		"actions", s.Actions,
		"duration", s.Duration,
	)
}

type accountWork func(ctx context.Context, account *models.Account, gw TwitterGateway) (*ReconcileResult, error)

// engine carries what the reconcilers share: the account pool, the gateway
// factory and metrics.
type engine struct {
	pool     *AccountPool
	gateways GatewayFactory
	metrics  *metrics.Collector
}

// runAll applies work to every account through the pool. A failure for one
// account is logged and never stops the others.
func (e *engine) runAll(ctx context.Context, op models.Operation, accounts []*models.Account, work accountWork) *RunSummary {
	start := time.Now()
	summary := &RunSummary{
		RunID:     newRunID(),
		Operation: op,
		Accounts:  len(accounts),
	}

	var mu sync.Mutex
	e.pool.Run(ctx, op, accounts, func(ctx context.Context, account *models.Account) {
		result, err := e.runAccount(ctx, account, work)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.Error("account skipped this run",
				"run_id", summary.RunID,
				"account", account.ScreenName,
				"operation", string(op),
				"error", err,
			)
			return
		}
		summary.Processed++
		summary.Actions += result.Attempted
	})

	// Includes accounts the pool skipped because a run was still in flight.
	summary.Skipped = len(accounts) - summary.Processed
	summary.Duration = time.Since(start)
	e.metrics.ObserveRun(string(op), summary.Duration)
	summary.log()
	return summary
}

func (e *engine) runAccount(ctx context.Context, account *models.Account, work accountWork) (*ReconcileResult, error) {
	gw, err := e.gateways.ForAccount(account)
	if err != nil {
		return nil, err
	}
	return work(ctx, account, gw)
}

// runOne serves an on-demand run for a single account, holding the same
// lock as scheduled runs.
func (e *engine) runOne(ctx context.Context, op models.Operation, account *models.Account, work accountWork) (*ReconcileResult, error) {
	release, ok := e.pool.TryLock(op, account.ID)
	if !ok {
		return nil, ErrRunInFlight
	}
	defer release()

	return e.runAccount(ctx, account, work)
}
