package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maheshrc27/followflow/internal/models"
)

// AccountPool runs per-account work with bounded concurrency. At most one
// run per (operation, account) is in flight at a time; a second run for the
// same key is skipped rather than queued.
type AccountPool struct {
	sem chan struct{}

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewAccountPool(concurrency int) *AccountPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AccountPool{
		sem:      make(chan struct{}, concurrency),
		inFlight: make(map[string]struct{}),
	}
}

func lockKey(op models.Operation, accountID int64) string {
	return fmt.Sprintf("%s:%d", op, accountID)
}

// TryLock claims the run slot for (op, accountID). The returned release
// func must be called when the run finishes.
func (p *AccountPool) TryLock(op models.Operation, accountID int64) (release func(), ok bool) {
	key := lockKey(op, accountID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inFlight[key]; busy {
		return nil, false
	}
	p.inFlight[key] = struct{}{}

	return func() {
		p.mu.Lock()
		delete(p.inFlight, key)
		p.mu.Unlock()
	}, true
}

// Run calls fn for every account and waits for all of them. Accounts whose
// previous run is still in flight are skipped. Cancelling ctx stops new
// accounts from being started.
func (p *AccountPool) Run(ctx context.Context, op models.Operation, accounts []*models.Account, fn func(ctx context.Context, account *models.Account)) {
	var wg sync.WaitGroup

	for _, account := range accounts {
		release, ok := p.TryLock(op, account.ID)
		if !ok {
			slog.Warn("skipping account, previous run still in flight",
				"account", account.ScreenName,
				"operation", string(op),
			)
			continue
		}

		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			release()
			wg.Wait()
			return
		}

		wg.Add(1)
		go func(account *models.Account) {
			defer wg.Done()
			defer func() { <-p.sem }()
			defer release()

			fn(ctx, account)
		}(account)
	}

	wg.Wait()
}
