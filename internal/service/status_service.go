package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
	"github.com/maheshrc27/followflow/internal/transfer"
)

type StatusService interface {
	SyncAll(ctx context.Context) (*RunSummary, error)
}

type statusService struct {
	accountRepo repository.AccountRepository
	historyRepo repository.FollowerHistoryRepository
	gateways    GatewayFactory
	archiver    HistoryArchiver
	metrics     *metrics.Collector
	now         func() time.Time
}

// NewStatusService wires the synchronizer. archiver may be nil.
func NewStatusService(
	accountRepo repository.AccountRepository,
	historyRepo repository.FollowerHistoryRepository,
	gateways GatewayFactory,
	archiver HistoryArchiver,
	collector *metrics.Collector,
) StatusService {
	return &statusService{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		gateways:    gateways,
		archiver:    archiver,
		metrics:     collector,
		now:         time.Now,
	}
}

// SyncAll refreshes cached counts for every auto_update account from one
// batch lookup and appends a history point per refreshed account. Accounts
// missing from the lookup result are left untouched.
func (s *statusService) SyncAll(ctx context.Context) (*RunSummary, error) {
	start := time.Now()

	accounts, err := s.accountRepo.ListByFlag(ctx, models.FlagAutoUpdate)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	summary := &RunSummary{
		RunID:     newRunID(),
		Operation: models.OperationSync,
		Accounts:  len(accounts),
	}
	defer func() {
		summary.Skipped = summary.Accounts - summary.Processed
		summary.Duration = time.Since(start)
		s.metrics.ObserveRun(string(models.OperationSync), summary.Duration)
		summary.log()
	}()

	if len(accounts) == 0 {
		return summary, nil
	}

	gw, err := s.gateways.ForLookup(ctx, accounts)
	if err != nil {
		slog.Error("no lookup gateway available",
			"run_id", summary.RunID,
			"operation", string(models.OperationSync),
			"error", err,
		)
		return summary, nil
	}

	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = a.ScreenName
	}

	// A failed chunk has already been logged by the gateway; whatever
	// resolved is still applied.
	users, _ := gw.LookupUsers(ctx, names)

	byName := make(map[string]transfer.TwitterUser, len(users))
	for _, u := range users {
		byName[strings.ToLower(u.ScreenName)] = u
	}

	var points []*models.FollowerHistory
	for _, account := range accounts {
		user, ok := byName[strings.ToLower(account.ScreenName)]
		if !ok {
			continue
		}

		if err := s.accountRepo.UpdateCounts(ctx, account.ID, user.FriendsCount, user.FollowersCount); err != nil {
			slog.Error("failed to update counts",
				"run_id", summary.RunID,
				"account", account.ScreenName,
				"operation", string(models.OperationSync),
				"error", err,
			)
			continue
		}

		point := &models.FollowerHistory{
			AccountID:      account.ID,
			FollowersCount: user.FollowersCount,
			CreatedAt:      s.now().UTC(),
		}
		id, err := s.historyRepo.Create(ctx, point)
		if err != nil {
			slog.Error("failed to append follower history",
				"run_id", summary.RunID,
				"account", account.ScreenName,
				"operation", string(models.OperationSync),
				"error", err,
			)
			continue
		}
		point.ID = id

		points = append(points, point)
		summary.Processed++
	}

	s.archive(ctx, summary.RunID, points)
	return summary, nil
}

func (s *statusService) archive(ctx context.Context, runID string, points []*models.FollowerHistory) {
	if s.archiver == nil || len(points) == 0 {
		return
	}

	key, err := s.archiver.Archive(ctx, points)
	if err != nil {
		slog.Error("failed to archive follower history", "run_id", runID, "error", err)
		return
	}
	slog.Info("follower history archived", "run_id", runID, "key", key, "points", len(points))
}
