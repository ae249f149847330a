package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
)

type FollowService interface {
	FollowAllEligible(ctx context.Context) (*RunSummary, error)
	FollowTarget(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error)
	RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error)
}

type followService struct {
	engine
	accountRepo repository.AccountRepository
	batch       int
}

func NewFollowService(accountRepo repository.AccountRepository, gateways GatewayFactory, pool *AccountPool, collector *metrics.Collector, batch int) FollowService {
	return &followService{
		engine:      engine{pool: pool, gateways: gateways, metrics: collector},
		accountRepo: accountRepo,
		batch:       batch,
	}
}

func (s *followService) FollowAllEligible(ctx context.Context) (*RunSummary, error) {
	accounts, err := s.accountRepo.ListFollowEligible(ctx)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s.runAll(ctx, models.OperationFollow, accounts, s.work), nil
}

func (s *followService) RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !account.HasFollowTarget() {
		return nil, ErrNoFollowTarget
	}

	return s.runOne(ctx, models.OperationFollow, account, s.work)
}

func (s *followService) work(ctx context.Context, account *models.Account, gw TwitterGateway) (*ReconcileResult, error) {
	return s.FollowTarget(ctx, account, gw, s.batch)
}

// FollowTarget follows up to n of the target's followers that account does
// not follow yet. The target is cleared only when nothing was left to
// follow before the cap was applied.
func (s *followService) FollowTarget(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error) {
	targetFollowers, err := gw.FollowerIDs(ctx, account.TargetUser)
	if err != nil {
		return nil, err
	}
	friends, err := gw.FriendIDs(ctx, account.ScreenName)
	if err != nil {
		return nil, err
	}

	candidates := difference(targetFollowers, friends)
	result := &ReconcileResult{Candidates: len(candidates)}

	var followed []string
	for _, id := range capped(candidates, n) {
		result.Attempted++

		user, err := gw.Follow(ctx, id)
		s.metrics.ObserveAction(string(models.OperationFollow), err)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
		followed = append(followed, user.ScreenName)
	}

	if len(candidates) == 0 {
		if err := s.accountRepo.ClearTarget(ctx, account.ID); err != nil {
			slog.Info(err.Error())
			return result, err
		}
		result.TargetCleared = true
		slog.Info("follow target exhausted",
			"account", account.ScreenName,
			"operation", string(models.OperationFollow),
			"target", account.TargetUser,
		)
	}

	if len(followed) > 0 {
		slog.Info("followed accounts",
			"account", account.ScreenName,
			"operation", string(models.OperationFollow),
			"target", account.TargetUser,
			"screen_names", followed,
		)
	}

	return result, nil
}
