package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
)

type UnfollowService interface {
	UnfollowAllEligible(ctx context.Context) (*RunSummary, error)
	UnfollowOveraged(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error)
	RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error)
}

type unfollowService struct {
	engine
	accountRepo repository.AccountRepository
	batch       int
}

func NewUnfollowService(accountRepo repository.AccountRepository, gateways GatewayFactory, pool *AccountPool, collector *metrics.Collector, batch int) UnfollowService {
	return &unfollowService{
		engine:      engine{pool: pool, gateways: gateways, metrics: collector},
		accountRepo: accountRepo,
		batch:       batch,
	}
}

func (s *unfollowService) UnfollowAllEligible(ctx context.Context) (*RunSummary, error) {
	accounts, err := s.accountRepo.ListByFlag(ctx, models.FlagAutoUnfollow)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s.runAll(ctx, models.OperationUnfollow, accounts, s.work), nil
}

func (s *unfollowService) RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	return s.runOne(ctx, models.OperationUnfollow, account, s.work)
}

func (s *unfollowService) work(ctx context.Context, account *models.Account, gw TwitterGateway) (*ReconcileResult, error) {
	return s.UnfollowOveraged(ctx, account, gw, s.batch)
}

// UnfollowOveraged unfollows up to n friends that do not follow back,
// oldest relationship first. The friend listing is most recent first, so
// the candidates are walked from its tail.
func (s *unfollowService) UnfollowOveraged(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error) {
	friends, err := gw.FriendIDs(ctx, account.ScreenName)
	if err != nil {
		return nil, err
	}
	followers, err := gw.FollowerIDs(ctx, account.ScreenName)
	if err != nil {
		return nil, err
	}

	candidates := reversed(difference(friends, followers))
	result := &ReconcileResult{Candidates: len(candidates)}

	var unfollowed []string
	for _, id := range capped(candidates, n) {
		result.Attempted++

		user, err := gw.Unfollow(ctx, id)
		s.metrics.ObserveAction(string(models.OperationUnfollow), err)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
		unfollowed = append(unfollowed, user.ScreenName)
	}

	if len(unfollowed) > 0 {
		slog.Info("unfollowed accounts",
			"account", account.ScreenName,
			"operation", string(models.OperationUnfollow),
			"screen_names", unfollowed,
		)
	}

	return result, nil
}
