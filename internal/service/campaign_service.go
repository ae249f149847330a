package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
	"github.com/maheshrc27/followflow/internal/transfer"
)

type CampaignService interface {
	SendAllEligible(ctx context.Context) (*RunSummary, error)
	AdvanceCampaign(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error)
	RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error)
}

type campaignService struct {
	engine
	accountRepo     repository.AccountRepository
	patternRepo     repository.MessagePatternRepository
	sentMessageRepo repository.SentMessageRepository
	batch           int
	fetchCount      int
	now             func() time.Time
}

func NewCampaignService(
	accountRepo repository.AccountRepository,
	patternRepo repository.MessagePatternRepository,
	sentMessageRepo repository.SentMessageRepository,
	gateways GatewayFactory,
	pool *AccountPool,
	collector *metrics.Collector,
	batch, fetchCount int,
) CampaignService {
	return &campaignService{
		engine:          engine{pool: pool, gateways: gateways, metrics: collector},
		accountRepo:     accountRepo,
		patternRepo:     patternRepo,
		sentMessageRepo: sentMessageRepo,
		batch:           batch,
		fetchCount:      fetchCount,
		now:             time.Now,
	}
}

func (s *campaignService) SendAllEligible(ctx context.Context) (*RunSummary, error) {
	accounts, err := s.accountRepo.ListByFlag(ctx, models.FlagAutoDirectMessage)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s.runAll(ctx, models.OperationDirectMessage, accounts, s.work), nil
}

func (s *campaignService) RunForAccount(ctx context.Context, accountID int64) (*ReconcileResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	return s.runOne(ctx, models.OperationDirectMessage, account, s.work)
}

func (s *campaignService) work(ctx context.Context, account *models.Account, gw TwitterGateway) (*ReconcileResult, error) {
	return s.AdvanceCampaign(ctx, account, gw, s.batch)
}

// inbox fetches the account's recent direct messages at most once per run.
type inbox struct {
	gw       TwitterGateway
	count    int
	fetched  bool
	messages []transfer.DirectMessage
	ok       bool
}

func (i *inbox) get(ctx context.Context) ([]transfer.DirectMessage, bool) {
	if !i.fetched {
		i.fetched = true
		messages, err := i.gw.DirectMessages(ctx, i.count)
		i.messages, i.ok = messages, err == nil
	}
	return i.messages, i.ok
}

func repliedSince(messages []transfer.DirectMessage, follower int64, since time.Time) bool {
	for _, m := range messages {
		if m.SenderID == follower && m.CreatedAt.After(since) {
			return true
		}
	}
	return false
}

// nextStep returns the smallest step strictly greater than current. steps
// must be in ascending order.
func nextStep(steps []*models.DirectMessage, current int) *models.DirectMessage {
	for _, dm := range steps {
		if dm.Step > current {
			return dm
		}
	}
	return nil
}

// AdvanceCampaign walks followers in listing order. New followers get the
// opening step; followers with a cursor only move on after a reply newer
// than the cursor. At most n followers are sent to, and completed
// conversations do not count toward n.
func (s *campaignService) AdvanceCampaign(ctx context.Context, account *models.Account, gw TwitterGateway, n int) (*ReconcileResult, error) {
	followers, err := gw.FollowerIDs(ctx, account.ScreenName)
	if err != nil {
		return nil, err
	}

	steps, err := s.pattern(ctx, account)
	if err != nil {
		return nil, err
	}
	first, final := steps[0], steps[len(steps)-1]

	box := &inbox{gw: gw, count: s.fetchCount}
	result := &ReconcileResult{Candidates: len(followers)}

	for _, follower := range followers {
		if result.Attempted >= n {
			break
		}

		cursor, err := s.sentMessageRepo.GetByFollower(ctx, account.ID, follower)
		if err != nil {
			slog.Error("failed to load conversation cursor",
				"account", account.ScreenName,
				"operation", string(models.OperationDirectMessage),
				"follower", follower,
				"error", err,
			)
			continue
		}

		next := first
		if cursor != nil {
			if cursor.Step >= final.Step {
				result.Skipped++
				continue
			}
			messages, ok := box.get(ctx)
			if !ok || !repliedSince(messages, follower, cursor.UpdatedAt) {
				continue
			}
			next = nextStep(steps, cursor.Step)
		}

		result.Attempted++
		err = gw.SendDirectMessage(ctx, follower, next.Text)
		s.metrics.ObserveAction(string(models.OperationDirectMessage), err)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++

		if err := s.saveCursor(ctx, account, follower, cursor, next); err != nil {
			slog.Error("message sent but cursor not saved",
				"account", account.ScreenName,
				"operation", string(models.OperationDirectMessage),
				"follower", follower,
				"step", next.Step,
				"error", err,
			)
			continue
		}
		slog.Info("direct message sent",
			"account", account.ScreenName,
			"operation", string(models.OperationDirectMessage),
			"follower", follower,
			"step", next.Step,
		)
	}

	return result, nil
}

func (s *campaignService) pattern(ctx context.Context, account *models.Account) ([]*models.DirectMessage, error) {
	group, err := s.patternRepo.GetGroup(ctx, account.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.MessagePatternID == 0 {
		return nil, ErrNoMessagePattern
	}

	steps, err := s.patternRepo.ListSteps(ctx, group.MessagePatternID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrNoMessagePattern
	}
	return steps, nil
}

func (s *campaignService) saveCursor(ctx context.Context, account *models.Account, follower int64, cursor *models.SentMessage, step *models.DirectMessage) error {
	now := s.now().UTC()
	if cursor != nil {
		return s.sentMessageRepo.Advance(ctx, cursor.ID, step.ID, now)
	}

	_, err := s.sentMessageRepo.Create(ctx, &models.SentMessage{
		AccountID:       account.ID,
		ToUserID:        follower,
		DirectMessageID: step.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	return err
}
