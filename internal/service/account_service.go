package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
	"github.com/maheshrc27/followflow/internal/transfer"
	"github.com/maheshrc27/followflow/pkg/utils"
)

const historyWindow = 7 * 24 * time.Hour

type AccountService interface {
	List(ctx context.Context) ([]*models.Account, error)
	Get(ctx context.Context, id int64) (*transfer.AccountDetail, error)
	Create(ctx context.Context, in *transfer.AccountCreation) (*models.Account, error)
	Update(ctx context.Context, id int64, in *transfer.AccountUpdate) (*models.Account, error)
}

type accountService struct {
	accountRepo repository.AccountRepository
	historyRepo repository.FollowerHistoryRepository
	secretKey   []byte
	now         func() time.Time
}

func NewAccountService(accountRepo repository.AccountRepository, historyRepo repository.FollowerHistoryRepository, secretKey string) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		secretKey:   []byte(secretKey),
		now:         time.Now,
	}
}

func normalizeScreenName(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func (s *accountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.accountRepo.List(ctx)
}

// Get returns the account with its followers count series for the last
// seven days.
func (s *accountService) Get(ctx context.Context, id int64) (*transfer.AccountDetail, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	points, err := s.historyRepo.ListSince(ctx, id, s.now().Add(-historyWindow))
	if err != nil {
		return nil, err
	}

	series := make(map[time.Time]int, len(points))
	for _, p := range points {
		series[p.CreatedAt] = p.FollowersCount
	}

	return &transfer.AccountDetail{Account: account, FollowersCountData: series}, nil
}

func (s *accountService) Create(ctx context.Context, in *transfer.AccountCreation) (*models.Account, error) {
	screenName := normalizeScreenName(in.ScreenName)
	if screenName == "" {
		return nil, fmt.Errorf("%w: screen_name is required", ErrInvalidInput)
	}
	if in.OAuthToken == "" || in.OAuthTokenSecret == "" {
		return nil, fmt.Errorf("%w: oauth_token and oauth_token_secret are required", ErrInvalidInput)
	}

	token, err := utils.Encrypt([]byte(in.OAuthToken), s.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	tokenSecret, err := utils.Encrypt([]byte(in.OAuthTokenSecret), s.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	account := &models.Account{
		GroupID:           in.GroupID,
		ScreenName:        screenName,
		TargetUser:        normalizeScreenName(in.TargetUser),
		OAuthToken:        token,
		OAuthTokenSecret:  tokenSecret,
		Description:       in.Description,
		AutoUpdate:        boolOr(in.AutoUpdate, true),
		AutoFollow:        boolOr(in.AutoFollow, true),
		AutoUnfollow:      boolOr(in.AutoUnfollow, true),
		AutoDirectMessage: boolOr(in.AutoDirectMessage, true),
	}

	id, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	return s.accountRepo.GetByID(ctx, id)
}

// Update applies the editable settings. Credentials are never touched.
func (s *accountService) Update(ctx context.Context, id int64, in *transfer.AccountUpdate) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if in.TargetUser != nil {
		account.TargetUser = normalizeScreenName(*in.TargetUser)
	}
	if in.Description != nil {
		account.Description = *in.Description
	}
	account.AutoUpdate = boolOr(in.AutoUpdate, account.AutoUpdate)
	account.AutoFollow = boolOr(in.AutoFollow, account.AutoFollow)
	account.AutoUnfollow = boolOr(in.AutoUnfollow, account.AutoUnfollow)
	account.AutoDirectMessage = boolOr(in.AutoDirectMessage, account.AutoDirectMessage)

	if err := s.accountRepo.UpdateSettings(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return s.accountRepo.GetByID(ctx, id)
}
