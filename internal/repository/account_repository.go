package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	ListByFlag(ctx context.Context, flag models.AutomationFlag) ([]*models.Account, error)
	ListFollowEligible(ctx context.Context) ([]*models.Account, error)
	UpdateCounts(ctx context.Context, id int64, friendsCount, followersCount int) error
	ClearTarget(ctx context.Context, id int64) error
	UpdateSettings(ctx context.Context, a *models.Account) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, group_id, screen_name, target_user, oauth_token, oauth_token_secret,
	friends_count, followers_count, description, auto_update, auto_follow,
	auto_unfollow, auto_direct_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.GroupID, &a.ScreenName, &a.TargetUser, &a.OAuthToken, &a.OAuthTokenSecret,
		&a.FriendsCount, &a.FollowersCount, &a.Description, &a.AutoUpdate, &a.AutoFollow,
		&a.AutoUnfollow, &a.AutoDirectMessage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, a *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (
			group_id,
			screen_name,
			target_user,
			oauth_token,
			oauth_token_secret,
			description,
			auto_update,
			auto_follow,
			auto_unfollow,
			auto_direct_message,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.GroupID,
		a.ScreenName,
		a.TargetUser,
		a.OAuthToken,
		a.OAuthTokenSecret,
		a.Description,
		a.AutoUpdate,
		a.AutoFollow,
		a.AutoUnfollow,
		a.AutoDirectMessage,
		now,
		now,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return a, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

func (r *accountRepository) ListByFlag(ctx context.Context, flag models.AutomationFlag) ([]*models.Account, error) {
	switch flag {
	case models.FlagAutoUpdate, models.FlagAutoFollow, models.FlagAutoUnfollow, models.FlagAutoDirectMessage:
	default:
		return nil, fmt.Errorf("unknown automation flag %q", flag)
	}

	// flag is one of the whitelisted column names above.
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + string(flag) + ` = TRUE ORDER BY id`
	return r.list(ctx, query)
}

func (r *accountRepository) ListFollowEligible(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE auto_follow = TRUE AND target_user <> ''
		ORDER BY id`
	return r.list(ctx, query)
}

func (r *accountRepository) list(ctx context.Context, query string, args ...any) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepository) UpdateCounts(ctx context.Context, id int64, friendsCount, followersCount int) error {
	query := `
		UPDATE accounts
		SET friends_count = $1,
			followers_count = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, friendsCount, followersCount, time.Now().UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) ClearTarget(ctx context.Context, id int64) error {
	query := `UPDATE accounts SET target_user = '', updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateSettings writes the user-editable columns only. Credentials and
// cached counts are left alone.
func (r *accountRepository) UpdateSettings(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET target_user = $1,
			description = $2,
			auto_update = $3,
			auto_follow = $4,
			auto_unfollow = $5,
			auto_direct_message = $6,
			updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		a.TargetUser,
		a.Description,
		a.AutoUpdate,
		a.AutoFollow,
		a.AutoUnfollow,
		a.AutoDirectMessage,
		time.Now().UTC(),
		a.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotFound
	}
	return nil
}
