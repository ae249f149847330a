package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
)

type FollowerHistoryRepository interface {
	Create(ctx context.Context, h *models.FollowerHistory) (int64, error)
	ListSince(ctx context.Context, accountID int64, since time.Time) ([]*models.FollowerHistory, error)
}

type followerHistoryRepository struct {
	db *sql.DB
}

func NewFollowerHistoryRepository(db *sql.DB) FollowerHistoryRepository {
	return &followerHistoryRepository{db: db}
}

// Create appends one point. A zero CreatedAt is stamped with the current time.
func (r *followerHistoryRepository) Create(ctx context.Context, h *models.FollowerHistory) (int64, error) {
	query := `
		INSERT INTO follower_histories (account_id, followers_count, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query, h.AccountID, h.FollowersCount, h.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	h.ID = id
	return id, nil
}

func (r *followerHistoryRepository) ListSince(ctx context.Context, accountID int64, since time.Time) ([]*models.FollowerHistory, error) {
	query := `
		SELECT id, account_id, followers_count, created_at
		FROM follower_histories
		WHERE account_id = $1 AND created_at > $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, since.UTC())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var points []*models.FollowerHistory
	for rows.Next() {
		var h models.FollowerHistory
		if err := rows.Scan(&h.ID, &h.AccountID, &h.FollowersCount, &h.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		points = append(points, &h)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return points, nil
}
