package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
)

type SentMessageRepository interface {
	GetByFollower(ctx context.Context, accountID, toUserID int64) (*models.SentMessage, error)
	Create(ctx context.Context, sm *models.SentMessage) (int64, error)
	Advance(ctx context.Context, id, directMessageID int64, at time.Time) error
}

type sentMessageRepository struct {
	db *sql.DB
}

func NewSentMessageRepository(db *sql.DB) SentMessageRepository {
	return &sentMessageRepository{db: db}
}

func (r *sentMessageRepository) GetByFollower(ctx context.Context, accountID, toUserID int64) (*models.SentMessage, error) {
	query := `
		SELECT sm.id, sm.account_id, sm.to_user_id, sm.direct_message_id, dm.step, sm.created_at, sm.updated_at
		FROM sent_messages sm
		JOIN direct_messages dm ON dm.id = sm.direct_message_id
		WHERE sm.account_id = $1 AND sm.to_user_id = $2
	`

	var sm models.SentMessage
	err := r.db.QueryRowContext(ctx, query, accountID, toUserID).Scan(
		&sm.ID,
		&sm.AccountID,
		&sm.ToUserID,
		&sm.DirectMessageID,
		&sm.Step,
		&sm.CreatedAt,
		&sm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sm, nil
}

// Create inserts the cursor for a first contact. The (account_id, to_user_id)
// pair is unique, so a second insert for the same follower fails.
func (r *sentMessageRepository) Create(ctx context.Context, sm *models.SentMessage) (int64, error) {
	query := `
		INSERT INTO sent_messages (account_id, to_user_id, direct_message_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if sm.CreatedAt.IsZero() {
		sm.CreatedAt = time.Now().UTC()
	}
	if sm.UpdatedAt.IsZero() {
		sm.UpdatedAt = sm.CreatedAt
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query, sm.AccountID, sm.ToUserID, sm.DirectMessageID, sm.CreatedAt.UTC(), sm.UpdatedAt.UTC()).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	sm.ID = id
	return id, nil
}

func (r *sentMessageRepository) Advance(ctx context.Context, id, directMessageID int64, at time.Time) error {
	query := `UPDATE sent_messages SET direct_message_id = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, directMessageID, at.UTC(), id)
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
