package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/followflow/internal/models"
)

type MessagePatternRepository interface {
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	ListSteps(ctx context.Context, patternID int64) ([]*models.DirectMessage, error)
}

type messagePatternRepository struct {
	db *sql.DB
}

func NewMessagePatternRepository(db *sql.DB) MessagePatternRepository {
	return &messagePatternRepository{db: db}
}

func (r *messagePatternRepository) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	query := `SELECT id, name, COALESCE(message_pattern_id, 0), created_at FROM account_groups WHERE id = $1`

	var g models.Group
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(&g.ID, &g.Name, &g.MessagePatternID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &g, nil
}

// ListSteps returns the pattern's steps in ascending step order.
func (r *messagePatternRepository) ListSteps(ctx context.Context, patternID int64) ([]*models.DirectMessage, error) {
	query := `
		SELECT id, message_pattern_id, step, text
		FROM direct_messages
		WHERE message_pattern_id = $1
		ORDER BY step ASC
	`

	rows, err := r.db.QueryContext(ctx, query, patternID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var steps []*models.DirectMessage
	for rows.Next() {
		var dm models.DirectMessage
		if err := rows.Scan(&dm.ID, &dm.MessagePatternID, &dm.Step, &dm.Text); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		steps = append(steps, &dm)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return steps, nil
}
