package models

import "time"

type Group struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	MessagePatternID int64     `db:"message_pattern_id" json:"message_pattern_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DirectMessage is one step of a message pattern.
type DirectMessage struct {
	ID               int64  `db:"id" json:"id"`
	MessagePatternID int64  `db:"message_pattern_id" json:"message_pattern_id"`
	Step             int    `db:"step" json:"step"`
	Text             string `db:"text" json:"text"`
}

// SentMessage is the conversation cursor for one (account, follower) pair.
// Step is joined from the referenced direct message.
type SentMessage struct {
	ID              int64     `db:"id" json:"id"`
	AccountID       int64     `db:"account_id" json:"account_id"`
	ToUserID        int64     `db:"to_user_id" json:"to_user_id"`
	DirectMessageID int64     `db:"direct_message_id" json:"direct_message_id"`
	Step            int       `db:"step" json:"step"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
