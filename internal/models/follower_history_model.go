package models

import "time"

type FollowerHistory struct {
	ID             int64     `db:"id" json:"id"`
	AccountID      int64     `db:"account_id" json:"account_id"`
	FollowersCount int       `db:"followers_count" json:"followers_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
