package models

import "time"

type Account struct {
	ID                int64     `db:"id" json:"id"`
	GroupID           int64     `db:"group_id" json:"group_id"`
	ScreenName        string    `db:"screen_name" json:"screen_name"`
	TargetUser        string    `db:"target_user" json:"target_user"`
	OAuthToken        string    `db:"oauth_token" json:"-"`
	OAuthTokenSecret  string    `db:"oauth_token_secret" json:"-"`
	FriendsCount      int       `db:"friends_count" json:"friends_count"`
	FollowersCount    int       `db:"followers_count" json:"followers_count"`
	Description       string    `db:"description" json:"description"`
	AutoUpdate        bool      `db:"auto_update" json:"auto_update"`
	AutoFollow        bool      `db:"auto_follow" json:"auto_follow"`
	AutoUnfollow      bool      `db:"auto_unfollow" json:"auto_unfollow"`
	AutoDirectMessage bool      `db:"auto_direct_message" json:"auto_direct_message"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// HasFollowTarget reports whether a follow target is pending. An empty
// target_user covers both "never set" and "cleared after reconciliation";
// the store does not tell the two apart.
func (a *Account) HasFollowTarget() bool {
	return a.TargetUser != ""
}

// AutomationFlag names one of the boolean toggles on an account.
type AutomationFlag string

const (
	FlagAutoUpdate        AutomationFlag = "auto_update"
	FlagAutoFollow        AutomationFlag = "auto_follow"
	FlagAutoUnfollow      AutomationFlag = "auto_unfollow"
	FlagAutoDirectMessage AutomationFlag = "auto_direct_message"
)

// Operation identifies a scheduled entry point.
type Operation string

const (
	OperationSync          Operation = "sync"
	OperationFollow        Operation = "follow"
	OperationUnfollow      Operation = "unfollow"
	OperationDirectMessage Operation = "direct_message"
)

func ParseOperation(s string) (Operation, bool) {
	switch op := Operation(s); op {
	case OperationSync, OperationFollow, OperationUnfollow, OperationDirectMessage:
		return op, true
	}
	return "", false
}
