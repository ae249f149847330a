package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/followflow/internal/models"
)

type AccountCreation struct {
	GroupID           int64  `json:"group_id"`
	ScreenName        string `json:"screen_name"`
	TargetUser        string `json:"target_user"`
	OAuthToken        string `json:"oauth_token"`
	OAuthTokenSecret  string `json:"oauth_token_secret"`
	Description       string `json:"description"`
	AutoUpdate        *bool  `json:"auto_update"`
	AutoFollow        *bool  `json:"auto_follow"`
	AutoUnfollow      *bool  `json:"auto_unfollow"`
	AutoDirectMessage *bool  `json:"auto_direct_message"`
}

// AccountUpdate carries the editable settings; nil fields are left unchanged.
type AccountUpdate struct {
	TargetUser        *string `json:"target_user"`
	Description       *string `json:"description"`
	AutoUpdate        *bool   `json:"auto_update"`
	AutoFollow        *bool   `json:"auto_follow"`
	AutoUnfollow      *bool   `json:"auto_unfollow"`
	AutoDirectMessage *bool   `json:"auto_direct_message"`
}

type AccountDetail struct {
	Account            *models.Account   `json:"account"`
	FollowersCountData map[time.Time]int `json:"followers_count_data"`
}

type AdminClaims struct {
	jwt.RegisteredClaims
}
