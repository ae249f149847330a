package transfer

import "time"

type TwitterUser struct {
	ID             int64  `json:"id"`
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	FriendsCount   int    `json:"friends_count"`
	FollowersCount int    `json:"followers_count"`
}

type TwitterIDsPage struct {
	IDs        []int64 `json:"ids"`
	NextCursor int64   `json:"next_cursor"`
}

type TwitterErrorResponse struct {
	Errors []TwitterAPIError `json:"errors"`
}

type TwitterAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type DirectMessageEventList struct {
	Events     []DirectMessageEvent `json:"events"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type DirectMessageEvent struct {
	Type             string        `json:"type"`
	ID               string        `json:"id,omitempty"`
	CreatedTimestamp string        `json:"created_timestamp,omitempty"`
	MessageCreate    MessageCreate `json:"message_create"`
}

type MessageCreate struct {
	Target      MessageTarget `json:"target"`
	SenderID    string        `json:"sender_id,omitempty"`
	MessageData MessageData   `json:"message_data"`
}

type MessageTarget struct {
	RecipientID string `json:"recipient_id"`
}

type MessageData struct {
	Text string `json:"text"`
}

type NewDirectMessageRequest struct {
	Event DirectMessageEvent `json:"event"`
}

type NewDirectMessageResponse struct {
	Event DirectMessageEvent `json:"event"`
}

// DirectMessage is a received or sent message decoded from an event.
type DirectMessage struct {
	ID          string
	SenderID    int64
	RecipientID int64
	Text        string
	CreatedAt   time.Time
}
