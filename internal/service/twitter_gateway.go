package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/transfer"
	"golang.org/x/time/rate"
)

const (
	lookupChunkSize = 100
	idsPageSize     = 5000
)

// Gateway operation names used in logs and metrics.
const (
	opLookupUsers       = "lookup_users"
	opFollowerIDs       = "follower_ids"
	opFriendIDs         = "friend_ids"
	opFollow            = "follow"
	opUnfollow          = "unfollow"
	opDirectMessages    = "direct_messages"
	opSendDirectMessage = "send_direct_message"
)

// TwitterGateway is the only caller of the remote social API. Every method
// returns a *GatewayError instead of a result when the call fails; callers
// must treat that as "skip this account this run".
type TwitterGateway interface {
	// LookupUsers resolves screen names in chunks. Users from successful
	// chunks are returned alongside the error of any failed chunk.
	LookupUsers(ctx context.Context, screenNames []string) ([]transfer.TwitterUser, error)
	FollowerIDs(ctx context.Context, screenName string) ([]int64, error)
	FriendIDs(ctx context.Context, screenName string) ([]int64, error)
	Follow(ctx context.Context, userID int64) (*transfer.TwitterUser, error)
	Unfollow(ctx context.Context, userID int64) (*transfer.TwitterUser, error)
	DirectMessages(ctx context.Context, count int) ([]transfer.DirectMessage, error)
	SendDirectMessage(ctx context.Context, recipientID int64, text string) error
}

type gatewayOptions struct {
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	metrics *metrics.Collector
	logger  *slog.Logger
}

type twitterGateway struct {
	account    string
	httpClient *http.Client
	opts       gatewayOptions
}

// newTwitterGateway wraps an already authorized httpClient.
func newTwitterGateway(account string, httpClient *http.Client, opts gatewayOptions) *twitterGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	opts.baseURL = strings.TrimRight(opts.baseURL, "/")
	return &twitterGateway{
		account:    account,
		httpClient: httpClient,
		opts:       opts,
	}
}

// call runs fn under the gateway timeout and records the outcome once per
// operation.
func (g *twitterGateway) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if g.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	g.opts.metrics.ObserveGatewayCall(operation, err)

	if err != nil {
		gwErr := &GatewayError{Operation: operation, Account: g.account, Err: err}
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			gwErr.StatusCode = statusErr.code
		}
		g.opts.logger.Error("gateway call failed",
			"account", g.account,
			"operation", operation,
			"status", gwErr.StatusCode,
			"error", err,
		)
		return gwErr
	}

	g.opts.logger.Info("gateway call succeeded",
		"account", g.account,
		"operation", operation,
		"duration", time.Since(start),
	)
	return nil
}

type httpStatusError struct {
	code    int
	message string
}

func (e *httpStatusError) Error() string {
	return e.message
}

func (g *twitterGateway) request(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if g.opts.limiter != nil {
		if err := g.opts.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	endpoint := g.opts.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var apiErr transfer.TwitterErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		return &httpStatusError{
			code:    status,
			message: fmt.Sprintf("%s (code %d)", apiErr.Errors[0].Message, apiErr.Errors[0].Code),
		}
	}
	return &httpStatusError{code: status, message: http.StatusText(status)}
}

func (g *twitterGateway) LookupUsers(ctx context.Context, screenNames []string) ([]transfer.TwitterUser, error) {
	var users []transfer.TwitterUser
	err := g.call(ctx, opLookupUsers, func(ctx context.Context) error {
		var failed error
		for start := 0; start < len(screenNames); start += lookupChunkSize {
			end := min(start+lookupChunkSize, len(screenNames))

			var chunk []transfer.TwitterUser
			query := url.Values{"screen_name": {strings.Join(screenNames[start:end], ",")}}
			if err := g.request(ctx, http.MethodGet, "/1.1/users/lookup.json", query, nil, &chunk); err != nil {
				failed = err
				continue
			}
			users = append(users, chunk...)
		}
		return failed
	})
	return users, err
}

func (g *twitterGateway) FollowerIDs(ctx context.Context, screenName string) ([]int64, error) {
	return g.listIDs(ctx, opFollowerIDs, "/1.1/followers/ids.json", screenName)
}

func (g *twitterGateway) FriendIDs(ctx context.Context, screenName string) ([]int64, error) {
	return g.listIDs(ctx, opFriendIDs, "/1.1/friends/ids.json", screenName)
}

// listIDs pages through a cursored ID listing. The remote API returns IDs
// most recent first and that order is preserved.
func (g *twitterGateway) listIDs(ctx context.Context, operation, path, screenName string) ([]int64, error) {
	var ids []int64
	err := g.call(ctx, operation, func(ctx context.Context) error {
		cursor := int64(-1)
		for {
			query := url.Values{
				"screen_name": {screenName},
				"count":       {strconv.Itoa(idsPageSize)},
				"cursor":      {strconv.FormatInt(cursor, 10)},
			}

			var page transfer.TwitterIDsPage
			if err := g.request(ctx, http.MethodGet, path, query, nil, &page); err != nil {
				return err
			}
			ids = append(ids, page.IDs...)

			if page.NextCursor == 0 {
				return nil
			}
			cursor = page.NextCursor
		}
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (g *twitterGateway) Follow(ctx context.Context, userID int64) (*transfer.TwitterUser, error) {
	return g.friendship(ctx, opFollow, "/1.1/friendships/create.json", userID)
}

func (g *twitterGateway) Unfollow(ctx context.Context, userID int64) (*transfer.TwitterUser, error) {
	return g.friendship(ctx, opUnfollow, "/1.1/friendships/destroy.json", userID)
}

func (g *twitterGateway) friendship(ctx context.Context, operation, path string, userID int64) (*transfer.TwitterUser, error) {
	var user transfer.TwitterUser
	err := g.call(ctx, operation, func(ctx context.Context) error {
		query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
		return g.request(ctx, http.MethodPost, path, query, nil, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *twitterGateway) DirectMessages(ctx context.Context, count int) ([]transfer.DirectMessage, error) {
	var messages []transfer.DirectMessage
	err := g.call(ctx, opDirectMessages, func(ctx context.Context) error {
		query := url.Values{"count": {strconv.Itoa(count)}}

		var list transfer.DirectMessageEventList
		if err := g.request(ctx, http.MethodGet, "/1.1/direct_messages/events/list.json", query, nil, &list); err != nil {
			return err
		}

		for _, event := range list.Events {
			if event.Type != "message_create" {
				continue
			}
			dm, err := decodeDirectMessage(event)
			if err != nil {
				return err
			}
			messages = append(messages, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func decodeDirectMessage(event transfer.DirectMessageEvent) (transfer.DirectMessage, error) {
	sender, err := strconv.ParseInt(event.MessageCreate.SenderID, 10, 64)
	if err != nil {
		return transfer.DirectMessage{}, fmt.Errorf("event %s: invalid sender_id: %w", event.ID, err)
	}
	recipient, err := strconv.ParseInt(event.MessageCreate.Target.RecipientID, 10, 64)
	if err != nil {
		return transfer.DirectMessage{}, fmt.Errorf("event %s: invalid recipient_id: %w", event.ID, err)
	}
	millis, err := strconv.ParseInt(event.CreatedTimestamp, 10, 64)
	if err != nil {
		return transfer.DirectMessage{}, fmt.Errorf("event %s: invalid created_timestamp: %w", event.ID, err)
	}

	return transfer.DirectMessage{
		ID:          event.ID,
		SenderID:    sender,
		RecipientID: recipient,
		Text:        event.MessageCreate.MessageData.Text,
		CreatedAt:   time.UnixMilli(millis).UTC(),
	}, nil
}

func (g *twitterGateway) SendDirectMessage(ctx context.Context, recipientID int64, text string) error {
	return g.call(ctx, opSendDirectMessage, func(ctx context.Context) error {
		body := transfer.NewDirectMessageRequest{
			Event: transfer.DirectMessageEvent{
				Type: "message_create",
				MessageCreate: transfer.MessageCreate{
					Target:      transfer.MessageTarget{RecipientID: strconv.FormatInt(recipientID, 10)},
					MessageData: transfer.MessageData{Text: text},
				},
			},
		}

		var resp transfer.NewDirectMessageResponse
		return g.request(ctx, http.MethodPost, "/1.1/direct_messages/events/new.json", nil, body, &resp)
	})
}
