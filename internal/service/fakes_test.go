package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/repository"
	"github.com/maheshrc27/followflow/internal/transfer"
)

var errRemote = errors.New("remote unavailable")

type sentDM struct {
	to   int64
	text string
}

type fakeGateway struct {
	mu sync.Mutex

	account   string
	followers map[string][]int64
	friends   map[string][]int64

	failFollowers bool
	failFriends   bool
	failFollow    map[int64]bool
	failUnfollow  map[int64]bool
	failSend      map[int64]bool

	users     []transfer.TwitterUser
	lookupErr error

	inbox      []transfer.DirectMessage
	inboxErr   error
	inboxCalls int

	lookups    [][]string
	followed   []int64
	unfollowed []int64
	sent       []sentDM
}

func newFakeGateway(account string) *fakeGateway {
	return &fakeGateway{
		account:      account,
		followers:    map[string][]int64{},
		friends:      map[string][]int64{},
		failFollow:   map[int64]bool{},
		failUnfollow: map[int64]bool{},
		failSend:     map[int64]bool{},
	}
}

func (g *fakeGateway) fail(op string) error {
	return &GatewayError{Operation: op, Account: g.account, StatusCode: 503, Err: errRemote}
}

func (g *fakeGateway) LookupUsers(_ context.Context, screenNames []string) ([]transfer.TwitterUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups = append(g.lookups, screenNames)
	return g.users, g.lookupErr
}

func (g *fakeGateway) FollowerIDs(_ context.Context, screenName string) ([]int64, error) {
	if g.failFollowers {
		return nil, g.fail(opFollowerIDs)
	}
	return g.followers[screenName], nil
}

func (g *fakeGateway) FriendIDs(_ context.Context, screenName string) ([]int64, error) {
	if g.failFriends {
		return nil, g.fail(opFriendIDs)
	}
	return g.friends[screenName], nil
}

func (g *fakeGateway) Follow(_ context.Context, userID int64) (*transfer.TwitterUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followed = append(g.followed, userID)
	if g.failFollow[userID] {
		return nil, g.fail(opFollow)
	}
	return &transfer.TwitterUser{ID: userID, ScreenName: "user"}, nil
}

func (g *fakeGateway) Unfollow(_ context.Context, userID int64) (*transfer.TwitterUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unfollowed = append(g.unfollowed, userID)
	if g.failUnfollow[userID] {
		return nil, g.fail(opUnfollow)
	}
	return &transfer.TwitterUser{ID: userID, ScreenName: "user"}, nil
}

func (g *fakeGateway) DirectMessages(_ context.Context, count int) ([]transfer.DirectMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inboxCalls++
	if g.inboxErr != nil {
		return nil, g.inboxErr
	}
	if len(g.inbox) > count {
		return g.inbox[:count], nil
	}
	return g.inbox, nil
}

func (g *fakeGateway) SendDirectMessage(_ context.Context, recipientID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentDM{to: recipientID, text: text})
	if g.failSend[recipientID] {
		return g.fail(opSendDirectMessage)
	}
	return nil
}

type fakeFactory struct {
	gateways map[string]*fakeGateway
	lookup   *fakeGateway
}

func (f *fakeFactory) ForAccount(account *models.Account) (TwitterGateway, error) {
	gw, ok := f.gateways[account.ScreenName]
	if !ok {
		return nil, errors.New("no credentials")
	}
	return gw, nil
}

func (f *fakeFactory) ForLookup(_ context.Context, _ []*models.Account) (TwitterGateway, error) {
	if f.lookup == nil {
		return nil, errors.New("no lookup gateway")
	}
	return f.lookup, nil
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	nextID   int64
}

func newMemAccountRepo(accounts ...*models.Account) *memAccountRepo {
	r := &memAccountRepo{accounts: map[int64]*models.Account{}}
	for _, a := range accounts {
		if _, err := r.Create(context.Background(), a); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *memAccountRepo) Create(_ context.Context, a *models.Account) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *a
	stored.ID = r.nextID
	a.ID = r.nextID
	r.accounts[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memAccountRepo) filter(keep func(a *models.Account) bool) []*models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Account
	for _, a := range r.accounts {
		if keep(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memAccountRepo) List(_ context.Context) ([]*models.Account, error) {
	return r.filter(func(*models.Account) bool { return true }), nil
}

func (r *memAccountRepo) ListByFlag(_ context.Context, flag models.AutomationFlag) ([]*models.Account, error) {
	return r.filter(func(a *models.Account) bool {
		switch flag {
		case models.FlagAutoUpdate:
			return a.AutoUpdate
		case models.FlagAutoFollow:
			return a.AutoFollow
		case models.FlagAutoUnfollow:
			return a.AutoUnfollow
		case models.FlagAutoDirectMessage:
			return a.AutoDirectMessage
		}
		return false
	}), nil
}

func (r *memAccountRepo) ListFollowEligible(_ context.Context) ([]*models.Account, error) {
	return r.filter(func(a *models.Account) bool { return a.AutoFollow && a.TargetUser != "" }), nil
}

func (r *memAccountRepo) UpdateCounts(_ context.Context, id int64, friendsCount, followersCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.FriendsCount, a.FollowersCount = friendsCount, followersCount
	return nil
}

func (r *memAccountRepo) ClearTarget(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.TargetUser = ""
	return nil
}

func (r *memAccountRepo) UpdateSettings(_ context.Context, in *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[in.ID]
	if !ok {
		return repository.ErrNotFound
	}
	a.TargetUser = in.TargetUser
	a.Description = in.Description
	a.AutoUpdate = in.AutoUpdate
	a.AutoFollow = in.AutoFollow
	a.AutoUnfollow = in.AutoUnfollow
	a.AutoDirectMessage = in.AutoDirectMessage
	return nil
}

type memHistoryRepo struct {
	mu     sync.Mutex
	points []*models.FollowerHistory
}

func (r *memHistoryRepo) Create(_ context.Context, h *models.FollowerHistory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = int64(len(r.points) + 1)
	copied := *h
	r.points = append(r.points, &copied)
	return h.ID, nil
}

func (r *memHistoryRepo) ListSince(_ context.Context, accountID int64, since time.Time) ([]*models.FollowerHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FollowerHistory
	for _, p := range r.points {
		if p.AccountID == accountID && p.CreatedAt.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPatternRepo struct {
	groups map[int64]*models.Group
	steps  map[int64][]*models.DirectMessage
}

func (r *memPatternRepo) GetGroup(_ context.Context, groupID int64) (*models.Group, error) {
	return r.groups[groupID], nil
}

func (r *memPatternRepo) ListSteps(_ context.Context, patternID int64) ([]*models.DirectMessage, error) {
	return r.steps[patternID], nil
}

type memSentRepo struct {
	mu      sync.Mutex
	byID    map[int64]*models.SentMessage
	stepOf  map[int64]int
	nextID  int64
	creates int
	updates int
}

func newMemSentRepo(steps []*models.DirectMessage) *memSentRepo {
	r := &memSentRepo{byID: map[int64]*models.SentMessage{}, stepOf: map[int64]int{}}
	for _, s := range steps {
		r.stepOf[s.ID] = s.Step
	}
	return r
}

func (r *memSentRepo) GetByFollower(_ context.Context, accountID, toUserID int64) (*models.SentMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sm := range r.byID {
		if sm.AccountID == accountID && sm.ToUserID == toUserID {
			copied := *sm
			copied.Step = r.stepOf[sm.DirectMessageID]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memSentRepo) Create(_ context.Context, sm *models.SentMessage) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.creates++
	copied := *sm
	copied.ID = r.nextID
	r.byID[copied.ID] = &copied
	return copied.ID, nil
}

func (r *memSentRepo) Advance(_ context.Context, id, directMessageID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sm, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.updates++
	sm.DirectMessageID = directMessageID
	sm.UpdatedAt = at
	return nil
}
