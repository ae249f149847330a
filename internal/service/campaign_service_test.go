package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/transfer"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(2 * time.Hour)
)

type campaignFixture struct {
	svc      *campaignService
	account  *models.Account
	accounts *memAccountRepo
	factory  *fakeFactory
	sent     *memSentRepo
	gw       *fakeGateway
	steps    []*models.DirectMessage
	clock    time.Time
}

func newCampaignFixture() *campaignFixture {
	steps := []*models.DirectMessage{
		{ID: 11, MessagePatternID: 7, Step: 1, Text: "hi"},
		{ID: 12, MessagePatternID: 7, Step: 2, Text: "how are you"},
		{ID: 13, MessagePatternID: 7, Step: 3, Text: "bye"},
	}
	patterns := &memPatternRepo{
		groups: map[int64]*models.Group{3: {ID: 3, Name: "default", MessagePatternID: 7}},
		steps:  map[int64][]*models.DirectMessage{7: steps},
	}

	account := &models.Account{GroupID: 3, ScreenName: "alice", AutoDirectMessage: true}
	accounts := newMemAccountRepo(account)
	sent := newMemSentRepo(steps)
	gw := newFakeGateway("alice")
	factory := &fakeFactory{gateways: map[string]*fakeGateway{"alice": gw}}

	f := &campaignFixture{
		account:  account,
		accounts: accounts,
		factory:  factory,
		sent:     sent,
		gw:       gw,
		steps:    steps,
		clock:    t1.Add(time.Hour),
	}
	f.svc = NewCampaignService(accounts, patterns, sent, factory, NewAccountPool(1), nil, 5, 50).(*campaignService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *campaignFixture) cursorAt(follower int64, step *models.DirectMessage, updated time.Time) {
	_, _ = f.sent.Create(context.Background(), &models.SentMessage{
		AccountID:       f.account.ID,
		ToUserID:        follower,
		DirectMessageID: step.ID,
		CreatedAt:       updated,
		UpdatedAt:       updated,
	})
}

func (f *campaignFixture) run(t *testing.T, n int) *ReconcileResult {
	t.Helper()
	result, err := f.svc.AdvanceCampaign(context.Background(), f.account, f.gw, n)
	if err != nil {
		t.Fatalf("AdvanceCampaign returned error: %v", err)
	}
	return result
}

func TestAdvanceCampaignOpeningIsIdempotent(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{42}

	f.run(t, 5)
	if !reflect.DeepEqual(f.gw.sent, []sentDM{{to: 42, text: "hi"}}) {
		t.Fatalf("sent = %+v", f.gw.sent)
	}
	cursor, _ := f.sent.GetByFollower(context.Background(), f.account.ID, 42)
	if cursor == nil || cursor.Step != 1 {
		t.Fatalf("cursor = %+v, want step 1", cursor)
	}

	f.clock = f.clock.Add(time.Hour)
	f.run(t, 5)
	if len(f.gw.sent) != 1 {
		t.Fatalf("second run sent %+v", f.gw.sent[1:])
	}
	again, _ := f.sent.GetByFollower(context.Background(), f.account.ID, 42)
	if again.Step != 1 || !again.UpdatedAt.Equal(cursor.UpdatedAt) || f.sent.updates != 0 {
		t.Fatalf("cursor changed: %+v", again)
	}
}

func TestAdvanceCampaignAdvancesOnReply(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{42}
	f.cursorAt(42, f.steps[0], t0)
	f.gw.inbox = []transfer.DirectMessage{{ID: "1", SenderID: 42, CreatedAt: t1}}

	f.run(t, 5)
	if !reflect.DeepEqual(f.gw.sent, []sentDM{{to: 42, text: "how are you"}}) {
		t.Fatalf("sent = %+v", f.gw.sent)
	}
	cursor, _ := f.sent.GetByFollower(context.Background(), f.account.ID, 42)
	if cursor.Step != 2 || !cursor.UpdatedAt.Equal(f.clock) {
		t.Fatalf("cursor = %+v, want step 2 at %v", cursor, f.clock)
	}

	// The same reply is older than the advanced cursor.
	f.clock = f.clock.Add(time.Hour)
	f.run(t, 5)
	if len(f.gw.sent) != 1 {
		t.Fatalf("subsequent run sent %+v", f.gw.sent[1:])
	}
	cursor, _ = f.sent.GetByFollower(context.Background(), f.account.ID, 42)
	if cursor.Step != 2 {
		t.Fatalf("cursor step = %d, want 2", cursor.Step)
	}
}

func TestAdvanceCampaignIgnoresStaleAndForeignReplies(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{42}
	f.cursorAt(42, f.steps[0], t1)
	f.gw.inbox = []transfer.DirectMessage{
		{ID: "1", SenderID: 42, CreatedAt: t0},
		{ID: "2", SenderID: 42, CreatedAt: t1},
		{ID: "3", SenderID: 77, CreatedAt: t1.Add(time.Minute)},
	}

	result := f.run(t, 5)
	if len(f.gw.sent) != 0 || result.Attempted != 0 {
		t.Fatalf("sent = %+v", f.gw.sent)
	}
}

func TestAdvanceCampaignNeverSendsPastFinalStep(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{42}
	f.cursorAt(42, f.steps[2], t0)
	f.gw.inbox = []transfer.DirectMessage{{ID: "1", SenderID: 42, CreatedAt: t1}}

	result := f.run(t, 5)
	if len(f.gw.sent) != 0 {
		t.Fatalf("sent = %+v", f.gw.sent)
	}
	if result.Skipped != 1 || f.gw.inboxCalls != 0 {
		t.Fatalf("unexpected result: %+v inboxCalls=%d", result, f.gw.inboxCalls)
	}
}

func TestAdvanceCampaignCapSkipsCompletedFollowers(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{1, 2, 3, 4, 5, 6}
	f.cursorAt(1, f.steps[2], t0)
	f.cursorAt(2, f.steps[2], t0)

	result := f.run(t, 3)

	var to []int64
	for _, s := range f.gw.sent {
		to = append(to, s.to)
	}
	if !reflect.DeepEqual(to, []int64{3, 4, 5}) {
		t.Fatalf("sent to %v, want [3 4 5]", to)
	}
	if result.Attempted != 3 || result.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAdvanceCampaignFailedSendLeavesCursor(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{42, 43}
	f.cursorAt(43, f.steps[0], t0)
	f.gw.inbox = []transfer.DirectMessage{{ID: "1", SenderID: 43, CreatedAt: t1}}
	f.gw.failSend[42] = true
	f.gw.failSend[43] = true

	result := f.run(t, 5)
	if result.Attempted != 2 || result.Failed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if cursor, _ := f.sent.GetByFollower(context.Background(), f.account.ID, 42); cursor != nil {
		t.Fatalf("cursor created after failed send: %+v", cursor)
	}
	if cursor, _ := f.sent.GetByFollower(context.Background(), f.account.ID, 43); cursor.Step != 1 {
		t.Fatalf("cursor advanced after failed send: %+v", cursor)
	}
}

func TestAdvanceCampaignInboxFailureBlocksAdvancement(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{41, 42, 43}
	f.cursorAt(41, f.steps[0], t0)
	f.cursorAt(42, f.steps[1], t0)
	f.gw.inboxErr = errors.New("timeout")

	f.run(t, 5)
	if !reflect.DeepEqual(f.gw.sent, []sentDM{{to: 43, text: "hi"}}) {
		t.Fatalf("sent = %+v", f.gw.sent)
	}
	if f.gw.inboxCalls != 1 {
		t.Fatalf("inbox fetched %d times, want 1", f.gw.inboxCalls)
	}
}

func TestAdvanceCampaignRequiresPattern(t *testing.T) {
	f := newCampaignFixture()
	f.account.GroupID = 99
	f.gw.followers["alice"] = []int64{1}

	if _, err := f.svc.AdvanceCampaign(context.Background(), f.account, f.gw, 5); !errors.Is(err, ErrNoMessagePattern) {
		t.Fatalf("error = %v, want ErrNoMessagePattern", err)
	}
	if len(f.gw.sent) != 0 {
		t.Fatal("sent without a pattern")
	}
}

func TestAdvanceCampaignSkipsOnFollowerFetchFailure(t *testing.T) {
	f := newCampaignFixture()
	f.gw.failFollowers = true

	if _, err := f.svc.AdvanceCampaign(context.Background(), f.account, f.gw, 5); err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestSendAllEligible(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{8, 9}

	summary, err := f.svc.SendAllEligible(context.Background())
	if err != nil {
		t.Fatalf("SendAllEligible returned error: %v", err)
	}
	if summary.Processed != 1 || summary.Actions != 2 || summary.Operation != models.OperationDirectMessage {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSendAllEligibleIsolatesFailures(t *testing.T) {
	f := newCampaignFixture()
	f.gw.followers["alice"] = []int64{8}

	broken := &models.Account{GroupID: 3, ScreenName: "broken", AutoDirectMessage: true}
	off := &models.Account{GroupID: 3, ScreenName: "off", AutoDirectMessage: false}
	for _, a := range []*models.Account{broken, off} {
		if _, err := f.accounts.Create(context.Background(), a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	brokenGW := newFakeGateway("broken")
	brokenGW.failFollowers = true
	offGW := newFakeGateway("off")
	offGW.followers["off"] = []int64{8}
	f.factory.gateways["broken"] = brokenGW
	f.factory.gateways["off"] = offGW

	summary, err := f.svc.SendAllEligible(context.Background())
	if err != nil {
		t.Fatalf("SendAllEligible returned error: %v", err)
	}

	if !reflect.DeepEqual(f.gw.sent, []sentDM{{to: 8, text: "hi"}}) {
		t.Fatalf("alice sent %+v", f.gw.sent)
	}
	if len(brokenGW.sent) != 0 || len(offGW.sent) != 0 {
		t.Fatalf("broken sent %+v, off sent %+v", brokenGW.sent, offGW.sent)
	}
	if summary.Accounts != 2 || summary.Processed != 1 || summary.Skipped != 1 || summary.Actions != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
