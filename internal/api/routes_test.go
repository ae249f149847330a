package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/followflow/configs"
	job "github.com/maheshrc27/followflow/internal/jobs"
	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/service"
	"github.com/maheshrc27/followflow/internal/transfer"
	"github.com/maheshrc27/followflow/pkg/utils"
)

const testSecret = "0123456789abcdef"

type fakeAccounts struct {
	accounts map[int64]*models.Account
	updated  *transfer.AccountUpdate
}

func (f *fakeAccounts) List(context.Context) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*transfer.AccountDetail, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	return &transfer.AccountDetail{Account: a, FollowersCountData: map[time.Time]int{}}, nil
}

func (f *fakeAccounts) Create(_ context.Context, in *transfer.AccountCreation) (*models.Account, error) {
	if in.ScreenName == "" {
		return nil, service.ErrInvalidInput
	}
	a := &models.Account{ID: 2, ScreenName: in.ScreenName, OAuthToken: "sealed"}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccounts) Update(_ context.Context, id int64, in *transfer.AccountUpdate) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	f.updated = in
	if in.TargetUser != nil {
		a.TargetUser = *in.TargetUser
	}
	return a, nil
}

type fakeRunner struct {
	run *job.AccountRun
	err error
	ops []models.Operation
}

func (f *fakeRunner) RunAccount(_ context.Context, op models.Operation, _ int64) (*job.AccountRun, error) {
	f.ops = append(f.ops, op)
	return f.run, f.err
}

func newTestApp(t *testing.T) (*fiber.App, *fakeAccounts, *fakeRunner) {
	t.Helper()
	collector, err := metrics.NewCollector()
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	accounts := &fakeAccounts{accounts: map[int64]*models.Account{
		1: {ID: 1, ScreenName: "alice", OAuthToken: "sealed-token", OAuthTokenSecret: "sealed-secret"},
	}}
	runner := &fakeRunner{run: &job.AccountRun{TaskID: "follow:1"}}

	app := fiber.New()
	Register(app, config.Config{SecretKey: testSecret, CookieName: "followflow_session"}, accounts, runner, collector)
	return app, accounts, runner
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, "ops", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(body)
}

func authed(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestPublicRoutes(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ok") {
		t.Fatalf("/health = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics = %d", resp.StatusCode)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.AddCookie(&http.Cookie{Name: "followflow_session", Value: "forged"})
	resp, _ = do(t, app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), "followflow_session=") {
		t.Fatalf("invalid cookie not cleared: %q", resp.Header.Get("Set-Cookie"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.AddCookie(&http.Cookie{Name: "followflow_session", Value: adminToken(t)})
	resp, _ = do(t, app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cookie auth status = %d, want 200", resp.StatusCode)
	}
}

func TestListAccountsHidesCredentials(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := do(t, app, authed(t, http.MethodGet, "/api/accounts", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "alice") || strings.Contains(body, "sealed") {
		t.Fatalf("body = %s", body)
	}
}

func TestGetAccount(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/accounts/1", http.StatusOK},
		{"/api/accounts/9", http.StatusNotFound},
		{"/api/accounts/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := do(t, app, authed(t, http.MethodGet, tt.target, ""))
		if resp.StatusCode != tt.want {
			t.Fatalf("GET %s = %d (%s), want %d", tt.target, resp.StatusCode, body, tt.want)
		}
	}
}

func TestCreateAndUpdateAccount(t *testing.T) {
	app, accounts, _ := newTestApp(t)

	resp, body := do(t, app, authed(t, http.MethodPost, "/api/accounts", `{"screen_name":"bob","oauth_token":"t","oauth_token_secret":"s"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d %s", resp.StatusCode, body)
	}
	var created models.Account
	if err := json.Unmarshal([]byte(body), &created); err != nil || created.ScreenName != "bob" {
		t.Fatalf("created = %+v, %v", created, err)
	}

	resp, _ = do(t, app, authed(t, http.MethodPost, "/api/accounts", `{"screen_name":""}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid create = %d, want 400", resp.StatusCode)
	}

	resp, body = do(t, app, authed(t, http.MethodPatch, "/api/accounts/1", `{"target_user":"carol"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update = %d %s", resp.StatusCode, body)
	}
	if accounts.updated == nil || accounts.updated.TargetUser == nil || *accounts.updated.TargetUser != "carol" {
		t.Fatalf("update not applied: %+v", accounts.updated)
	}
	if accounts.updated.AutoFollow != nil {
		t.Fatal("absent field decoded as set")
	}
}

func TestRunAccount(t *testing.T) {
	app, _, runner := newTestApp(t)

	resp, body := do(t, app, authed(t, http.MethodPost, "/api/accounts/1/run/follow", ""))
	if resp.StatusCode != http.StatusAccepted || !strings.Contains(body, "follow:1") {
		t.Fatalf("queued run = %d %s", resp.StatusCode, body)
	}

	runner.run = &job.AccountRun{Result: &service.ReconcileResult{Attempted: 3}}
	resp, body = do(t, app, authed(t, http.MethodPost, "/api/accounts/1/run/unfollow", ""))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"attempted":3`) {
		t.Fatalf("inline run = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, app, authed(t, http.MethodPost, "/api/accounts/1/run/sync", ""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("sync run = %d, want 400", resp.StatusCode)
	}

	runner.err = service.ErrRunInFlight
	resp, _ = do(t, app, authed(t, http.MethodPost, "/api/accounts/1/run/direct_message", ""))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("in-flight run = %d, want 409", resp.StatusCode)
	}

	if len(runner.ops) != 3 {
		t.Fatalf("runner called for %v", runner.ops)
	}
}
