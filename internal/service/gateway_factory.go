package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/dghubble/oauth1"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// GatewayFactory builds a TwitterGateway for a given set of credentials.
// The caller owns the returned gateway and passes it into each reconciler
// call explicitly.
type GatewayFactory interface {
	ForAccount(account *models.Account) (TwitterGateway, error)
	// ForLookup returns the gateway used for batch user lookups: the
	// application gateway when app-only auth is enabled, otherwise the
	// first account's user-context gateway.
	ForLookup(ctx context.Context, accounts []*models.Account) (TwitterGateway, error)
}

type gatewayFactory struct {
	cfg        config.Twitter
	secretKey  []byte
	httpClient *http.Client
	metrics    *metrics.Collector

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewGatewayFactory(cfg config.Twitter, secretKey string, httpClient *http.Client, collector *metrics.Collector) GatewayFactory {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &gatewayFactory{
		cfg:        cfg,
		secretKey:  []byte(secretKey),
		httpClient: httpClient,
		metrics:    collector,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// limiter returns the shared limiter for key. Limiters outlive gateways so
// that the per-credential budget holds across runs.
func (f *gatewayFactory) limiter(key string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.limiters[key]; ok {
		return l
	}

	limit := rate.Inf
	if f.cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(f.cfg.RatePerMinute) / 60)
	}
	l := rate.NewLimiter(limit, 1)
	f.limiters[key] = l
	return l
}

func (f *gatewayFactory) options(key string) gatewayOptions {
	return gatewayOptions{
		baseURL: f.cfg.APIBase,
		timeout: f.cfg.Timeout,
		limiter: f.limiter(key),
		metrics: f.metrics,
		logger:  slog.Default(),
	}
}

func (f *gatewayFactory) ForAccount(account *models.Account) (TwitterGateway, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	token, err := utils.Decrypt(account.OAuthToken, f.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("decrypt oauth token for %s: %w", account.ScreenName, err)
	}
	tokenSecret, err := utils.Decrypt(account.OAuthTokenSecret, f.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("decrypt oauth token secret for %s: %w", account.ScreenName, err)
	}

	key := fmt.Sprintf("account:%d", account.ID)
	return newTwitterGateway(account.ScreenName, f.userClient(token, tokenSecret), f.options(key)), nil
}

const nonceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

type nanoidNoncer struct{}

func (nanoidNoncer) Nonce() string {
	return gonanoid.MustGenerate(nonceAlphabet, 32)
}

// userClient returns an http.Client that signs every request with OAuth 1.0a
// user-context credentials on top of the factory's transport.
func (f *gatewayFactory) userClient(token, tokenSecret string) *http.Client {
	cfg := oauth1.NewConfig(f.cfg.ConsumerKey, f.cfg.ConsumerSecret)
	cfg.Noncer = nanoidNoncer{}

	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, f.httpClient)
	client := cfg.Client(ctx, oauth1.NewToken(token, tokenSecret))
	client.Timeout = f.httpClient.Timeout
	return client
}

func (f *gatewayFactory) ForLookup(ctx context.Context, accounts []*models.Account) (TwitterGateway, error) {
	if f.cfg.AppOnlyLookup {
		return f.app(ctx), nil
	}
	if len(accounts) == 0 {
		return nil, errors.New("no account available for lookup")
	}
	return f.ForAccount(accounts[0])
}

// app builds a gateway authorized with an application bearer token
// obtained through the client credentials grant.
func (f *gatewayFactory) app(ctx context.Context) TwitterGateway {
	cc := clientcredentials.Config{
		ClientID:     f.cfg.ConsumerKey,
		ClientSecret: f.cfg.ConsumerSecret,
		TokenURL:     strings.TrimRight(f.cfg.APIBase, "/") + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	return newTwitterGateway("app", cc.Client(ctx), f.options("app"))
}
