package usps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
)

// tokenSafetyMargin is subtracted from the upstream expiry so a token is
// refreshed before the carrier would reject it mid-request.
const tokenSafetyMargin = 5 * time.Minute

// AccessToken is the cached OAuth2 bearer credential.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenSource acquires client-credentials tokens from the carrier OAuth
// endpoint and caches them in memory until they approach expiry. Concurrent
// refreshes collapse into a single upstream call.
type TokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu      sync.Mutex
	current AccessToken

	group singleflight.Group
}

// NewTokenSource builds a token source for the given carrier base URL.
func NewTokenSource(baseURL, clientID, clientSecret string, httpClient *http.Client, now func() time.Time) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	return &TokenSource{
		httpClient:   httpClient,
		tokenURL:     strings.TrimRight(baseURL, "/") + "/oauth2/v3/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          now,
	}
}

// Token returns a valid bearer token, refreshing it when the cached one is
// within the safety margin of its expiry.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	cached := t.current
	t.mu.Unlock()

	if cached.Value != "" && t.now().Before(cached.ExpiresAt.Add(-tokenSafetyMargin)) {
		return cached.Value, nil
	}

	// The refresh is shared by every collapsed waiter, so it runs detached
	// from the triggering caller's context; cancelling one request must not
	// fail the others. The HTTP client timeout still bounds the call.
	value, err, _ := t.group.Do("token", func() (any, error) {
		return t.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (t *TokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeCarrierAuth, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeCarrierAuth, err, "execute token request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return "", pkgerrors.Wrap(
			pkgerrors.CodeCarrierAuth,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"token request failed",
		)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeCarrierAuth, err, "decode token response")
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeCarrierAuth, "token response missing access_token")
	}

	token := AccessToken{
		Value:     payload.AccessToken,
		ExpiresAt: t.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}

	t.mu.Lock()
	t.current = token
	t.mu.Unlock()

	return token.Value, nil
}
