package falcon

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

	"github.com/rs/zerolog"
)

// tokenRefreshMargin is how long before expiry a cached token is considered
// stale and refreshed.
const tokenRefreshMargin = 60 * time.Second

// authenticator manages the OAuth2 client-credentials token.
type authenticator struct {
	mu         sync.Mutex
	httpClient *http.Client
	cloud      string
	clientID   string
	secret     string
	userAgent  string
	logger     zerolog.Logger

	token  string
	expiry time.Time
}

func newAuthenticator(httpClient *http.Client, cfg Config, logger zerolog.Logger) *authenticator {
	return &authenticator{
		httpClient: httpClient,
		cloud:      cfg.Cloud,
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// bearer returns a valid access token, requesting a fresh one when the
// cached token is missing or about to expire. Safe for concurrent use;
// concurrent callers share one token request.
func (a *authenticator) bearer(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Until(a.expiry) > tokenRefreshMargin {
		return a.token, nil
	}

	form := url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.secret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cloud+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	a.token = payload.AccessToken
	a.expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)

	a.logger.Debug().
		Time("expiry", a.expiry).
		Msg("Obtained OAuth2 access token")

	return a.token, nil
}

// invalidate discards the cached token so the next call re-authenticates.
func (a *authenticator) invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.expiry = time.Time{}
}
