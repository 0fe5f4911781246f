package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrAuthFailed means the token exchange itself failed. This is a
// configuration-class fault: it is not retried here and never feeds the
// circuit breakers.
var ErrAuthFailed = errors.New("account service authentication failed")

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// tokenProvider lazily acquires a bearer token from POST /auth/token and
// caches it for the process lifetime. Concurrent first use performs exactly
// one exchange; losers of the race share the winner's result.
type tokenProvider struct {
	tokenURL string
	username string
	password string
	client   *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	token string
}

func newTokenProvider(baseURL, username, password string, client *http.Client) *tokenProvider {
	return &tokenProvider{
		tokenURL: baseURL + "/auth/token",
		username: username,
		password: password,
		client:   client,
	}
}

func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	v, err, _ := p.group.Do("token", func() (any, error) {
		p.mu.RLock()
		cached := p.token
		p.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		token, err := p.acquire(ctx)
		if err != nil {
			return "", err
		}

		p.mu.Lock()
		p.token = token
		p.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call re-acquires. Nothing
// calls this automatically; it exists for callers that observe a 401.
func (p *tokenProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *tokenProvider) acquire(ctx context.Context) (string, error) {
	body, err := json.Marshal(authRequest{Username: p.username, Password: p.password})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if auth.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrAuthFailed)
	}
	return auth.Token, nil
}
