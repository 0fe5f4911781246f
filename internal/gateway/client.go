package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/models"
	"github.com/bankdemo/transaction-service/internal/resilience"
)

var (
	// ErrAccountNotFound is a business outcome, not a dependency failure; it
	// does not count toward breaker accounting.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUpstreamUnavailable covers transport faults, 5xx responses, per-call
	// timeouts and breaker fast-fails.
	ErrUpstreamUnavailable = errors.New("account service unavailable")
)

// Client calls the account service. Each operation is guarded by its own
// circuit breaker so a failing validate endpoint cannot trip account lookups.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenProvider
	logger  *zap.Logger

	getAccountBreaker    *resilience.Breaker
	validateFundsBreaker *resilience.Breaker
}

func NewClient(baseURL, username, password string, policy resilience.Policy, logger *zap.Logger) *Client {
	// The per-call deadline comes from the breaker policy, not the client.
	httpClient := &http.Client{}

	isFault := func(err error) bool {
		return errors.Is(err, ErrUpstreamUnavailable)
	}

	return &Client{
		baseURL:              baseURL,
		http:                 httpClient,
		tokens:               newTokenProvider(baseURL, username, password, httpClient),
		logger:               logger,
		getAccountBreaker:    resilience.NewBreaker("account-service.get-account", policy, isFault, logger),
		validateFundsBreaker: resilience.NewBreaker("account-service.validate-funds", policy, isFault, logger),
	}
}

// GetAccount fetches a point-in-time account snapshot.
func (c *Client) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = c.getAccountBreaker.Do(ctx, func(ctx context.Context) error {
		resp, err := c.get(ctx, c.baseURL+"/accounts/"+strconv.FormatInt(id, 10), token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
				return fmt.Errorf("%w: decoding account %d: %v", ErrUpstreamUnavailable, id, err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return ErrAccountNotFound
		default:
			return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	return &account, nil
}

// ValidateFunds asks whether applying amount (negative for a debit) to the
// account would leave it funded. Any fault degrades to deny: a transfer is
// never approved on the back of a broken dependency.
func (c *Client) ValidateFunds(ctx context.Context, id int64, amount decimal.Decimal) bool {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("funds validation denied, token unavailable",
			zap.Int64("account", id), zap.Error(err))
		return false
	}

	var sufficient bool
	err = c.validateFundsBreaker.Do(ctx, func(ctx context.Context) error {
		endpoint := c.baseURL + "/accounts/" + strconv.FormatInt(id, 10) +
			"/validate?amount=" + url.QueryEscape(amount.String())
		resp, err := c.get(ctx, endpoint, token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&sufficient); err != nil {
			return fmt.Errorf("%w: decoding verdict: %v", ErrUpstreamUnavailable, err)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("funds validation degraded to deny",
			zap.Int64("account", id), zap.Error(err))
		return false
	}
	return sufficient
}

func (c *Client) get(ctx context.Context, endpoint, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.http.Do(req)
}
