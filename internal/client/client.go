// Package client is a typed HTTP client for the journal API.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/query"
	"trading-journal-go/internal/stats"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRetries = 3

// APIError is a response the server answered with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError carrying status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope[T any] struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Pagination query.Pagination `json:"pagination"`
	Data       T                `json:"data"`
	Token      string           `json:"token"`
	Error      string           `json:"error"`
}

// List is one page of a list endpoint.
type List[T any] struct {
	Count      int
	Pagination query.Pagination
	Items      []T
}

// Health is the body of the health endpoint.
type Health struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to one journal server as one user.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff func(attempt int) time.Duration
}

// New creates a client from cfg. A token in cfg authenticates every request.
func New(cfg *config.Client, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Client{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		backoff: exponential,
	}
}

// exponential waits 1s, 2s, 4s.
func exponential(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.client.SetAuthToken(token)
}

// doRequest executes req with rate limiting. Throttled and network failures are
// retried for every method, server errors only for GET.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	var (
		resp *resty.Response
		err  error
	)
	req.SetContext(ctx)

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+path))
		resp, err = req.Execute(method, path)
		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		shouldRetry := false
		var retryAfter time.Duration
		if err != nil {
			shouldRetry = true
		} else {
			switch status := resp.StatusCode(); {
			case status == http.StatusTooManyRequests:
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case status >= http.StatusInternalServerError:
				// A failed POST may still have been applied.
				shouldRetry = method == http.MethodGet
			}
		}

		if !shouldRetry {
			return nil, apiError(resp)
		}
		if retryAfter == 0 {
			retryAfter = c.backoff(i)
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, apiError(resp))
}

func apiError(resp *resty.Response) *APIError {
	e := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	if body, isEnvelope := resp.Error().(*envelope[struct{}]); isEnvelope && body.Error != "" {
		e.Message = body.Error
	}
	return e
}

// call sends one request and decodes the envelope around T.
func call[T any](ctx context.Context, c *Client, method, path string, params url.Values, body any) (*envelope[T], error) {
	var out envelope[T]
	req := c.client.R().
		SetResult(&out).
		SetError(&envelope[struct{}]{})
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	if _, err := c.doRequest(ctx, method, path, req); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, path string, params url.Values) (*List[T], error) {
	env, err := call[[]T](ctx, c, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	return &List[T]{Count: env.Count, Pagination: env.Pagination, Items: env.Data}, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	req := c.client.R().SetResult(&h)
	if _, err := c.doRequest(ctx, http.MethodGet, "/health", req); err != nil {
		return nil, fmt.Errorf("failed to check health: %w", err)
	}
	return &h, nil
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	env, err := call[struct{}](ctx, c, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}
	c.SetToken(env.Token)
	return env.Token, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	env, err := call[models.User](ctx, c, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &env.Data, nil
}

// ListTrades returns one page of trades. params uses the server's query language.
func (c *Client) ListTrades(ctx context.Context, params url.Values) (*List[models.Trade], error) {
	page, err := list[models.Trade](ctx, c, "/trades", params)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return page, nil
}

// CreateTrade records a closed trade.
func (c *Client) CreateTrade(ctx context.Context, trade any) (*models.Trade, error) {
	env, err := call[models.Trade](ctx, c, http.MethodPost, "/trades", nil, trade)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return &env.Data, nil
}

// TradeStats returns the performance summary over every trade of the user.
func (c *Client) TradeStats(ctx context.Context) (*stats.TradeStats, error) {
	env, err := call[stats.TradeStats](ctx, c, http.MethodGet, "/trades/stats", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade stats: %w", err)
	}
	return &env.Data, nil
}

// ListMissedTrades returns one page of missed trades.
func (c *Client) ListMissedTrades(ctx context.Context, params url.Values) (*List[models.MissedTrade], error) {
	page, err := list[models.MissedTrade](ctx, c, "/missed-trades", params)
	if err != nil {
		return nil, fmt.Errorf("failed to list missed trades: %w", err)
	}
	return page, nil
}

// MissedTradeStats returns the missed-opportunity summary.
func (c *Client) MissedTradeStats(ctx context.Context) (*stats.MissedTradeStats, error) {
	env, err := call[stats.MissedTradeStats](ctx, c, http.MethodGet, "/missed-trades/stats", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get missed trade stats: %w", err)
	}
	return &env.Data, nil
}

// ListBrokerAccounts returns every broker account of the user.
func (c *Client) ListBrokerAccounts(ctx context.Context) ([]models.BrokerAccount, error) {
	env, err := call[[]models.BrokerAccount](ctx, c, http.MethodGet, "/broker-accounts", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list broker accounts: %w", err)
	}
	return env.Data, nil
}

// SyncBrokerAccount starts a synchronization and returns without waiting for it.
func (c *Client) SyncBrokerAccount(ctx context.Context, id string) (*journal.SyncStarted, error) {
	env, err := call[journal.SyncStarted](ctx, c, http.MethodPost, "/broker-accounts/"+url.PathEscape(id)+"/sync", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sync broker account: %w", err)
	}
	return &env.Data, nil
}

// SyncHistory returns the synchronizations of one account, newest first.
func (c *Client) SyncHistory(ctx context.Context, id string) ([]models.SyncHistory, error) {
	env, err := call[[]models.SyncHistory](ctx, c, http.MethodGet, "/broker-accounts/"+url.PathEscape(id)+"/sync-history", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync history: %w", err)
	}
	return env.Data, nil
}

// WaitForSync polls the history of account until the entry historyID leaves in_progress.
func (c *Client) WaitForSync(ctx context.Context, account, historyID string, every time.Duration) (*models.SyncHistory, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		history, err := c.SyncHistory(ctx, account)
		if err != nil {
			return nil, err
		}
		for i := range history {
			if history[i].ID == historyID && history[i].Status != models.SyncInProgress {
				return &history[i], nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
