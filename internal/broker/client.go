package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"stockai/internal/config"
	"stockai/internal/logger"
	"stockai/internal/market"
	"stockai/internal/pkg/circuit"
)

// Client talks to an Alpaca-compatible trading API. Reads go through
// retry with backoff; SubmitOrder is sent exactly once because a
// timed-out submission may still have been accepted.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *circuit.CircuitBreaker
	retry   market.RetryConfig
}

func NewClient(cfg config.BrokerConfig, apiKey, apiSecret string) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("APCA-API-KEY-ID", apiKey).
		SetHeader("APCA-API-SECRET-KEY", apiSecret)

	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 200
	}

	retry := market.DefaultRetryConfig()
	if cfg.RetryMax > 0 {
		retry.MaxRetries = cfg.RetryMax
	}

	return &Client{
		http:    http,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		breaker: circuit.NewCircuitBreaker("broker", 5, 30*time.Second),
		retry:   retry,
	}
}

func (c *Client) GetAccount(ctx context.Context) (Account, error) {
	var account Account
	err := market.WithRetry(ctx, c.retry, func() error {
		return c.get(ctx, "/account", &account)
	})
	return account, err
}

func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	err := market.WithRetry(ctx, c.retry, func() error {
		return c.get(ctx, "/positions", &positions)
	})
	return positions, err
}

func (c *Client) GetClock(ctx context.Context) (Clock, error) {
	var clock Clock
	err := market.WithRetry(ctx, c.retry, func() error {
		return c.get(ctx, "/clock", &clock)
	})
	return clock, err
}

// SubmitOrder places a market day order. No retry on any failure: the
// caller cannot know whether a failed submission reached the exchange.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "day"
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	if err := c.acquire(ctx); err != nil {
		return Order{}, err
	}

	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		Post("/orders")
	if err != nil {
		c.breaker.RecordFailure()
		return Order{}, fmt.Errorf("submit order %s %d %s: %w", req.Side, req.Quantity, req.Symbol, err)
	}
	if resp.IsError() {
		c.breaker.RecordFailure()
		return Order{}, fmt.Errorf("submit order %s %d %s: %s", req.Side, req.Quantity, req.Symbol, apiError(resp))
	}
	c.breaker.RecordSuccess()

	logger.Infof("order accepted: %s %s x%s id=%s status=%s",
		order.Side, order.Symbol, order.Quantity.String(), order.ID, order.Status)
	return order, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		c.breaker.RecordFailure()
		err := fmt.Errorf("GET %s: %s", path, apiError(resp))
		if market.PermanentStatus(resp.StatusCode()) {
			return market.Permanent(err)
		}
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *Client) acquire(ctx context.Context) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("broker circuit open, request dropped")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// apiError pulls the server's message out of an error body, falling
// back to the HTTP status.
func apiError(resp *resty.Response) string {
	if msg := gjson.GetBytes(resp.Body(), "message"); msg.Exists() {
		return fmt.Sprintf("%s (%s)", msg.String(), resp.Status())
	}
	return resp.Status()
}
