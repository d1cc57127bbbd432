package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"receipt-resender/internal/config"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Options struct {
	BaseURL           string
	ShopID            string
	SecretKey         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	maxRetries int

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.ShopID == "" || opts.SecretKey == "" {
		return nil, errors.New("yookassa: shop id and secret key are required")
	}
	base := opts.BaseURL
	if base == "" {
		base = config.DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		}
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRequestsPerSecond
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		shopID:     opts.ShopID,
		secretKey:  opts.SecretKey,
		maxRetries: opts.MaxRetries,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}, nil
}

func (c *Client) ListReceipts(ctx context.Context, filter dtos.ReceiptListFilter) ([]dtos.ReceiptStub, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if !filter.CreatedAtGte.IsZero() {
		q.Set("created_at.gte", filter.CreatedAtGte.UTC().Format(config.DateTimeFormat))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var list dtos.ReceiptListResponse
	if err := c.get(ctx, "/receipts?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return list.Items, nil
}

func (c *Client) GetReceipt(ctx context.Context, id string) (map[string]any, error) {
	return c.getObject(ctx, "/receipts/", id)
}

func (c *Client) GetPayment(ctx context.Context, id string) (map[string]any, error) {
	return c.getObject(ctx, "/payments/", id)
}

func (c *Client) GetRefund(ctx context.Context, id string) (map[string]any, error) {
	return c.getObject(ctx, "/refunds/", id)
}

// CreateReceipt is sent once; the idempotency key lets the provider collapse
// duplicates of this single request, so it is never retried here.
func (c *Client) CreateReceipt(ctx context.Context, payload *entities.ResubmissionPayload, idempotencyKey string) (*dtos.CreateReceiptResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/receipts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send receipt request: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	var out dtos.CreateReceiptResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode receipt response: %w", err)
	}
	return &out, nil
}

func (c *Client) getObject(ctx context.Context, prefix, id string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.get(ctx, prefix+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.logger.Debug("retrying provider request", "path", path, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.getOnce(ctx, path, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ProviderError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	delay := config.RetryBaseDelay * time.Duration(1<<attempt)
	if delay > config.RetryMaxDelay {
		delay = config.RetryMaxDelay
	}
	return delay
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= 500
	}
	return true
}
