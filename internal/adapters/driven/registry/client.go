// Package registry talks to the external business registry that owns
// clients, basins, logistic entities and pickup orders.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Registry = (*Client)(nil)

// Client provides registry API operations.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
}

// NewClient creates a new registry API client.
func NewClient(cfg Config) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaults.RetryBackoff
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		token:        cfg.Token,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      limiter,
	}
}

type createEntityResponse struct {
	ID string `json:"id"`
}

// Suggestions returns logistic entity candidates for a role and name.
func (c *Client) Suggestions(ctx context.Context, role domain.Role, name string) ([]domain.Suggestion, error) {
	query := url.Values{}
	query.Set("role", string(role))
	query.Set("name", name)

	var suggestions []domain.Suggestion
	if err := c.getJSON(ctx, "/logistic-entities/suggestions?"+query.Encode(), &suggestions); err != nil {
		return nil, fmt.Errorf("suggestions for %s: %w", role, err)
	}
	return suggestions, nil
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	if err := c.getJSON(ctx, "/clients", &clients); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// ListBasins returns every basin.
func (c *Client) ListBasins(ctx context.Context) ([]domain.Basin, error) {
	var basins []domain.Basin
	if err := c.getJSON(ctx, "/basins", &basins); err != nil {
		return nil, fmt.Errorf("list basins: %w", err)
	}
	return basins, nil
}

// CreateLogisticEntity creates a sender, recipient or transporter.
func (c *Client) CreateLogisticEntity(ctx context.Context, entity domain.NewLogisticEntity) (string, error) {
	var created createEntityResponse
	if err := c.postJSON(ctx, "/logistic-entities", entity, &created); err != nil {
		return "", fmt.Errorf("create %s: %w", entity.Role, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create %s: %w", entity.Role, domain.ErrMissingEntityID)
	}
	return created.ID, nil
}

// CreatePickupOrder persists the final pickup order record.
func (c *Client) CreatePickupOrder(ctx context.Context, payload domain.PickupOrderPayload) (*domain.PickupOrder, error) {
	var order domain.PickupOrder
	if err := c.postJSON(ctx, "/pickup-orders", payload, &order); err != nil {
		return nil, fmt.Errorf("create pickup order: %w", err)
	}
	return &order, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRequest sends a request, retrying server errors and rate limiting with
// linear backoff. Transport failures and exhausted retries wrap
// domain.ErrRegistryUnavailable.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var resp *http.Response
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, err)
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: do request: %v", domain.ErrRegistryUnavailable, err)
		}

		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		if attempt == c.maxRetries {
			break
		}

		wait := time.Duration(attempt+1) * c.retryBackoff
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 && secs < 60 {
				wait = time.Duration(secs) * time.Second
			}
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, ctx.Err())
		case <-time.After(wait):
		}
	}

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		apiErr := fmt.Errorf("registry API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, apiErr)
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %v", domain.ErrNotFound, apiErr)
		}
		return nil, apiErr
	}

	return resp, nil
}
