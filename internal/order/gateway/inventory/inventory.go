// Package inventory is the client for the inventory gateway. Each call is
// guarded independently by retry-with-backoff and a circuit breaker; on
// sustained failure the call degrades to a zero-value response. A degraded
// response must never be read as confirmed zero stock.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/pkg/resilience"
	"github.com/spf13/viper"
)

// StockUpdate adjusts the stock of one product.
type StockUpdate struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// AvailabilityRequest asks whether a product has the required quantity.
type AvailabilityRequest struct {
	ProductID        uuid.UUID `json:"productId"`
	RequiredQuantity int       `json:"requiredQuantity"`
}

// Availability is the gateway's answer for one product.
type Availability struct {
	ProductID         uuid.UUID `json:"productId"`
	IsAvailable       bool      `json:"isAvailable"`
	AvailableQuantity int       `json:"availableQuantity"`
}

// Client calls the inventory gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	updateGd   *resilience.Guard[struct{}]
	returnGd   *resilience.Guard[struct{}]
	checkGd    *resilience.Guard[[]Availability]
}

// option is a function that configures the Client.
type option func(*Client)

// NewClient creates a new inventory gateway client configured from viper.
func NewClient(opts ...option) *Client {
	guardCfg := resilience.Config{
		MaxRetries:          viper.GetInt("gateway.inventory.max_retries"),
		InitialInterval:     viper.GetDuration("gateway.inventory.retry_interval"),
		ConsecutiveFailures: viper.GetUint32("gateway.inventory.breaker_failures"),
		OpenTimeout:         viper.GetDuration("gateway.inventory.breaker_open_timeout"),
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    viper.GetString("gateway.inventory.base_url"),
	}
	guardCfg.Name = "inventory-service.updateStockBatch"
	c.updateGd = resilience.NewGuard[struct{}](guardCfg)
	guardCfg.Name = "inventory-service.returnStockBatch"
	c.returnGd = resilience.NewGuard[struct{}](guardCfg)
	guardCfg.Name = "inventory-service.checkAvailabilityBatch"
	c.checkGd = resilience.NewGuard[[]Availability](guardCfg)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL sets the gateway base URL for the Client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBaseURL(baseURL string) option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the Client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHTTPClient(httpClient *http.Client) option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithGuardConfig rebuilds the guards from cfg. Used by tests to shrink the
// retry budget and backoff.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGuardConfig(cfg resilience.Config) option {
	return func(c *Client) {
		cfg.Name = "inventory-service.updateStockBatch"
		c.updateGd = resilience.NewGuard[struct{}](cfg)
		cfg.Name = "inventory-service.returnStockBatch"
		c.returnGd = resilience.NewGuard[struct{}](cfg)
		cfg.Name = "inventory-service.checkAvailabilityBatch"
		c.checkGd = resilience.NewGuard[[]Availability](cfg)
	}
}

// UpdateStockBatch decrements stock for all given products in one call.
// Best-effort: on sustained failure the error is logged and swallowed.
func (c *Client) UpdateStockBatch(ctx context.Context, updates []StockUpdate) error {
	_, err := c.updateGd.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, http.MethodPut, "/api/products/stock/batch", updates)
	})
	if err != nil {
		slog.Error("Fallback: inventory stock update failed", "count", len(updates), "error", err)

		return nil
	}

	return nil
}

// ReturnStockBatch returns stock for all given products in one call.
// Best-effort: on sustained failure the error is logged and swallowed.
func (c *Client) ReturnStockBatch(ctx context.Context, updates []StockUpdate) error {
	_, err := c.returnGd.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, http.MethodPost, "/api/products/stock/return-batch", updates)
	})
	if err != nil {
		slog.Error("Fallback: inventory stock return failed", "count", len(updates), "error", err)

		return nil
	}

	return nil
}

// CheckAvailabilityBatch reports availability for the given products. On
// sustained failure the fallback empty list is returned.
func (c *Client) CheckAvailabilityBatch(ctx context.Context, requests []AvailabilityRequest) []Availability {
	result, err := c.checkGd.Execute(ctx, func(ctx context.Context) ([]Availability, error) {
		return c.checkAvailability(ctx, requests)
	})
	if err != nil {
		slog.Error("Fallback: inventory availability check failed", "count", len(requests), "error", err)

		return []Availability{}
	}

	return result
}

func (c *Client) post(ctx context.Context, method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build inventory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) checkAvailability(ctx context.Context, requests []AvailabilityRequest) ([]Availability, error) {
	payload, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal availability request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/products/availability/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build availability request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var result []Availability
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode availability response: %w", err)
	}

	return result, nil
}
