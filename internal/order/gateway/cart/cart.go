// Package cart is the client for the cart gateway. Calls are guarded by
// retry-with-backoff and a circuit breaker; on sustained failure the client
// degrades to an empty cart instead of raising. An empty result is therefore
// ambiguous and must never be read as a confirmed-empty cart.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marketly/fulfillment/pkg/resilience"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Item is a cart line as reported by the cart gateway.
type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"productName"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart is a snapshot of a user's cart.
type Cart struct {
	UserID int64           `json:"userId"`
	Items  []Item          `json:"cartItems"`
	Total  decimal.Decimal `json:"totalPrice"`
}

// Client calls the cart gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	getGuard   *resilience.Guard[Cart]
	clearGuard *resilience.Guard[struct{}]
}

// option is a function that configures the Client.
type option func(*Client)

// NewClient creates a new cart gateway client configured from viper.
func NewClient(opts ...option) *Client {
	guardCfg := resilience.Config{
		MaxRetries:          viper.GetInt("gateway.cart.max_retries"),
		InitialInterval:     viper.GetDuration("gateway.cart.retry_interval"),
		ConsecutiveFailures: viper.GetUint32("gateway.cart.breaker_failures"),
		OpenTimeout:         viper.GetDuration("gateway.cart.breaker_open_timeout"),
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    viper.GetString("gateway.cart.base_url"),
	}
	guardCfg.Name = "cart-service.getCart"
	c.getGuard = resilience.NewGuard[Cart](guardCfg)
	guardCfg.Name = "cart-service.clearCart"
	c.clearGuard = resilience.NewGuard[struct{}](guardCfg)

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
		cfg.Name = "cart-service.getCart"
		c.getGuard = resilience.NewGuard[Cart](cfg)
		cfg.Name = "cart-service.clearCart"
		c.clearGuard = resilience.NewGuard[struct{}](cfg)
	}
}

// GetCart fetches the user's cart snapshot. When the retry budget is spent
// or the breaker is open the fallback empty cart is returned, masking the
// failure from the caller.
func (c *Client) GetCart(ctx context.Context, userID int64) Cart {
	crt, err := c.getGuard.Execute(ctx, func(ctx context.Context) (Cart, error) {
		return c.fetchCart(ctx, userID)
	})
	if err != nil {
		return c.getCartFallback(userID, err)
	}

	return crt
}

// getCartFallback substitutes an empty cart for an unreachable gateway.
func (c *Client) getCartFallback(userID int64, cause error) Cart {
	slog.Error("Fallback: cart service unavailable, returning empty cart",
		"user_id", userID,
		"error", cause,
	)

	return Cart{
		UserID: userID,
		Items:  []Item{},
		Total:  decimal.Zero,
	}
}

// ClearCart clears the user's remote cart. Best-effort: on sustained
// failure the error is logged and swallowed.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	_, err := c.clearGuard.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.deleteCart(ctx, userID)
	})
	if err != nil {
		slog.Error("Fallback: cart clearance failed", "user_id", userID, "error", err)

		return nil
	}

	return nil
}

func (c *Client) fetchCart(ctx context.Context, userID int64) (Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cart", nil)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to build cart request: %w", err)
	}
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Cart{}, fmt.Errorf("cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Cart{}, fmt.Errorf("cart service returned status %d", resp.StatusCode)
	}

	var crt Cart
	if err := json.NewDecoder(resp.Body).Decode(&crt); err != nil {
		return Cart{}, fmt.Errorf("failed to decode cart response: %w", err)
	}

	return crt, nil
}

func (c *Client) deleteCart(ctx context.Context, userID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/cart", nil)
	if err != nil {
		return fmt.Errorf("failed to build clear cart request: %w", err)
	}
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clear cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("cart service returned status %d", resp.StatusCode)
	}

	return nil
}
