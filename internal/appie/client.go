// Package appie talks to the Albert Heijn mobile API: token lifecycle,
// product search, and pushing items onto the AH shopping list.
package appie

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
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/woutervb/boodschap/internal/metrics"
	"github.com/woutervb/boodschap/internal/model"
)

const defaultBaseURL = "https://api.ah.nl"

// tokenMargin is subtracted from the reported expiry so we refresh before
// the token actually dies mid-request.
const tokenMargin = 60 * time.Second

// ErrNotConfigured is returned when AH credentials are missing.
var ErrNotConfigured = errors.New("ah credentials not configured")

// Config holds Albert Heijn API credentials and client settings.
type Config struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
}

// Product is the subset of an AH search hit we care about.
type Product struct {
	ProductID int     `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price,omitempty"`
}

// SyncResult reports the outcome of pushing one item to the AH list.
type SyncResult struct {
	ItemName string `json:"item_name"`
	Status   string `json:"status"` // "ok", "not_found", "error"
	Product  string `json:"ah_product,omitempty"`
	Error    string `json:"error,omitempty"`
}

type tokens struct {
	access    string
	refresh   string
	expiresAt time.Time
}

// Client is a threadsafe Albert Heijn API client. Tokens are fetched
// lazily on first use and refreshed when close to expiry.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	tokens *tokens
}

// NewClient creates an AH client. Credentials are checked at call time,
// not here, so the app can start without them.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "appie"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", "Appie/8.22.3")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Application", "AHWEBSHOP")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON posts/patches a JSON body and decodes a JSON response into out.
// Transient failures (5xx, network errors) are retried briefly.
func (c *Client) doJSON(ctx context.Context, method, u, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return err
		}
		c.setHeaders(req, token)

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("AH API returned status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("AH API returned status %d", resp.StatusCode)
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// accessToken returns a valid access token, authenticating or refreshing
// as needed. Callers hold no lock; the client serializes token work.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokens != nil && c.now().Before(c.tokens.expiresAt) {
		return c.tokens.access, nil
	}

	if c.tokens != nil {
		if err := c.refreshLocked(ctx); err == nil {
			return c.tokens.access, nil
		} else {
			c.logger.Warn("token refresh failed, re-authenticating", "error", err)
		}
	}

	if err := c.authenticateLocked(ctx); err != nil {
		return "", err
	}
	return c.tokens.access, nil
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	// Anonymous token first, then a password login bearing it.
	var anon tokenResponse
	err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/mobile-auth/v1/auth/token/anonymous", "",
		map[string]string{"clientId": "appie"}, &anon)
	if err != nil {
		return fmt.Errorf("anonymous token: %w", err)
	}

	var tr tokenResponse
	err = c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/mobile-auth/v1/auth/token/password", anon.AccessToken,
		map[string]string{
			"username": c.cfg.Email,
			"password": c.cfg.Password,
			"clientId": "appie",
		}, &tr)
	if err != nil {
		return fmt.Errorf("password login: %w", err)
	}

	c.storeTokens(tr, "")
	c.logger.Info("authenticated with AH API")
	return nil
}

func (c *Client) refreshLocked(ctx context.Context) error {
	var tr tokenResponse
	err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/mobile-auth/v1/auth/token/refresh", "",
		map[string]string{
			"refreshToken": c.tokens.refresh,
			"clientId":     "appie",
		}, &tr)
	if err != nil {
		return err
	}

	c.storeTokens(tr, c.tokens.refresh)
	c.logger.Info("refreshed AH token")
	return nil
}

func (c *Client) storeTokens(tr tokenResponse, fallbackRefresh string) {
	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}
	c.tokens = &tokens{
		access:    tr.AccessToken,
		refresh:   refresh,
		expiresAt: c.now().Add(time.Duration(expiresIn)*time.Second - tokenMargin),
	}
}

type searchResponse struct {
	Products []struct {
		WebshopID int     `json:"webshopId"`
		Title     string  `json:"title"`
		Price     float64 `json:"priceBeforeBonus"`
	} `json:"products"`
}

// SearchProduct returns the best match for a query, or nil when AH has
// nothing for it.
func (c *Client) SearchProduct(ctx context.Context, query string) (*Product, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/mobile-services/product/search/v2?query=%s&sortOn=RELEVANCE&size=1",
		c.cfg.BaseURL, url.QueryEscape(query))

	var sr searchResponse
	if err := c.doJSON(ctx, http.MethodGet, u, token, nil, &sr); err != nil {
		return nil, fmt.Errorf("search product: %w", err)
	}
	if len(sr.Products) == 0 {
		return nil, nil
	}

	p := sr.Products[0]
	return &Product{ProductID: p.WebshopID, Title: p.Title, Price: p.Price}, nil
}

// AddToShoppingList puts a product on the authenticated user's AH list.
func (c *Client) AddToShoppingList(ctx context.Context, productID, quantity int) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{
		"items": []map[string]any{{
			"productId": productID,
			"quantity":  quantity,
			"type":      "SHOPPABLE",
		}},
	}
	u := c.cfg.BaseURL + "/mobile-services/shoppinglist/v2/items"
	if err := c.doJSON(ctx, http.MethodPatch, u, token, body, nil); err != nil {
		return fmt.Errorf("add to shopping list: %w", err)
	}
	return nil
}

// SyncItems pushes catalog items to the AH shopping list one by one.
// A failure on one item does not stop the rest.
func (c *Client) SyncItems(ctx context.Context, items []model.Item) ([]SyncResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	results := make([]SyncResult, 0, len(items))
	for _, item := range items {
		result := c.syncOne(ctx, item)
		metrics.SyncItems.WithLabelValues(result.Status).Inc()
		results = append(results, result)
	}
	return results, nil
}

func (c *Client) syncOne(ctx context.Context, item model.Item) SyncResult {
	product, err := c.SearchProduct(ctx, item.NameRaw)
	if err != nil {
		c.logger.Error("sync item failed", "item", item.NameRaw, "error", err)
		return SyncResult{ItemName: item.NameRaw, Status: "error", Error: err.Error()}
	}
	if product == nil {
		return SyncResult{ItemName: item.NameRaw, Status: "not_found"}
	}

	qty := int(item.Qty)
	if qty < 1 {
		qty = 1
	}
	if err := c.AddToShoppingList(ctx, product.ProductID, qty); err != nil {
		c.logger.Error("sync item failed", "item", item.NameRaw, "error", err)
		return SyncResult{ItemName: item.NameRaw, Status: "error", Error: err.Error()}
	}
	return SyncResult{ItemName: item.NameRaw, Status: "ok", Product: product.Title}
}
