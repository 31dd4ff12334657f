package homebox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hession/boxmate/internal/logger"
)

const defaultPageSize = 20

// APIError is a non-2xx response from the Homebox API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("homebox API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("homebox API error (status %d): %s", e.StatusCode, e.Message)
}

// Cache stores encoded responses of read endpoints.
// Implementations decide TTL; Invalidate drops everything after a write.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, payload []byte)
	Invalidate()
}

// ClientConfig configures a Homebox API client.
type ClientConfig struct {
	BaseURL              string
	Token                string
	Username             string
	Password             string
	CFAccessClientID     string
	CFAccessClientSecret string
	UserAgent            string
	Timeout              time.Duration
	Cache                Cache
}

// Client talks to the Homebox REST API.
type Client struct {
	baseURL              string
	username             string
	password             string
	cfAccessClientID     string
	cfAccessClientSecret string
	userAgent            string
	httpClient           *http.Client
	cache                Cache

	mu    sync.Mutex
	token string
}

// NewClient creates a Homebox API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := NormalizeBaseURL(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("homebox base URL is required")
	}

	userAgent := cfg.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "Boxmate/0.1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:              baseURL,
		token:                strings.TrimSpace(cfg.Token),
		username:             cfg.Username,
		password:             cfg.Password,
		cfAccessClientID:     strings.TrimSpace(cfg.CFAccessClientID),
		cfAccessClientSecret: strings.TrimSpace(cfg.CFAccessClientSecret),
		userAgent:            userAgent,
		httpClient:           &http.Client{Timeout: timeout},
		cache:                cfg.Cache,
	}, nil
}

// NormalizeBaseURL trims trailing slashes and appends /api when missing.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setHeaders applies the standard headers, including the Cloudflare Access
// pair when both credentials are configured.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.cfAccessClientID != "" && c.cfAccessClientSecret != "" {
		req.Header.Set("CF-Access-Client-Id", c.cfAccessClientID)
		req.Header.Set("CF-Access-Client-Secret", c.cfAccessClientSecret)
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		if !strings.HasPrefix(token, "Bearer ") {
			token = "Bearer " + token
		}
		req.Header.Set("Authorization", token)
	}
}

// Login authenticates with username/password and stores the session token.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("homebox username and password are required for login")
	}

	body, err := json.Marshal(loginRequest{
		Username:     c.username,
		Password:     c.password,
		StayLoggedIn: true,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/users/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.cfAccessClientID != "" && c.cfAccessClientSecret != "" {
		req.Header.Set("CF-Access-Client-Id", c.cfAccessClientID)
		req.Header.Set("CF-Access-Client-Secret", c.cfAccessClientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.Token == "" {
		return fmt.Errorf("login response contained no token")
	}

	c.mu.Lock()
	c.token = login.Token
	c.mu.Unlock()

	logger.Info("homebox login ok, token expires at %s", login.ExpiresAt)
	return nil
}

// SearchItems searches inventory items.
func (c *Client) SearchItems(ctx context.Context, q ItemQuery) (*ItemPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}

	params := url.Values{}
	if strings.TrimSpace(q.Query) != "" {
		params.Set("q", strings.TrimSpace(q.Query))
	}
	for _, id := range q.LocationIDs {
		params.Add("locations", id)
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	var page ItemPage
	if err := c.get(ctx, "/v1/items", params, &page); err != nil {
		return nil, err
	}
	// Older servers omit paging echo fields
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.PageSize == 0 {
		page.PageSize = q.PageSize
	}
	return &page, nil
}

// GetItem fetches a single item with full details.
func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}

	var item Item
	if err := c.get(ctx, "/v1/items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLocations lists all storage locations.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var list locationList
	if err := c.get(ctx, "/v1/locations", nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateItem creates a new inventory item.
func (c *Client) CreateItem(ctx context.Context, create ItemCreate) (*Item, error) {
	if strings.TrimSpace(create.Name) == "" {
		return nil, fmt.Errorf("item name cannot be empty")
	}

	var item Item
	if err := c.do(ctx, http.MethodPost, "/v1/items", nil, create, &item); err != nil {
		return nil, err
	}
	c.invalidateCache()
	return &item, nil
}

// UpdateItem replaces an item. The Homebox API has no partial update, so the
// payload should originate from Item.ToUpdate.
func (c *Client) UpdateItem(ctx context.Context, upd ItemUpdate) (*Item, error) {
	if strings.TrimSpace(upd.ID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}

	var item Item
	if err := c.do(ctx, http.MethodPut, "/v1/items/"+url.PathEscape(upd.ID), nil, upd, &item); err != nil {
		return nil, err
	}
	c.invalidateCache()
	return &item, nil
}

// get performs a cached GET request.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	key := path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	if c.cache != nil {
		if payload, ok := c.cache.Get(key); ok {
			if err := json.Unmarshal(payload, out); err == nil {
				return nil
			}
			// A corrupt entry falls through to a live request
		}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, params, nil, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if c.cache != nil {
		c.cache.Set(key, raw)
	}
	return nil
}

// do performs one request, retrying once through login on 401 when
// credentials are configured.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	err := c.doOnce(ctx, method, path, params, body, out)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized &&
		c.username != "" && c.password != "" {
		logger.Warn("homebox request unauthorized, retrying after login")
		if loginErr := c.Login(ctx); loginErr != nil {
			return fmt.Errorf("re-login after 401 failed: %w", loginErr)
		}
		return c.doOnce(ctx, method, path, params, body, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("homebox request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) invalidateCache() {
	if c.cache != nil {
		c.cache.Invalidate()
	}
}

// newAPIError builds an APIError from a non-2xx response, including a short
// body excerpt when the server sent one.
func newAPIError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	message := strings.TrimSpace(string(snippet))

	// Try the structured error shape first
	var apiBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(snippet, &apiBody); err == nil {
		if apiBody.Error != "" {
			message = apiBody.Error
		} else if apiBody.Message != "" {
			message = apiBody.Message
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
