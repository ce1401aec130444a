package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/config"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
	"github.com/joshuxchn/qloo/internal/ports"
)

// Client is the HTTP implementation of ports.BackendGateway. All endpoints
// share the {success, data, error} envelope except /health, which the
// backend returns bare.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	validate *validator.Validate
	metrics  *Metrics
	logger   *logger.Logger
}

var _ ports.BackendGateway = (*Client)(nil)

// New creates a backend client from configuration.
func New(cfg config.APIConfig, appLogger *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		validate: validator.New(),
		metrics:  NewMetrics(),
		logger:   appLogger.WithComponent("backend"),
	}
}

// Metrics exposes the request metrics recorded by this client.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// envelope is the uniform wrapper shared by all backend responses. Payload
// fields sit beside it at the top level, so endpoint response types embed it.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (e *envelope) ok() bool        { return e.Success }
func (e *envelope) failure() string { return e.Error }

type enveloped interface {
	ok() bool
	failure() string
}

type loginResponse struct {
	envelope
	User *entities.User `json:"user" validate:"required"`
}

type searchResponse struct {
	envelope
	Products []entities.Product `json:"products"`
	Count    int                `json:"count"`
}

type createListResponse struct {
	envelope
	List *entities.GroceryList `json:"list" validate:"required"`
}

type addItemResponse struct {
	envelope
	Item *entities.GroceryItem `json:"item" validate:"required"`
}

type userListsResponse struct {
	envelope
	Lists []entities.GroceryList `json:"lists"`
	Count int                    `json:"count"`
}

// Health checks backend connectivity. Unlike every other endpoint, the
// health response carries no success flag; any 2xx with a decodable body
// counts as reachable.
func (c *Client) Health(ctx context.Context) (*ports.HealthStatus, error) {
	status, body, err := c.send(ctx, "health", http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		err := synthesizeHTTPError(body, status)
		c.metrics.countFailure("health")
		return nil, err
	}

	var health ports.HealthStatus
	if err := json.Unmarshal(body, &health); err != nil {
		c.metrics.countFailure("health")
		return nil, fmt.Errorf("%w: malformed health response: %v", entities.ErrNetwork, err)
	}

	return &health, nil
}

// Login authenticates against the backend. The backend creates the account
// on first login, so this doubles as registration.
func (c *Client) Login(ctx context.Context, email, password string) (*entities.User, error) {
	req := map[string]string{"email": email, "password": password}

	var resp loginResponse
	if err := c.call(ctx, "login", http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}

	return resp.User, nil
}

// SearchProducts resolves a free-text query against the catalog.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]entities.Product, error) {
	req := map[string]interface{}{"query": query, "limit": limit}

	var resp searchResponse
	if err := c.call(ctx, "search", http.MethodPost, "/products/search", req, &resp); err != nil {
		return nil, err
	}

	return resp.Products, nil
}

// CreateList creates an empty grocery list owned by userID.
func (c *Client) CreateList(ctx context.Context, userID string) (*entities.GroceryList, error) {
	req := map[string]string{"user_id": userID}

	var resp createListResponse
	if err := c.call(ctx, "create_list", http.MethodPost, "/lists", req, &resp); err != nil {
		return nil, err
	}

	return resp.List, nil
}

// AddItem asks the backend to resolve itemName and append it to the list.
func (c *Client) AddItem(ctx context.Context, listID, itemName string, quantity int) (*entities.GroceryItem, error) {
	req := map[string]interface{}{"item_name": itemName, "quantity": quantity}
	path := fmt.Sprintf("/lists/%s/items", listID)

	var resp addItemResponse
	if err := c.call(ctx, "add_item", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	return resp.Item, nil
}

// UserLists fetches every grocery list owned by userID.
func (c *Client) UserLists(ctx context.Context, userID string) ([]entities.GroceryList, error) {
	path := fmt.Sprintf("/lists/user/%s", userID)

	var resp userListsResponse
	if err := c.call(ctx, "user_lists", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Lists, nil
}

// call performs one enveloped request. Transport problems and undecodable
// bodies map to entities.ErrNetwork; backend-reported failures propagate the
// backend message verbatim, with an HTTP status line synthesized when the
// body carries none.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body interface{}, out enveloped) error {
	status, data, err := c.send(ctx, endpoint, method, path, body)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		err := synthesizeHTTPError(data, status)
		c.metrics.countFailure(endpoint)
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.metrics.countFailure(endpoint)
		return fmt.Errorf("%w: malformed response: %v", entities.ErrNetwork, err)
	}

	if !out.ok() {
		c.metrics.countFailure(endpoint)
		if msg := out.failure(); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("HTTP %d: %s", status, http.StatusText(status))
	}

	if err := c.validate.Struct(out); err != nil {
		c.metrics.countFailure(endpoint)
		return fmt.Errorf("%w: invalid response shape: %v", entities.ErrNetwork, err)
	}

	return nil
}

// send performs the raw roundtrip and returns the status code and body.
func (c *Client) send(ctx context.Context, endpoint, method, path string, body interface{}) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", entities.ErrNetwork, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	c.metrics.observeRequest(endpoint, method, duration.Seconds())

	if err != nil {
		c.metrics.countFailure(endpoint)
		c.logger.LogBackendCall(method, path, 0, float64(duration.Milliseconds()), err)
		return 0, nil, fmt.Errorf("%w: %v", entities.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.countFailure(endpoint)
		c.logger.LogBackendCall(method, path, resp.StatusCode, float64(duration.Milliseconds()), err)
		return 0, nil, fmt.Errorf("%w: %v", entities.ErrNetwork, err)
	}

	c.logger.LogBackendCall(method, path, resp.StatusCode, float64(duration.Milliseconds()), nil)
	return resp.StatusCode, data, nil
}

// synthesizeHTTPError extracts the backend error from a non-2xx body when
// present, falling back to an HTTP status line.
func synthesizeHTTPError(data []byte, status int) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error != "" {
		return errors.New(env.Error)
	}
	return fmt.Errorf("HTTP %d: %s", status, http.StatusText(status))
}
