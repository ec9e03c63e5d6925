package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-gateway/internal/domain"
)

const statusSuccess = "SUCCESS"

// genericFailure is shown when the backend gives no message of its own
// (transport failures, malformed responses).
const genericFailure = "server error"

// Client talks to the backend REST API. The backend owns all business
// logic and persistence; the gateway only relays requests and reads the
// authoritative state back.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a Client for the given base URL, e.g. "http://backend:8080".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// APIError is a failure reported by the backend. Message is the server's
// own message when one was supplied, otherwise a generic fallback.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend: %s (http %d)", e.Message, e.StatusCode)
	}
	return "backend: " + e.Message
}

// UserMessage extracts the user-facing message from a backend call error.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericFailure
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ListCart returns the authenticated customer's cart lines in server order.
func (c *Client) ListCart(ctx context.Context, token string) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	if err := c.do(ctx, http.MethodGet, "/v1/cart", token, nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

type cartItemRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem adds quantity units of a variant to the cart.
func (c *Client) AddCartItem(ctx context.Context, token, variantID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/v1/cart/add", token, cartItemRequest{VariantID: variantID, Quantity: quantity}, nil)
}

// UpdateCartItem sets the quantity of an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, token, variantID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/v1/cart/update", token, cartItemRequest{VariantID: variantID, Quantity: quantity}, nil)
}

// RemoveCartItem deletes the cart line for a variant.
func (c *Client) RemoveCartItem(ctx context.Context, token, variantID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/cart/remove/"+url.PathEscape(variantID), token, nil, nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	Customer domain.Customer `json:"customer"`
}

// Login exchanges credentials for a bearer token and the customer identity.
func (c *Client) Login(ctx context.Context, email, password string) (string, domain.Customer, error) {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", loginRequest{Email: email, Password: password}, &res); err != nil {
		return "", domain.Customer{}, err
	}
	return res.Token, res.Customer, nil
}

// ListProducts fetches one page of the catalog. Works unauthenticated.
func (c *Client) ListProducts(ctx context.Context, page, size int) (*domain.ProductPage, error) {
	path := "/v1/products?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
	var res domain.ProductPage
	if err := c.do(ctx, http.MethodGet, path, "", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Ping checks backend reachability for the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health: http %d", res.StatusCode)
	}
	return nil
}

// do runs one backend call: attaches the bearer token when present,
// decodes the {status,message,data} envelope and unmarshals data into out.
// Authenticated paths (anything under /v1/cart) require a token and fail
// locally with ErrNoSession before any request is attempted.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	if token == "" && strings.HasPrefix(path, "/v1/cart") {
		return domain.ErrNoSession
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return &APIError{Message: genericFailure}
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: res.StatusCode, Message: genericFailure}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 || env.Status != statusSuccess {
		msg := env.Message
		if msg == "" {
			msg = genericFailure
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{StatusCode: res.StatusCode, Message: genericFailure}
		}
	}
	return nil
}
