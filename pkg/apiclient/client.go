// Package apiclient is the HTTP client for the goalstake API server. It
// holds the session cookie across requests, so one client instance is one
// signed-in identity.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/goal"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server, carrying the status code
// and the server's error message.
type APIError struct {
	StatusCode int    `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client talks to the goalstake API server. The underlying http.Client
// carries a cookie jar so the session cookie set by Verify flows into
// subsequent requests.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed if the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{base: base}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

// RequestNonce asks the server for a sign-in challenge for the address.
func (c *Client) RequestNonce(ctx context.Context, address string) (*auth.NonceResponse, error) {
	var out auth.NonceResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/nonce", &auth.NonceRequest{Address: address}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify presents the signed challenge. On success the server's session
// cookie lands in the client's jar.
func (c *Client) Verify(ctx context.Context, address, nonce, signature string) (*auth.VerifyResponse, error) {
	var out auth.VerifyResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/verify", &auth.VerifyRequest{
		Address:   address,
		Nonce:     nonce,
		Signature: signature,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate reports the wallet address bound to the current session.
func (c *Client) Validate(ctx context.Context) (*auth.ValidateResponse, error) {
	var out auth.ValidateResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/validate", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut clears the session server-side; the expired cookie replaces the
// one in the jar.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil)
}

// CreateGoal records a goal whose escrow transaction already confirmed.
func (c *Client) CreateGoal(ctx context.Context, req *goal.CreateRequest) (*goal.Response, error) {
	var out goal.Response
	err := c.do(ctx, http.MethodPost, "/api/goals/create", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchGoals lists the caller's goals for the given role; an empty role
// means goals the caller created.
func (c *Client) FetchGoals(ctx context.Context, role string) ([]*goal.Response, error) {
	path := "/api/goals/fetch"
	if role != "" {
		path += "?role=" + url.QueryEscape(role)
	}

	var out struct {
		Goals []*goal.Response `json:"goals"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Goals, nil
}

// CompleteGoal marks a goal met on the caller's authority as referee.
func (c *Client) CompleteGoal(ctx context.Context, req *goal.TransitionRequest) (*goal.Response, error) {
	var out goal.Response
	err := c.do(ctx, http.MethodPost, "/api/referee/complete", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimFunds settles a goal for whichever claim the caller's role allows.
func (c *Client) ClaimFunds(ctx context.Context, req *goal.TransitionRequest) (*goal.Response, error) {
	var out goal.Response
	err := c.do(ctx, http.MethodPost, "/api/claim/claim-funds", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
