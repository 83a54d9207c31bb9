// Package client talks to the BloodCare donation request API.
package client

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

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Config holds configuration for creating a Client
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080"
	BaseURL string
	// HTTPClient supplies the base transport. If nil, http.DefaultTransport is used.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client performs donation request calls on behalf of a Session.
// It owns no business rules; see Controller for the lifecycle guard.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *zap.Logger
}

func New(cfg Config, session *Session) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	if session == nil {
		session = NewSession()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base := http.DefaultTransport
	timeout := http.DefaultClient.Timeout
	if cfg.HTTPClient != nil {
		if cfg.HTTPClient.Transport != nil {
			base = cfg.HTTPClient.Transport
		}
		timeout = cfg.HTTPClient.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{Source: session, Base: base},
			Timeout:   timeout,
		},
		session: session,
		logger:  logger,
	}, nil
}

// Session returns the session whose token authorizes every call
func (c *Client) Session() *Session { return c.session }

// Create posts a new request owned by the signed-in user
func (c *Client) Create(ctx context.Context, payload CreatePayload) (*Request, error) {
	var out Request
	if err := c.do(ctx, http.MethodPost, "/donation-requests", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Request, error) {
	var out Request
	if err := c.do(ctx, http.MethodGet, "/donation-requests/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of requests visible to the signed-in user
func (c *Client) List(ctx context.Context, filter ListFilter, page, pageSize int) (*Page, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.OwnerEmail != "" {
		q.Set("ownerEmail", filter.OwnerEmail)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("limit", strconv.Itoa(pageSize))
	}

	var out Page
	if err := c.do(ctx, http.MethodGet, "/donation-requests", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []Request{}
	}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}
	return &out, nil
}

// UpdateStatus patches the status. donor is only sent when confirming.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status, donor *Donor) (*Request, error) {
	body := struct {
		Status Status `json:"status"`
		Donor  *Donor `json:"donor,omitempty"`
	}{status, donor}

	var out Request
	if err := c.do(ctx, http.MethodPatch, "/donation-requests/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateFields(ctx context.Context, id string, patch FieldPatch) (*Request, error) {
	var out Request
	if err := c.do(ctx, http.MethodPut, "/donation-requests/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/donation-requests/"+url.PathEscape(id), nil, nil, nil)
}

// envelope mirrors the API's response wrapper
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if _, ok := c.session.Identity(); !ok {
		return fmt.Errorf("%w: sign in first", ErrAuth)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrNetwork, method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, kind: kindOf(resp.StatusCode)}
		if decodeErr == nil {
			apiErr.Message = env.Error
		}
		c.logger.Debug("api error", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrServer, method, path, decodeErr)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrServer, method, path, err)
	}
	return nil
}
