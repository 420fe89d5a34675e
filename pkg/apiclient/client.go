package apiclient

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

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/middleware/requestid"
)

const maxBodyBytes = 4 << 20

// TokenSource yields the current access credential. It is consulted on every
// call, never cached, so a logout takes effect for the very next request.
type TokenSource interface {
	AccessToken() string
}

// ExpiryAware token sources let the client refuse a call locally when the
// access credential is already past its expiry.
type ExpiryAware interface {
	AccessTokenExpiry() (time.Time, bool)
}

// Observer receives one observation per outbound call.
type Observer interface {
	ObserveAPICall(method, route string, status int, duration time.Duration)
}

// Options configures the client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   Observer
	Now        func() time.Time
}

// Client is the single outbound transport to the school API.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// Request describes one API call. Route is a low-cardinality label for
// metrics; it defaults to Path. Token, when set, is sent instead of the
// token source credential.
type Request struct {
	Method    string
	Path      string
	Route     string
	Body      interface{}
	Anonymous bool
	Token     string
}

// New constructs a client without credentials; see WithTokens.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base url required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:  base,
		http:     httpClient,
		logger:   logger,
		observer: opts.Observer,
		now:      now,
	}, nil
}

// WithTokens returns a client sharing the same transport that stamps the
// bearer credential from ts on every non-anonymous call.
func (c *Client) WithTokens(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues an authorized GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path, route string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Route: route}, out)
}

// Post issues an authorized POST with a JSON body.
func (c *Client) Post(ctx context.Context, path, route string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Route: route, Body: body}, out)
}

// Put issues an authorized PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path, route string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Route: route, Body: body}, out)
}

// Delete issues an authorized DELETE.
func (c *Client) Delete(ctx context.Context, path, route string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Route: route}, nil)
}

// Do executes the request and maps failures onto the client error taxonomy.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	route := req.Route
	if route == "" {
		route = req.Path
	}

	token := req.Token
	if token == "" && !req.Anonymous && c.tokens != nil {
		token = c.tokens.AccessToken()
		if token != "" && c.expired() {
			return appErrors.Clone(appErrors.ErrSessionExpired, "")
		}
	}

	var payload io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	reqID := requestid.FromContext(ctx)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestid.Header, reqID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(httpReq)
	duration := c.now().Sub(start)
	if err != nil {
		c.observe(req.Method, route, 0, duration)
		c.logger.Debug("api call failed", zap.String("method", req.Method), zap.String("route", route), zap.String("request_id", reqID), zap.Error(err))
		return appErrors.Fetch(err, 0, "network request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(req.Method, route, resp.StatusCode, duration)
	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("route", route),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
		zap.String("request_id", reqID),
	)
	if err != nil {
		return appErrors.Fetch(err, resp.StatusCode, "read response body")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return appErrors.Fetch(err, resp.StatusCode, "decode response body")
		}
		return nil
	}

	return c.statusError(resp.StatusCode, body, !req.Anonymous || token != "")
}

func (c *Client) statusError(status int, body []byte, authorized bool) error {
	detail := detailOf(body)
	switch {
	case (status == http.StatusUnauthorized || status == http.StatusForbidden) && authorized:
		return appErrors.Clone(appErrors.ErrSessionExpired, "")
	case status == http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrAuthentication, "")
	case status == http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, detail)
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		fields, err := ParseValidationErrors(body)
		if err != nil {
			msg := detail
			if msg == "" {
				msg = "request rejected"
			}
			return appErrors.Fetch(err, status, msg)
		}
		e := appErrors.Validation("", fields)
		e.Status = status
		return e
	default:
		msg := detail
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return appErrors.Fetch(nil, status, msg)
	}
}

func (c *Client) expired() bool {
	aware, ok := c.tokens.(ExpiryAware)
	if !ok {
		return false
	}
	exp, known := aware.AccessTokenExpiry()
	return known && !c.now().Before(exp)
}

func (c *Client) observe(method, route string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAPICall(method, route, status, d)
	}
}

func detailOf(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}
