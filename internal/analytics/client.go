// Package analytics talks to the analytics events API: schema registration and event publishing.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Config holds the events API connection settings.
type Config struct {
	URL         string
	AccountName string
	APIKey      string
	Timeout     time.Duration

	// Transport allows injecting a custom round tripper (tests).
	Transport http.RoundTripper
}

// Client is the shared transport for the events API endpoints.
type Client struct {
	baseURL     *url.URL
	accountName string
	apiKey      string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient validates cfg and builds a client with a bounded request timeout.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("analytics: url is required")
	}
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("analytics: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("analytics: url must use http or https, got %q", u.Scheme)
	}
	if strings.TrimSpace(cfg.AccountName) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("analytics: account name and api key are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = model.DefaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     u,
		accountName: cfg.AccountName,
		apiKey:      cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		logger: logger,
	}, nil
}

// endpoint builds {base}/events/{kind}/{schema}.
func (c *Client) endpoint(kind, schema string) string {
	return c.baseURL.JoinPath("events", kind, url.PathEscape(schema)).String()
}

// do sends one request with the events API headers. body may be nil.
// The caller owns closing the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("X-Events-API-AccountName", c.accountName)
	req.Header.Set("X-Events-API-Key", c.apiKey)
	req.Header.Set("Content-Type", model.EventsContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

// drain discards the rest of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// remoteError builds an *Error from an unexpected response. The events API puts
// its own statusCode and message in a JSON body; when the body is not JSON the raw
// body, then the HTTP status text, becomes the message.
func remoteError(kind error, schema string, resp *http.Response) *Error {
	e := &Error{Kind: kind, Schema: schema, StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		e.RemoteCode = payload.StatusCode
		e.Message = payload.Message
		return e
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		e.Message = s
		return e
	}
	e.Message = http.StatusText(resp.StatusCode)
	return e
}
