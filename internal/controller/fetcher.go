// Package controller queries the monitoring controller's metric-data REST API.
package controller

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

const (
	defaultTimeout = model.DefaultRequestTimeout
	maxResponse    = 32 << 20
	maxErrorBody   = 4 << 10
)

// ErrUnexpectedStatus is returned when a metric-data query does not answer 2xx.
var ErrUnexpectedStatus = errors.New("controller: unexpected status")

// Config holds metric-data query parameters.
type Config struct {
	ControllerURL     string
	Application       string
	DurationInMins    int
	Paths             []string
	Timeout           time.Duration
	RequestsPerSecond float64

	// Transport allows injecting a custom round tripper (tests).
	Transport http.RoundTripper
}

// Fetcher queries metric-data for each configured path, one request at a time.
type Fetcher struct {
	base        *url.URL
	application string
	duration    int
	paths       []string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewFetcher builds a fetcher that authenticates every request with a bearer token from ts.
func NewFetcher(cfg Config, ts oauth2.TokenSource, logger *zap.Logger) (*Fetcher, error) {
	base, err := parseControllerURL(cfg.ControllerURL)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, errors.New("controller: nil token source")
	}
	if len(cfg.Paths) == 0 {
		return nil, errors.New("controller: no metric paths configured")
	}
	if strings.TrimSpace(cfg.Application) == "" {
		cfg.Application = model.DefaultApplication
	}
	if cfg.DurationInMins <= 0 {
		cfg.DurationInMins = model.DefaultDurationInMins
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		base:        base,
		application: cfg.Application,
		duration:    cfg.DurationInMins,
		paths:       cfg.Paths,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: cfg.Transport},
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// FetchAll queries every configured path in order and stops at the first failure.
func (f *Fetcher) FetchAll(ctx context.Context) ([]model.RawPathResult, error) {
	results := make([]model.RawPathResult, 0, len(f.paths))
	for _, p := range f.paths {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("controller: rate limiter: %w", err)
		}
		res, err := f.FetchPath(ctx, p)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchPath queries one metric path over the configured BEFORE_NOW window and decodes the XML reply.
func (f *Fetcher) FetchPath(ctx context.Context, metricPath string) (model.RawPathResult, error) {
	log := f.logger.With(zap.String("path", metricPath))
	log.Debug("querying metric data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.metricDataURL(metricPath), nil)
	if err != nil {
		return model.RawPathResult{}, fmt.Errorf("controller: create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.RawPathResult{}, fmt.Errorf("controller: query %q: %w", metricPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return model.RawPathResult{}, fmt.Errorf("%w: query %q: %s: %s",
			ErrUnexpectedStatus, metricPath, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var result model.RawPathResult
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(&result); err != nil {
		return model.RawPathResult{}, fmt.Errorf("controller: decode %q: %w", metricPath, err)
	}
	result.Path = metricPath

	log.Info("metric data received", zap.Int("metrics", len(result.Metrics)))
	return result, nil
}

func (f *Fetcher) metricDataURL(metricPath string) string {
	u := f.base.JoinPath("controller", "rest", "applications", url.PathEscape(f.application), "metric-data")
	u.RawQuery = url.Values{
		"metric-path":      {metricPath},
		"time-range-type":  {"BEFORE_NOW"},
		"duration-in-mins": {strconv.Itoa(f.duration)},
	}.Encode()
	return u.String()
}

// parseControllerURL accepts a bare host ("acme.saas.example.com") or a full URL.
func parseControllerURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("controller: controller url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("controller: parse controller url: %w", err)
	}
	if u.Host == "" {
		return nil, errors.New("controller: controller url missing host")
	}
	return u, nil
}
