package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/analytics"
	"github.com/tinytelemetry/metricbridge/internal/model"
)

const e2eMetricXML = `<metric-datas>
  <metric-data>
    <metricId>42</metricId>
    <metricName>cpu</metricName>
    <metricPath>a|b|c</metricPath>
    <frequency>ONE_MIN</frequency>
    <metricValues>
      <metric-value>
        <startTimeInMillis>1000</startTimeInMillis><occurrences>1</occurrences><current>1</current>
        <min>1</min><max>1</max><count>1</count><sum>10</sum><value>1</value>
      </metric-value>
      <metric-value>
        <startTimeInMillis>2000</startTimeInMillis><occurrences>1</occurrences><current>2</current>
        <min>2</min><max>2</max><count>1</count><sum>20</sum><value>2</value>
      </metric-value>
    </metricValues>
  </metric-data>
</metric-datas>`

// e2eStack fakes the controller and the events API behind one server.
type e2eStack struct {
	mu            sync.Mutex
	schemaExists  bool
	publishStatus int
	creates       int
	published     [][]model.NormalizedSample
	url           string
}

func startE2EStack(t *testing.T) *e2eStack {
	t.Helper()
	s := &e2eStack{publishStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /controller/api/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":300}`)
	})
	mux.HandleFunc("GET /controller/rest/applications/{app}/metric-data", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, e2eMetricXML)
	})
	mux.HandleFunc("GET /events/schema/{name}", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.schemaExists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /events/schema/{name}", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.creates++
		s.schemaExists = true
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /events/publish/{name}", func(w http.ResponseWriter, r *http.Request) {
		var batch []model.NormalizedSample
		_ = json.NewDecoder(r.Body).Decode(&batch)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.published = append(s.published, batch)
		w.WriteHeader(s.publishStatus)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	s.url = srv.URL
	return s
}

func e2eConfig(t *testing.T, stackURL string) appConfig {
	t.Helper()
	dir := t.TempDir()

	schemaFile := filepath.Join(dir, "schema.json")
	raw, err := os.ReadFile(filepath.Join("..", "..", "conf", "schema.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(schemaFile, raw, 0o644))

	pathsFile := filepath.Join(dir, "paths.txt")
	require.NoError(t, os.WriteFile(pathsFile, []byte("a|b|c\n"), 0o644))

	return appConfig{
		ControllerURL:     stackURL,
		ControllerAccount: "customer1",
		APIClientName:     "bridge",
		APIClientSecret:   "s3cret",
		AnalyticsURL:      stackURL,
		GlobalAccountName: "acme",
		EventsAPIKey:      "key",
		SchemaName:        "metrics",
		SchemaFile:        schemaFile,
		PathsFile:         pathsFile,
		Application:       model.DefaultApplication,
		DurationInMins:    60,
		RequestTimeout:    5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

func TestRunOnce_EndToEnd(t *testing.T) {
	stack := startE2EStack(t)
	cfg := e2eConfig(t, stack.url)

	require.NoError(t, runOnce(context.Background(), cfg, zap.NewNop()))
	require.NoError(t, runOnce(context.Background(), cfg, zap.NewNop()))

	stack.mu.Lock()
	defer stack.mu.Unlock()
	assert.Equal(t, 1, stack.creates, "schema is created once and reused")
	require.Len(t, stack.published, 2)
	require.Len(t, stack.published[0], 2)
	assert.Equal(t, int64(42), stack.published[0][0].MetricID)
	assert.Equal(t, int64(10), stack.published[0][0].Sum)
	assert.Equal(t, int64(20), stack.published[0][1].Sum)
}

func TestRunOnce_PayloadTooLarge(t *testing.T) {
	stack := startE2EStack(t)
	stack.publishStatus = http.StatusRequestEntityTooLarge
	cfg := e2eConfig(t, stack.url)

	err := runOnce(context.Background(), cfg, zap.NewNop())
	require.ErrorIs(t, err, analytics.ErrPayloadTooLarge)

	stack.mu.Lock()
	defer stack.mu.Unlock()
	assert.True(t, stack.schemaExists, "schema stays registered after a failed publish")
	assert.Len(t, stack.published, 1)
}
