package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/pipeline"
)

// ErrBusy is returned by RunCycle when another cycle is still in flight.
var ErrBusy = errors.New("httpserver: a cycle is already running")

// CycleRunner is the narrow pipeline contract required by the HTTP API.
type CycleRunner interface {
	Cycle(ctx context.Context) (pipeline.Report, error)
}

// lastRun is the outcome of the most recent cycle.
type lastRun struct {
	Report   pipeline.Report `json:"report"`
	Error    string          `json:"error,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Finished time.Time       `json:"finished"`
}

// Server exposes an HTTP API to trigger publish cycles and inspect the last one.
type Server struct {
	addr      string
	runner    CycleRunner
	logger    *zap.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	runMu sync.Mutex // held for the duration of a cycle

	mu   sync.RWMutex
	last *lastRun
}

// NewServer creates a new HTTP trigger server.
func NewServer(addr string, runner CycleRunner, logger *zap.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.POST("/api/run", s.handleRun)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// RunCycle runs one cycle unless another is in flight, in which case it returns ErrBusy.
// The outcome is recorded for /api/status.
func (s *Server) RunCycle(ctx context.Context) (pipeline.Report, error) {
	if !s.runMu.TryLock() {
		return pipeline.Report{}, ErrBusy
	}
	defer s.runMu.Unlock()

	rep, err := s.runner.Cycle(ctx)

	lr := &lastRun{Report: rep, Finished: time.Now()}
	if err != nil {
		lr.Error = err.Error()
		lr.Kind = pipeline.ErrorKind(err)
		s.logger.Error("cycle failed", zap.String("run_id", rep.RunID), zap.String("kind", lr.Kind), zap.Error(err))
	}
	s.mu.Lock()
	s.last = lr
	s.mu.Unlock()

	return rep, err
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) handleRun(c *gin.Context) {
	// Cycles outlive the request so a dropped client cannot cut a publish in half.
	rep, err := s.RunCycle(s.ctx)
	if errors.Is(err, ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		kind := pipeline.ErrorKind(err)
		c.JSON(statusForKind(kind), gin.H{
			"error":  err.Error(),
			"kind":   kind,
			"report": rep,
		})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func statusForKind(kind string) int {
	switch kind {
	case pipeline.KindMalformedMetric:
		return http.StatusUnprocessableEntity
	case pipeline.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}
