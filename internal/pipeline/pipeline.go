// Package pipeline runs one publish cycle: ensure schema, normalize, publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tinytelemetry/metricbridge/internal/model"
	"github.com/tinytelemetry/metricbridge/internal/normalize"
)

// SchemaEnsurer registers the target schema when it is missing.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context, desc model.SchemaDescriptor) error
}

// EventPublisher sends one batch of samples to the named schema.
type EventPublisher interface {
	Publish(ctx context.Context, schemaName string, samples []model.NormalizedSample) error
}

// Config is the immutable per-process pipeline configuration.
type Config struct {
	Schema model.SchemaDescriptor
}

// Report summarizes one cycle.
type Report struct {
	RunID    string        `json:"runId"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Paths    int           `json:"paths"`
	Samples  int           `json:"samples"`
}

// Pipeline wires the schema registrar, normalizer and publisher together.
type Pipeline struct {
	cfg       Config
	schemas   SchemaEnsurer
	publisher EventPublisher
	source    model.MetricSource
	logger    *zap.Logger
}

// New returns a pipeline. source may be nil when only Run is used.
func New(cfg Config, schemas SchemaEnsurer, publisher EventPublisher, source model.MetricSource, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		schemas:   schemas,
		publisher: publisher,
		source:    source,
		logger:    logger,
	}
}

// Run publishes raw under cfg.Schema. The first failing step aborts the rest;
// a schema created before a failed publish is left in place for the next cycle.
func (p *Pipeline) Run(ctx context.Context, cfg Config, raw []model.RawPathResult) error {
	_, err := p.run(ctx, cfg, raw)
	return err
}

func (p *Pipeline) run(ctx context.Context, cfg Config, raw []model.RawPathResult) (int, error) {
	if err := p.schemas.EnsureSchema(ctx, cfg.Schema); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}

	samples, err := normalize.Normalize(raw)
	if err != nil {
		return 0, fmt.Errorf("normalize: %w", err)
	}
	p.logger.Debug("normalized metric data", zap.Int("paths", len(raw)), zap.Int("samples", len(samples)))

	if err := p.publisher.Publish(ctx, cfg.Schema.Name, samples); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}
	return len(samples), nil
}

// Cycle fetches from the configured source and runs the pipeline once.
func (p *Pipeline) Cycle(ctx context.Context) (rep Report, err error) {
	rep = Report{RunID: uuid.NewString(), Started: time.Now()}
	log := p.logger.With(zap.String("run_id", rep.RunID), zap.String("schema", p.cfg.Schema.Name))
	defer func() { rep.Duration = time.Since(rep.Started) }()

	if p.source == nil {
		return rep, errors.New("pipeline: no metric source configured")
	}

	log.Info("cycle starting")
	raw, err := p.source.FetchAll(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch: %w", err)
	}
	rep.Paths = len(raw)

	n, err := p.run(ctx, p.cfg, raw)
	if err != nil {
		return rep, err
	}
	rep.Samples = n

	log.Info("cycle complete", zap.Int("paths", rep.Paths), zap.Int("samples", rep.Samples))
	return rep, nil
}
