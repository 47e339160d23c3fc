package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/metricbridge/internal/analytics"
	"github.com/tinytelemetry/metricbridge/internal/controller"
	"github.com/tinytelemetry/metricbridge/internal/httpserver"
	"github.com/tinytelemetry/metricbridge/internal/pipeline"
)

// buildPipeline loads the schema and path list and wires the controller and events API clients.
func buildPipeline(ctx context.Context, cfg appConfig, logger *zap.Logger) (*pipeline.Pipeline, error) {
	schema, err := analytics.LoadSchemaDescriptor(cfg.SchemaName, cfg.SchemaFile)
	if err != nil {
		return nil, err
	}

	paths, err := controller.LoadPaths(cfg.PathsFile)
	if err != nil {
		return nil, err
	}

	tokens, err := controller.TokenSource(ctx, controller.TokenConfig{
		ControllerURL: cfg.ControllerURL,
		ClientName:    cfg.APIClientName,
		ClientSecret:  cfg.APIClientSecret,
		Account:       cfg.ControllerAccount,
		Timeout:       cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	fetcher, err := controller.NewFetcher(controller.Config{
		ControllerURL:     cfg.ControllerURL,
		Application:       cfg.Application,
		DurationInMins:    cfg.DurationInMins,
		Paths:             paths,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, tokens, logger.Named("controller"))
	if err != nil {
		return nil, err
	}

	events, err := analytics.NewClient(analytics.Config{
		URL:         cfg.AnalyticsURL,
		AccountName: cfg.GlobalAccountName,
		APIKey:      cfg.EventsAPIKey,
		Timeout:     cfg.RequestTimeout,
	}, logger.Named("analytics"))
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		pipeline.Config{Schema: schema},
		analytics.NewSchemaRegistrar(events),
		analytics.NewPublisher(events),
		fetcher,
		logger.Named("pipeline"),
	), nil
}

// runOnce runs exactly one publish cycle.
func runOnce(ctx context.Context, cfg appConfig, logger *zap.Logger) error {
	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rep, err := p.Cycle(ctx)
	if err != nil {
		logger.Error("cycle failed",
			zap.String("run_id", rep.RunID),
			zap.String("kind", pipeline.ErrorKind(err)),
			zap.Duration("duration", rep.Duration))
		return err
	}
	logger.Info("processing complete",
		zap.String("run_id", rep.RunID),
		zap.Int("paths", rep.Paths),
		zap.Int("samples", rep.Samples),
		zap.Duration("duration", rep.Duration))
	return nil
}

// runServe exposes the HTTP trigger API and, when configured, runs cycles on a schedule.
func runServe(ctx context.Context, cfg appConfig, logger *zap.Logger) error {
	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpserver.NewServer(cfg.APIAddr, p, logger.Named("http"))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			logger.Warn("API server shutdown", zap.Error(err))
		}
	}()

	printStartupBanner(cfg)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ScheduleInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ScheduleInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if _, err := srv.RunCycle(gctx); errors.Is(err, httpserver.ErrBusy) {
						logger.Warn("scheduled cycle skipped, previous cycle still running")
					}
				}
			}
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("\nShutting down gracefully...")
	return nil
}

func printStartupBanner(cfg appConfig) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	separator := dim.Render("    ─────────────────────────────────")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, cyan.Bold(true).Render("    metricbridge"))
	lines = append(lines, "    "+dim.Render("v"+version))
	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Endpoints"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	lines = append(lines, fmt.Sprintf("    %s  Controller     %s", check, dim.Render(cfg.ControllerURL)))
	lines = append(lines, fmt.Sprintf("    %s  Analytics      %s", check, dim.Render(cfg.AnalyticsURL)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Publishing"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Schema         %s", check, dim.Render(cfg.SchemaName)))
	if cfg.ScheduleInterval > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Schedule       %s", check, dim.Render("every "+cfg.ScheduleInterval.String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Schedule       %s", dot, dim.Render("on demand (POST /api/run)")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("environment only")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Paths File     %s", check, dim.Render(shortenPath(cfg.PathsFile))))

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
