package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var showVersion bool
	var serve bool

	flag.StringVar(&configPath, "config", "", "config file (default is "+defaultConfigPath+")")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&serve, "serve", false, "serve the HTTP trigger API instead of running one cycle")
	flag.Parse()

	if showVersion {
		fmt.Printf("metricbridge - controller metrics to analytics events\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return 0
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		err = runServe(ctx, cfg, logger)
	} else {
		err = runOnce(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("metricbridge failed", zap.Error(err))
		return 1
	}
	return 0
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("METRICBRIDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	for key, val := range configDefaults {
		v.SetDefault(key, val)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if configPath != "" || (!errors.As(err, &configFileNotFound) && !os.IsNotExist(err)) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	required := map[string]string{
		"appd_controller_url":      c.ControllerURL,
		"appd_api_client_name":     c.APIClientName,
		"appd_api_client_secret":   c.APIClientSecret,
		"appd_analytics_url":       c.AnalyticsURL,
		"appd_global_account_name": c.GlobalAccountName,
		"appd_events_api_key":      c.EventsAPIKey,
		"schema_name":              c.SchemaName,
	}
	var missing []string
	for key, val := range required {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.DurationInMins <= 0 {
		return fmt.Errorf("invalid duration_in_mins: %d", c.DurationInMins)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout: %s", c.RequestTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests_per_second: %v", c.RequestsPerSecond)
	}
	if c.ScheduleInterval < 0 {
		return fmt.Errorf("invalid schedule_interval: %s", c.ScheduleInterval)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (want console or json)", c.LogFormat)
	}
	return nil
}
