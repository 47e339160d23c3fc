package main

import (
	"time"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

const (
	defaultConfigPath       = "conf/config.json"
	defaultSchemaFile       = "conf/schema.json"
	defaultPathsFile        = "conf/paths.txt"
	defaultControllerAcct   = "customer1"
	defaultAPIAddr          = "127.0.0.1:3000"
	defaultScheduleInterval = 0 // disabled
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// appConfig is internal runtime configuration.
// Keys match the conf/config.json layout the bridge has always read.
type appConfig struct {
	ControllerURL     string        `mapstructure:"appd_controller_url"`
	ControllerAccount string        `mapstructure:"appd_controller_account"`
	APIClientName     string        `mapstructure:"appd_api_client_name"`
	APIClientSecret   string        `mapstructure:"appd_api_client_secret"`
	AnalyticsURL      string        `mapstructure:"appd_analytics_url"`
	GlobalAccountName string        `mapstructure:"appd_global_account_name"`
	EventsAPIKey      string        `mapstructure:"appd_events_api_key"`
	SchemaName        string        `mapstructure:"schema_name"`
	SchemaFile        string        `mapstructure:"schema_file"`
	PathsFile         string        `mapstructure:"paths_file"`
	Application       string        `mapstructure:"application"`
	DurationInMins    int           `mapstructure:"duration_in_mins"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	APIAddr           string        `mapstructure:"api_addr"`
	ScheduleInterval  time.Duration `mapstructure:"schedule_interval"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	ConfigPath        string        `mapstructure:"-"` // not from config file
}

var configDefaults = map[string]any{
	"appd_controller_url":      "",
	"appd_controller_account":  defaultControllerAcct,
	"appd_api_client_name":     "",
	"appd_api_client_secret":   "",
	"appd_analytics_url":       "",
	"appd_global_account_name": "",
	"appd_events_api_key":      "",
	"schema_name":              model.DefaultSchemaName,
	"schema_file":              defaultSchemaFile,
	"paths_file":               defaultPathsFile,
	"application":              model.DefaultApplication,
	"duration_in_mins":         model.DefaultDurationInMins,
	"request_timeout":          model.DefaultRequestTimeout,
	"requests_per_second":      model.DefaultRequestsPerSec,
	"api_addr":                 defaultAPIAddr,
	"schedule_interval":        defaultScheduleInterval,
	"log_level":                defaultLogLevel,
	"log_format":               defaultLogFormat,
}
