package model

import "time"

// Shared defaults used by the CLI and the HTTP trigger surface.
const (
	DefaultSchemaName     = "prometheus_events"
	DefaultApplication    = "Server & Infrastructure Monitoring"
	DefaultDurationInMins = 60
	DefaultRequestTimeout = 30 * time.Second
	DefaultRequestsPerSec = 5.0

	// EventsContentType is the media type the events API expects on every call.
	EventsContentType = "application/vnd.appd.events+json;v=2"
)
