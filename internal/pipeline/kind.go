package pipeline

import (
	"errors"

	"github.com/tinytelemetry/metricbridge/internal/analytics"
	"github.com/tinytelemetry/metricbridge/internal/normalize"
)

// Error kind labels used in logs and API responses.
const (
	KindMalformedMetric = "malformed_metric"
	KindSchemaCheck     = "schema_check"
	KindSchemaCreate    = "schema_create"
	KindPayloadTooLarge = "payload_too_large"
	KindPublish         = "publish"
	KindOther           = "other"
)

// ErrorKind classifies err into one of the Kind* labels.
func ErrorKind(err error) string {
	var merr *normalize.MalformedMetricError
	switch {
	case errors.As(err, &merr):
		return KindMalformedMetric
	case errors.Is(err, analytics.ErrSchemaCheck):
		return KindSchemaCheck
	case errors.Is(err, analytics.ErrSchemaCreate):
		return KindSchemaCreate
	case errors.Is(err, analytics.ErrPayloadTooLarge):
		return KindPayloadTooLarge
	case errors.Is(err, analytics.ErrPublish):
		return KindPublish
	default:
		return KindOther
	}
}
