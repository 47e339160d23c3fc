package model

import "context"

// MetricSource produces the raw per-path results for one publish cycle.
type MetricSource interface {
	FetchAll(ctx context.Context) ([]RawPathResult, error)
}
