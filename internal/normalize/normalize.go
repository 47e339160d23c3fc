// Package normalize flattens controller metric-data into publishable samples.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

// MalformedMetricError reports a raw field that is missing or not a base-10 integer.
// BucketIndex is -1 when the offending field belongs to the metric itself.
type MalformedMetricError struct {
	PathIndex   int
	Path        string
	MetricIndex int
	BucketIndex int
	Field       string
	Value       string
	Err         error
}

func (e *MalformedMetricError) Error() string {
	loc := fmt.Sprintf("path[%d] %q metric[%d]", e.PathIndex, e.Path, e.MetricIndex)
	if e.BucketIndex >= 0 {
		loc += fmt.Sprintf(" bucket[%d]", e.BucketIndex)
	}
	if e.Err == nil {
		return fmt.Sprintf("malformed metric: %s: missing field %s", loc, e.Field)
	}
	return fmt.Sprintf("malformed metric: %s: field %s=%q: %v", loc, e.Field, e.Value, e.Err)
}

func (e *MalformedMetricError) Unwrap() error { return e.Err }

// Normalize emits one sample per value bucket, in path -> metric -> bucket order.
// It fails fast on the first malformed field and returns no samples in that case.
func Normalize(results []model.RawPathResult) ([]model.NormalizedSample, error) {
	var samples []model.NormalizedSample
	for pi, pr := range results {
		for mi, m := range pr.Metrics {
			if len(m.Values) == 0 {
				continue
			}
			loc := location{pathIndex: pi, path: pr.Path, metricIndex: mi, bucketIndex: -1}

			id, err := loc.parse("metricId", m.MetricID)
			if err != nil {
				return nil, err
			}

			for bi, b := range m.Values {
				loc.bucketIndex = bi
				s, err := loc.sample(b)
				if err != nil {
					return nil, err
				}
				s.MetricID = id
				s.MetricName = m.MetricName
				s.MetricPath = m.MetricPath
				s.Frequency = m.Frequency
				samples = append(samples, s)
			}
		}
	}
	return samples, nil
}

type location struct {
	pathIndex   int
	path        string
	metricIndex int
	bucketIndex int
}

func (l location) sample(b model.RawValueBucket) (model.NormalizedSample, error) {
	var s model.NormalizedSample
	fields := []struct {
		name string
		raw  *string
		dst  *int64
	}{
		{"startTimeInMillis", b.StartTimeInMillis, &s.StartTime},
		{"occurrences", b.Occurrences, &s.Occurrences},
		{"current", b.Current, &s.Current},
		{"min", b.Min, &s.Min},
		{"max", b.Max, &s.Max},
		{"count", b.Count, &s.Count},
		{"sum", b.Sum, &s.Sum},
		{"value", b.Value, &s.Value},
	}
	for _, f := range fields {
		v, err := l.parse(f.name, f.raw)
		if err != nil {
			return model.NormalizedSample{}, err
		}
		*f.dst = v
	}
	return s, nil
}

func (l location) parse(field string, raw *string) (int64, error) {
	if raw == nil {
		return 0, l.malformed(field, "", nil)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
	if err != nil {
		return 0, l.malformed(field, *raw, err)
	}
	return v, nil
}

func (l location) malformed(field, value string, err error) *MalformedMetricError {
	return &MalformedMetricError{
		PathIndex:   l.pathIndex,
		Path:        l.path,
		MetricIndex: l.metricIndex,
		BucketIndex: l.bucketIndex,
		Field:       field,
		Value:       value,
		Err:         err,
	}
}
