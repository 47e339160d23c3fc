package model

import "encoding/xml"

// RawValueBucket is one time-windowed aggregate as reported by the controller.
// Every field is kept as the provider string; nil means the element was absent.
type RawValueBucket struct {
	StartTimeInMillis *string `xml:"startTimeInMillis"`
	Occurrences       *string `xml:"occurrences"`
	Current           *string `xml:"current"`
	Min               *string `xml:"min"`
	Max               *string `xml:"max"`
	Count             *string `xml:"count"`
	Sum               *string `xml:"sum"`
	Value             *string `xml:"value"`
}

// RawMetric is one metric reported for a queried path. Unknown paths come back
// as a metric with no buckets and often no metricId.
type RawMetric struct {
	MetricID   *string          `xml:"metricId"`
	MetricName string           `xml:"metricName"`
	MetricPath string           `xml:"metricPath"`
	Frequency  string           `xml:"frequency"`
	Values     []RawValueBucket `xml:"metricValues>metric-value"`
}

// RawPathResult is the decoded metric-data response for one queried path.
// A path with wildcards may report on several metrics.
type RawPathResult struct {
	XMLName xml.Name    `xml:"metric-datas"`
	Path    string      `xml:"-"` // the queried path, set by the fetcher
	Metrics []RawMetric `xml:"metric-data"`
}

// NormalizedSample is the flat record published to the events API.
// One sample is produced per RawValueBucket.
type NormalizedSample struct {
	MetricID    int64  `json:"metricId"`
	MetricName  string `json:"metricName"`
	MetricPath  string `json:"metricPath"`
	Frequency   string `json:"frequency"`
	StartTime   int64  `json:"startTime"`
	Occurrences int64  `json:"occurrences"`
	Current     int64  `json:"current"`
	Min         int64  `json:"min"`
	Max         int64  `json:"max"`
	Count       int64  `json:"count"`
	Sum         int64  `json:"sum"`
	Value       int64  `json:"value"`
}

// SchemaDescriptor is the named field->type contract registered with the events API.
// It is loaded once and treated as read-only afterwards.
type SchemaDescriptor struct {
	Name   string
	Fields map[string]string
}
