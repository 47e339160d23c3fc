package normalize

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/metricbridge/internal/model"
)

func ptr(s string) *string { return &s }

func bucket(start, sum string) model.RawValueBucket {
	return model.RawValueBucket{
		StartTimeInMillis: ptr(start),
		Occurrences:       ptr("1"),
		Current:           ptr("7"),
		Min:               ptr("2"),
		Max:               ptr("9"),
		Count:             ptr("3"),
		Sum:               ptr(sum),
		Value:             ptr("5"),
	}
}

func metric(id string, buckets ...model.RawValueBucket) model.RawMetric {
	return model.RawMetric{
		MetricID:   ptr(id),
		MetricName: "cpu",
		MetricPath: "a|b|c",
		Frequency:  "ONE_MIN",
		Values:     buckets,
	}
}

func TestNormalize_Example(t *testing.T) {
	in := []model.RawPathResult{{
		Path:    "a|b|c",
		Metrics: []model.RawMetric{metric("42", bucket("1000", "10"), bucket("2000", "20"))},
	}}

	got, err := Normalize(in)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.NormalizedSample{
		MetricID: 42, MetricName: "cpu", MetricPath: "a|b|c", Frequency: "ONE_MIN",
		StartTime: 1000, Occurrences: 1, Current: 7, Min: 2, Max: 9, Count: 3, Sum: 10, Value: 5,
	}, got[0])
	assert.Equal(t, int64(42), got[1].MetricID)
	assert.Equal(t, "cpu", got[1].MetricName)
	assert.Equal(t, int64(2000), got[1].StartTime)
	assert.Equal(t, int64(20), got[1].Sum)
}

func TestNormalize_Cardinality(t *testing.T) {
	// paths x metrics x buckets
	shape := [][]int{
		{3, 0, 1},
		{},
		{2},
		{0},
	}
	var in []model.RawPathResult
	want := 0
	for p, metrics := range shape {
		pr := model.RawPathResult{Path: "p" + strconv.Itoa(p)}
		for m, n := range metrics {
			var bs []model.RawValueBucket
			for b := 0; b < n; b++ {
				bs = append(bs, bucket(strconv.Itoa(b), strconv.Itoa(p*100+m*10+b)))
			}
			pr.Metrics = append(pr.Metrics, metric(strconv.Itoa(m+1), bs...))
			want += n
		}
		in = append(in, pr)
	}

	got, err := Normalize(in)
	require.NoError(t, err)
	require.Len(t, got, want)

	// traversal order is preserved
	wantSums := []int64{0, 1, 2, 20, 200, 201}
	for i, s := range got {
		assert.Equal(t, wantSums[i], s.Sum, "sample %d", i)
	}
}

func TestNormalize_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		in   []model.RawPathResult
	}{
		{name: "nil input", in: nil},
		{name: "path without metrics", in: []model.RawPathResult{{Path: "x"}}},
		{name: "metric without buckets", in: []model.RawPathResult{{Path: "x", Metrics: []model.RawMetric{metric("1")}}}},
		{name: "metric without buckets or id", in: []model.RawPathResult{{Path: "x", Metrics: []model.RawMetric{{MetricName: "METRIC DATA NOT FOUND"}}}}},
		{name: "metric without buckets and bad id", in: []model.RawPathResult{{Path: "x", Metrics: []model.RawMetric{metric("cpu")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	b := bucket(" 1000\n", "10")
	got, err := Normalize([]model.RawPathResult{{Metrics: []model.RawMetric{metric(" 42 ", b)}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].MetricID)
	assert.Equal(t, int64(1000), got[0].StartTime)
}

func TestNormalize_Malformed(t *testing.T) {
	missingSum := bucket("1000", "10")
	missingSum.Sum = nil

	nonNumeric := bucket("1000", "10")
	nonNumeric.Max = ptr("12.5")

	tests := []struct {
		name       string
		metric     model.RawMetric
		wantField  string
		wantBucket int
	}{
		{name: "missing sum", metric: metric("42", bucket("1", "1"), missingSum), wantField: "sum", wantBucket: 1},
		{name: "non-numeric max", metric: metric("42", nonNumeric), wantField: "max", wantBucket: 0},
		{name: "bad metric id", metric: metric("cpu", bucket("1", "1")), wantField: "metricId", wantBucket: -1},
		{name: "missing metric id", metric: model.RawMetric{MetricName: "cpu", Values: []model.RawValueBucket{bucket("1", "1")}}, wantField: "metricId", wantBucket: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []model.RawPathResult{
				{Path: "ok", Metrics: []model.RawMetric{metric("1", bucket("1", "1"))}},
				{Path: "bad", Metrics: []model.RawMetric{tt.metric}},
			}
			got, err := Normalize(in)
			require.Error(t, err)
			assert.Nil(t, got)

			var merr *MalformedMetricError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, 1, merr.PathIndex)
			assert.Equal(t, "bad", merr.Path)
			assert.Equal(t, 0, merr.MetricIndex)
			assert.Equal(t, tt.wantBucket, merr.BucketIndex)
			assert.Equal(t, tt.wantField, merr.Field)
		})
	}
}

func TestMalformedMetricError_Message(t *testing.T) {
	err := &MalformedMetricError{PathIndex: 0, Path: "a|b", MetricIndex: 2, BucketIndex: 1, Field: "sum"}
	assert.Equal(t, `malformed metric: path[0] "a|b" metric[2] bucket[1]: missing field sum`, err.Error())

	_, err2 := Normalize([]model.RawPathResult{{Path: "x", Metrics: []model.RawMetric{{Values: []model.RawValueBucket{bucket("1", "1")}}}}})
	require.Error(t, err2)
	assert.Equal(t, `malformed metric: path[0] "x" metric[0]: missing field metricId`, err2.Error())
}
