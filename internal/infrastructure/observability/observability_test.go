package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

func TestInitLogger_JSON(t *testing.T) {
	original := log.Logger
	defer func() { log.Logger = original }()

	var buf bytes.Buffer
	initLogger(&buf, "reclassify", "production")

	GetLogger().Info().Str("category", "cough-cold").Msg("classified")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reclassify", entry["service"])
	assert.Equal(t, "cough-cold", entry["category"])
	assert.Equal(t, "classified", entry["message"])
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	original := log.Logger
	defer func() { log.Logger = original }()

	var buf bytes.Buffer
	initLogger(&buf, "reclassify", "production")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	LoggerFromContext(ctx).Info().Msg("with trace")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestMetrics_RecordClassification(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	RecordClassification(ctx, metrics, "cough-cold", 7, false)
	RecordClassification(ctx, metrics, "uncategorized", 0, true)
	RecordCategoryChange(ctx, metrics, "uncategorized", "cough-cold")
	RecordReclassifyRun(ctx, metrics, "fallback", 1500*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["classifier.records.classified"])
	assert.Equal(t, int64(1), sums["classifier.fallback.count"])
	assert.Equal(t, int64(1), sums["reclassify.changes"])
	assert.True(t, seen["classifier.score"])
	assert.True(t, seen["reclassify.duration"])
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordClassification(ctx, nil, "x", 1, false)
		RecordCategoryChange(ctx, nil, "a", "b")
		RecordReclassifyRun(ctx, nil, "all", time.Second)
	})
}
