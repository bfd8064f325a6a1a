package telemetry

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInt64SyncGauge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	gauge, err := NewInt64SyncGauge(provider.Meter("test"), "test.gauge")
	require.NoError(t, err)

	gauge.Set(1, LaneAttributes("00000001")...)
	gauge.Set(5, LaneAttributes("00000001")...)
	gauge.Set(7, LaneAttributes("00000002")...)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	data, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Gauge[int64])
	require.True(t, ok)

	values := make(map[string]int64)
	for _, dp := range data.DataPoints {
		laneID, ok := dp.Attributes.Value(attributeKeyLaneID)
		require.True(t, ok)
		values[laneID.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"00000001": 5, "00000002": 7}, values)
}

func TestSetupOTelSDK(t *testing.T) {
	t.Run("no exporters", func(t *testing.T) {
		t.Setenv(tracesExporterKey, "none")
		t.Setenv(metricsExporterKey, "none")
		t.Setenv(logsExporterKey, "none")

		shutdown, err := SetupOTelSDK(context.Background())
		require.NoError(t, err)
		require.NoError(t, InitializeMetrics())
		assert.NotNil(t, BestNonceAtSourceGauge)
		assert.NotNil(t, RotationsCounter)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("unsupported exporter", func(t *testing.T) {
		t.Setenv(tracesExporterKey, "zipkin")
		t.Setenv(metricsExporterKey, "none")
		t.Setenv(logsExporterKey, "none")

		_, err := SetupOTelSDK(context.Background())
		assert.ErrorContains(t, err, "unsupported exporter")
	})

	t.Run("unsupported propagator", func(t *testing.T) {
		t.Setenv(propagatorsKey, "b3")

		_, err := SetupOTelSDK(context.Background())
		assert.ErrorContains(t, err, "unsupported propagator")
	})
}

func TestSettingsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{propagatorsKey, tracesExporterKey, prometheusHostKey, prometheusPortKey} {
			t.Setenv(key, "")
		}
		s, err := SettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"tracecontext", "baggage"}, s.Propagators)
		assert.Equal(t, []string{"otlp"}, s.Traces.exporters)
		assert.Equal(t, "localhost:9464", s.PrometheusAddr)
	})

	t.Run("console and prometheus", func(t *testing.T) {
		t.Setenv(tracesExporterKey, "console, none")
		t.Setenv(consoleTracesWriterKey, "stderr")
		t.Setenv(metricsExporterKey, "prometheus")
		t.Setenv(prometheusPortKey, "19464")

		s, err := SettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"console", "none"}, s.Traces.exporters)
		assert.Equal(t, os.Stderr, s.Traces.consoleWriter)
		assert.Equal(t, []string{"prometheus"}, s.Metrics.exporters)
		assert.Equal(t, "localhost:19464", s.PrometheusAddr)
	})

	t.Run("unknown writer", func(t *testing.T) {
		t.Setenv(logsExporterKey, "console")
		t.Setenv(consoleLogsWriterKey, "file")

		_, err := SettingsFromEnv()
		assert.ErrorContains(t, err, "unknown writer")
	})
}
