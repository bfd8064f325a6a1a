package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"

	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

const (
	namespaceRoot = "relayer"
	namespaceLane = namespaceRoot + ".lane"

	attributeKeyLaneID = attribute.Key("lane_id")
)

var (
	BestNonceAtSourceGauge *Int64SyncGauge
	BestNonceAtTargetGauge *Int64SyncGauge
	NoncesSubmittedCounter api.Int64Counter
	RotationsCounter       api.Int64Counter

	meter = otel.Meter(name)
)

func InitializeMetrics() error {
	var err error

	// create the instrument "relayer.lane.best_nonce_at_source"
	name := fmt.Sprintf("%s.best_nonce_at_source", namespaceLane)
	if BestNonceAtSourceGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("best message nonce generated at the source chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.lane.best_nonce_at_target"
	name = fmt.Sprintf("%s.best_nonce_at_target", namespaceLane)
	if BestNonceAtTargetGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("best message nonce delivered to the target chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.lane.nonces_submitted"
	name = fmt.Sprintf("%s.nonces_submitted", namespaceLane)
	if NoncesSubmittedCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of message nonces submitted to the target chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.lane.rotations"
	name = fmt.Sprintf("%s.rotations", namespaceLane)
	if RotationsCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of relayer set rotations"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	return nil
}

// LaneAttributes returns the attributes that identify a lane in metrics.
func LaneAttributes(laneID string) []attribute.KeyValue {
	return []attribute.KeyValue{attributeKeyLaneID.String(laneID)}
}

func WithLaneAttributes(laneID string) api.MeasurementOption {
	return api.WithAttributes(LaneAttributes(laneID)...)
}

// NewPrometheusHandler returns the handler that serves the metrics for Prometheus.
func NewPrometheusHandler() http.Handler {
	return otelhttp.NewHandler(promhttp.Handler(), "metrics")
}

func NewPrometheusExporter(addr string) (*prometheus.Exporter, error) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", NewPrometheusHandler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger := log.GetLogger().WithModule("telemetry.metrics")
			logger.Fatal("Prometheus exporter server failed", err)
		}
	}()

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create the Prometheus Exporter: %v", err)
	}

	return exporter, nil
}
