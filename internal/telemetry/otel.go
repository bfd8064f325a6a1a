package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	name        = "github.com/hyperledger-labs/yui-lane-relayer"
	serviceName = "yui-lane-relayer"

	// OTEL_PROPAGATORS is not read by the Go SDK itself
	propagatorsKey     = "OTEL_PROPAGATORS"
	defaultPropagators = "tracecontext,baggage"

	// cf. https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/#exporter-selection
	tracesExporterKey  = "OTEL_TRACES_EXPORTER"
	metricsExporterKey = "OTEL_METRICS_EXPORTER"
	logsExporterKey    = "OTEL_LOGS_EXPORTER"
	defaultExporter    = "otlp"

	// cf. https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/#prometheus-exporter
	prometheusHostKey     = "OTEL_EXPORTER_PROMETHEUS_HOST"
	prometheusPortKey     = "OTEL_EXPORTER_PROMETHEUS_PORT"
	defaultPrometheusHost = "localhost"
	defaultPrometheusPort = "9464"

	consoleTracesWriterKey  = "OTEL_EXPORTER_CONSOLE_TRACES_WRITER"
	consoleLogsWriterKey    = "OTEL_EXPORTER_CONSOLE_LOGS_WRITER"
	consoleMetricsWriterKey = "OTEL_EXPORTER_CONSOLE_METRICS_WRITER"
	defaultConsoleWriter    = "stdout"
)

// signal is one of the telemetry signals with its exporter selection.
type signal struct {
	envKey        string
	exporters     []string
	consoleWriter io.Writer
}

// Settings is the telemetry pipeline resolved from the environment.
type Settings struct {
	Propagators    []string
	Traces         signal
	Metrics        signal
	Logs           signal
	PrometheusAddr string
}

// SettingsFromEnv resolves the pipeline from the OTEL_* environment variables.
// Unknown values are reported as errors instead of being ignored.
func SettingsFromEnv() (Settings, error) {
	var s Settings
	var err error

	s.Propagators = splitEnv(propagatorsKey, defaultPropagators)
	if s.Traces, err = newSignal(tracesExporterKey, consoleTracesWriterKey); err != nil {
		return Settings{}, err
	}
	if s.Metrics, err = newSignal(metricsExporterKey, consoleMetricsWriterKey); err != nil {
		return Settings{}, err
	}
	if s.Logs, err = newSignal(logsExporterKey, consoleLogsWriterKey); err != nil {
		return Settings{}, err
	}
	s.PrometheusAddr = fmt.Sprintf("%s:%s",
		getEnv(prometheusHostKey, defaultPrometheusHost),
		getEnv(prometheusPortKey, defaultPrometheusPort),
	)
	return s, nil
}

func newSignal(exporterKey, writerKey string) (signal, error) {
	sig := signal{envKey: exporterKey, exporters: splitEnv(exporterKey, defaultExporter)}
	for _, exporter := range sig.exporters {
		if exporter != "console" {
			continue
		}
		w, err := getWriter(writerKey)
		if err != nil {
			return signal{}, err
		}
		sig.consoleWriter = w
	}
	return sig, nil
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline from the environment.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func SetupOTelSDK(ctx context.Context) (shutdown func(context.Context) error, err error) {
	s, err := SettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return Setup(ctx, s)
}

// Setup installs the global propagator and the tracer, meter and logger providers.
func Setup(ctx context.Context, s Settings) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	fail := func(inErr error) (func(context.Context) error, error) {
		return nil, errors.Join(inErr, shutdown(ctx))
	}

	prop, err := newPropagator(s.Propagators)
	if err != nil {
		return fail(err)
	}
	otel.SetTextMapPropagator(prop)

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return fail(fmt.Errorf("failed to build the resource: %v", err))
	}

	tracerProvider, err := newTracerProvider(ctx, s.Traces, res)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, s.Metrics, s.PrometheusAddr, res)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx, s.Logs, res)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

func getEnv(envName, defaultValue string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return defaultValue
}

func splitEnv(envName, defaultValue string) []string {
	var values []string
	for _, v := range strings.Split(getEnv(envName, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getWriter(envName string) (io.Writer, error) {
	switch v := getEnv(envName, defaultConsoleWriter); v {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("unknown writer: %q from %s", v, envName)
	}
}

func unsupportedExporter(sig signal, exporter string) error {
	return fmt.Errorf("unsupported exporter: %q from %s=%q", exporter, sig.envKey, os.Getenv(sig.envKey))
}

func newPropagator(names []string) (propagation.TextMapPropagator, error) {
	var propagators []propagation.TextMapPropagator
	for _, propagator := range names {
		switch propagator {
		case "tracecontext":
			propagators = append(propagators, propagation.TraceContext{})
		case "baggage":
			propagators = append(propagators, propagation.Baggage{})
		default:
			return nil, fmt.Errorf("unsupported propagator: %q from %s", propagator, propagatorsKey)
		}
	}
	return propagation.NewCompositeTextMapPropagator(propagators...), nil
}

func newTracerProvider(ctx context.Context, sig signal, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exporter := range sig.exporters {
		var exp sdktrace.SpanExporter
		var err error
		switch exporter {
		case "otlp":
			exp, err = otlptracegrpc.New(ctx)
		case "console":
			exp, err = stdouttrace.New(stdouttrace.WithWriter(sig.consoleWriter))
		case "none":
			continue
		default:
			return nil, unsupportedExporter(sig, exporter)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, sig signal, prometheusAddr string, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, exporter := range sig.exporters {
		switch exporter {
		case "otlp":
			exp, err := otlpmetricgrpc.New(ctx)
			if err != nil {
				return nil, err
			}
			opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		case "console":
			exp, err := stdoutmetric.New(stdoutmetric.WithWriter(sig.consoleWriter))
			if err != nil {
				return nil, err
			}
			opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		case "prometheus":
			exp, err := NewPrometheusExporter(prometheusAddr)
			if err != nil {
				return nil, err
			}
			opts = append(opts, sdkmetric.WithReader(exp))
		case "none":
		default:
			return nil, unsupportedExporter(sig, exporter)
		}
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, sig signal, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exporter := range sig.exporters {
		var exp sdklog.Exporter
		var err error
		switch exporter {
		case "otlp":
			exp, err = otlploggrpc.New(ctx)
		case "console":
			exp, err = stdoutlog.New(stdoutlog.WithWriter(sig.consoleWriter))
		case "none":
			continue
		default:
			return nil, unsupportedExporter(sig, exporter)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)))
	}
	return sdklog.NewLoggerProvider(opts...), nil
}
