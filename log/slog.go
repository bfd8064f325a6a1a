package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const otelLoggerName = "github.com/hyperledger-labs/yui-lane-relayer"

type RelayLogger struct {
	*slog.Logger
}

var relayLogger *RelayLogger

// InitLogger sets the global logger. When enableTelemetry is true, records are also
// forwarded to the global OpenTelemetry LoggerProvider.
func InitLogger(logLevel, format, output string, enableTelemetry bool) error {
	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		return errors.New("invalid log output")
	}
	return InitLoggerWithWriter(logLevel, format, writer, enableTelemetry)
}

func InitLoggerWithWriter(logLevel, format string, writer io.Writer, enableTelemetry bool) error {
	var slogLevel slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "INFO":
		slogLevel = slog.LevelInfo
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		return errors.New("invalid log level")
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: true,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return errors.New("invalid log format")
	}

	if enableTelemetry {
		handler = slogmulti.Fanout(handler, otelslog.NewHandler(otelLoggerName))
	}

	relayLogger = &RelayLogger{slog.New(handler)}
	return nil
}

// GetLogger returns the global logger, or a logger on top of slog.Default if
// InitLogger has not been called yet.
func GetLogger() *RelayLogger {
	if relayLogger == nil {
		return &RelayLogger{slog.Default()}
	}
	return relayLogger
}

func (rl *RelayLogger) log(ctx context.Context, level slog.Level, skip int, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !rl.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(skip+2, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = rl.Handler().Handle(ctx, r)
}

func (rl *RelayLogger) Error(msg string, err error, otherArgs ...any) {
	rl.log(context.Background(), slog.LevelError, 1, msg, append([]any{"error", err}, otherArgs...)...)
}

func (rl *RelayLogger) ErrorContext(ctx context.Context, msg string, err error, otherArgs ...any) {
	rl.log(ctx, slog.LevelError, 1, msg, append([]any{"error", err}, otherArgs...)...)
}

func (rl *RelayLogger) ErrorWithStack(msg string, err error, otherArgs ...any) {
	cError := errors.WithStackDepth(err, 1)
	args := append([]any{"error", err, "stack", fmt.Sprintf("%+v", cError)}, otherArgs...)
	rl.log(context.Background(), slog.LevelError, 1, msg, args...)
}

func (rl *RelayLogger) Fatal(msg string, err error, otherArgs ...any) {
	rl.log(context.Background(), slog.LevelError, 1, msg, append([]any{"error", err}, otherArgs...)...)
	os.Exit(1)
}

func (rl *RelayLogger) WithModule(
	moduleName string,
) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"module", moduleName,
		),
	}
}

func (rl *RelayLogger) WithLane(
	laneID string,
) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"lane id", laneID,
		),
	}
}

func (rl *RelayLogger) WithChains(
	sourceChainID string,
	targetChainID string,
) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"source chain id", sourceChainID,
			"target chain id", targetChainID,
		),
	}
}
