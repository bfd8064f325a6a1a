package core

import (
	"context"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("github.com/hyperledger-labs/yui-lane-relayer/core")
)

// startClientSpan starts a span around a call into a race client of the lane.
func startClientSpan(ctx context.Context, laneID, spanName string, client any, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append(opts, WithLaneAttributes(laneID), withPackage(client))
	return tracer.Start(ctx, spanName, opts...)
}

// withPackage adds the package name of the client implementation `v`
func withPackage(v any) trace.SpanStartOption {
	return trace.WithAttributes(AttributeKeyPackage.String(getPackageName(v)))
}

func getPackageName(v any) string {
	if v == nil {
		return ""
	}

	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt.PkgPath()
}
