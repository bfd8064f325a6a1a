package core

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttributeKeyLaneID       = attribute.Key("lane_id")
	AttributeKeyBegin        = attribute.Key("begin")
	AttributeKeyEnd          = attribute.Key("end")
	AttributeKeyHeaderNumber = attribute.Key("number")
	AttributeKeyPackage      = attribute.Key("package")
)

// AttributeGroup prefixes the given key to all attributes.
//
// For example, if the key is "foo" and the key of an attribute is "bar", the new key will be "foo.bar".
func AttributeGroup(key string, attributes ...attribute.KeyValue) []attribute.KeyValue {
	newAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for _, attr := range attributes {
		newAttrs = append(newAttrs, attribute.KeyValue{
			Key:   attribute.Key(key + "." + string(attr.Key)),
			Value: attr.Value,
		})

	}
	return newAttrs
}

func WithLaneAttributes(laneID string) trace.SpanStartOption {
	return trace.WithAttributes(AttributeKeyLaneID.String(laneID))
}

// WithNoncesAttributes adds the bounds of a nonces range.
// The bounds are converted to int64 because the attribute package does not support uint64.
func WithNoncesAttributes(nonces NonceInterval) trace.SpanStartOption {
	return trace.WithAttributes(AttributeGroup("nonces",
		AttributeKeyBegin.Int64(int64(nonces.Begin())),
		AttributeKeyEnd.Int64(int64(nonces.End())),
	)...)
}

// WithHeaderAttributes adds the number of a header under the given group key.
func WithHeaderAttributes(key string, id HeaderID) trace.SpanStartOption {
	return trace.WithAttributes(AttributeGroup(key,
		AttributeKeyHeaderNumber.Int64(int64(id.Number)),
	)...)
}
