// Package tracer is a thin tracing seam for the payment flow. Services depend
// on the Tracer interface; production wires OpenTelemetry and tests use the
// no-op implementation.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanVerifyCapture,
//	    tracer.String(tracer.AttrRegistrationID, regID),
//	)
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashIdentifier shortens a personal identifier (national ID, email) to a
// stable digest so spans can be correlated without carrying PII.
func HashIdentifier(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

const (
	SpanCreateOrder     = "payment.create_order"
	SpanVerifyCapture   = "payment.verify_capture"
	SpanWebhook         = "payment.webhook"
	SpanReconcile       = "payment.reconcile"
	SpanGatewayCall     = "gateway.call"
	SpanNotificationRun = "notification.send"
)

const (
	AttrRegistrationID = "registration.id"
	AttrOrderID        = "payment.order_id"
	AttrPaymentID      = "payment.id"
	AttrGatewayStatus  = "payment.gateway_status"
	AttrPaymentStatus  = "payment.status"
	AttrFirstSuccess   = "payment.first_success"
	AttrGatewayOp      = "gateway.operation"
	AttrWebhookEvent   = "webhook.event"
	AttrEmailHash      = "notification.email_hash"
	AttrErrorCode      = "error.code"
)

const (
	EventSignatureRejected = "signature.rejected"
	EventStaleUpdate       = "registration.stale_update"
	EventNotificationSent  = "notification.sent"
)
