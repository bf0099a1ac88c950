package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"coffeereg/internal/platform/tracer"
)

func TestNoopTracerReturnsSameContext(t *testing.T) {
	ctx := context.Background()
	got, span := tracer.NewNoop().Start(ctx, tracer.SpanVerifyCapture, tracer.String(tracer.AttrRegistrationID, "CFC20251"))

	assert.Equal(t, ctx, got)
	require.NotNil(t, span)
	span.AddEvent(tracer.EventSignatureRejected)
	span.End(errors.New("signature mismatch"))
}

func TestOTelTracerWithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanWebhook,
		tracer.String(tracer.AttrOrderID, "order_1"),
		tracer.Bool(tracer.AttrFirstSuccess, true),
		tracer.Int64("attempt", 2),
		tracer.Float64("amount", 1180),
	)
	span.SetAttributes(tracer.String(tracer.AttrPaymentStatus, "success"))
	span.End(nil)
}

func TestHashIdentifier(t *testing.T) {
	assert.Empty(t, tracer.HashIdentifier(""))

	a := tracer.HashIdentifier("123456789012")
	assert.Len(t, a, 16)
	assert.Equal(t, a, tracer.HashIdentifier("123456789012"))
	assert.NotEqual(t, a, tracer.HashIdentifier("123456789013"))
}
