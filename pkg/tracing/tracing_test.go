package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("catalog-editor")

	assert.Equal(t, "catalog-editor", cfg.ServiceName)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.True(t, cfg.Insecure)
	assert.False(t, cfg.Enabled)
}

func TestInitTracer_DisabledIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), DefaultConfig("catalog-editor"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitTracer_InstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := DefaultConfig("catalog-editor")
	cfg.Enabled = true
	// Nothing listens here; spans are exported in the background.
	cfg.OTLPEndpoint = "127.0.0.1:1"
	cfg.SampleRate = 0.25

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestSampler(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sampledParent := trace.ContextWithRemoteSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true}))
	unsampledParent := trace.ContextWithRemoteSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, Remote: true}))

	tests := []struct {
		name   string
		rate   float64
		parent context.Context
		want   sdktrace.SamplingDecision
	}{
		{"root always", 1, context.Background(), sdktrace.RecordAndSample},
		{"root clamped above one", 3, context.Background(), sdktrace.RecordAndSample},
		{"root never", 0, context.Background(), sdktrace.Drop},
		{"root clamped below zero", -1, context.Background(), sdktrace.Drop},
		{"sampled parent wins over zero rate", 0, sampledParent, sdktrace.RecordAndSample},
		{"unsampled parent wins over full rate", 1, unsampledParent, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Sampler(tt.rate).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: tt.parent,
				TraceID:       traceID,
				Name:          "GET /api/v1/products/{id}",
			})
			assert.Equal(t, tt.want, res.Decision)
		})
	}
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer("catalog-editor/service"))
}
