package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordQuerySpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]string {
	m := make(map[attribute.Key]string)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value.Emit()
	}
	return m
}

func TestTraceQuery_Outcome(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvents int
	}{
		{"success", nil, codes.Unset, 0},
		{"no rows", pgx.ErrNoRows, codes.Unset, 0},
		{"wrapped no rows", errors.Join(errors.New("get document"), pgx.ErrNoRows), codes.Unset, 0},
		{"failure", errors.New("connection refused"), codes.Error, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := recordQuerySpans(t)

			_, end := TraceQuery(context.Background(), "GetDocument",
				"SELECT data FROM products WHERE id = $1",
				attribute.String("document.id", "drafts.p-1"))
			end(tt.err)

			ended := spans.Ended()
			require.Len(t, ended, 1)
			span := ended[0]

			assert.Equal(t, "db.GetDocument", span.Name())
			assert.Equal(t, tt.wantStatus, span.Status().Code)
			assert.Len(t, span.Events(), tt.wantEvents)

			attrs := attrMap(span)
			assert.Equal(t, "postgresql", attrs["db.system"])
			assert.Equal(t, "GetDocument", attrs["db.operation"])
			assert.Equal(t, "SELECT data FROM products WHERE id = $1", attrs["db.statement"])
			assert.Equal(t, "drafts.p-1", attrs["document.id"])
		})
	}
}

func TestTraceQuery_NestsUnderCaller(t *testing.T) {
	spans := recordQuerySpans(t)

	ctx, parent := otel.Tracer("catalog-test").Start(context.Background(), "ValidateField")
	_, end := TraceQuery(ctx, "CountSKUUsage", "SELECT count(*) FROM sku_registry WHERE sku = $1")
	end(nil)
	parent.End()

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSlowQueryLogging(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		useLogger bool
		err       error
		want      []string
	}{
		{"slow query", time.Nanosecond, true, nil, []string{"slow query detected", "ListProducts", "SELECT id FROM products"}},
		{"slow failing query", time.Nanosecond, true, errors.New("deadlock detected"), []string{"slow query detected", "deadlock detected"}},
		{"fast query", time.Hour, true, nil, nil},
		{"disabled", 0, true, nil, nil},
		{"nil logger", time.Nanosecond, false, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recordQuerySpans(t)
			var out syncBuffer
			var logger *slog.Logger
			if tt.useLogger {
				logger = slog.New(slog.NewJSONHandler(&out, nil))
			}
			SetSlowQueryLogging(tt.threshold, logger)
			t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

			_, end := TraceQuery(context.Background(), "ListProducts", "SELECT id FROM products")
			end(tt.err)

			if tt.want == nil {
				assert.Empty(t, out.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestSetSlowQueryLogging_ConcurrentWithQueries(t *testing.T) {
	recordQuerySpans(t)
	logger := slog.New(slog.NewJSONHandler(&syncBuffer{}, nil))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetSlowQueryLogging(time.Nanosecond, logger)
		}()
		go func() {
			defer wg.Done()
			_, end := TraceQuery(context.Background(), "GetDocument", "SELECT 1")
			end(nil)
		}()
	}
	wg.Wait()
}
