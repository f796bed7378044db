package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/granformato/pedidos_backend/config"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// The upload handler opens a span and threads the derived context back
// into the request, so downstream DB calls (otelgorm) parent under it.
func TestUploadHandlerThreadsSpanContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/pedidos/abc/files", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	uploadPedidoFilesHandler(config.GetLogger())(c)

	// invalid id: rejected before any staging, but the span must already
	// be live on the request context by then
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	spanCtx := trace.SpanContextFromContext(c.Request.Context())
	if !spanCtx.IsValid() {
		t.Fatal("request context carries no span context")
	}

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(ended))
	}
	if got := ended[0].Name(); got != "uploadPedidoFiles" {
		t.Fatalf("span name = %q, want uploadPedidoFiles", got)
	}
	if ended[0].SpanContext().TraceID() != spanCtx.TraceID() {
		t.Fatal("request context span is not the recorded upload span")
	}
}
