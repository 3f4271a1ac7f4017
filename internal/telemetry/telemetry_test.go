package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv("BACKLOGGER_OTEL_ENABLED", "")
	if Enabled() {
		t.Fatal("telemetry should be off without BACKLOGGER_OTEL_ENABLED")
	}
	if err := Init(context.Background(), "backlogger", "test"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := Start(context.Background(), "noop")
	End(span, nil)
	Shutdown(context.Background())
}

func TestSpansExported(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(context.Background(), "backlogger", "test", &buf)
	if err != nil {
		t.Fatalf("NewTracerProvider: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "backlogger.query")
	span.SetAttributes(attribute.String("query.title", "Untriaged"))
	End(span, errors.New("tracker unreachable"))

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"backlogger.query", "Untriaged", "tracker unreachable"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported spans missing %q:\n%s", want, out)
		}
	}
}
