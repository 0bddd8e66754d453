package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func withTraceContext(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func TestHTTPTracingTransport_InjectsTraceparent(t *testing.T) {
	sr := recordSpans(t)
	withTraceContext(t)

	var header string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		header = r.Header.Get("traceparent")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	req := httptest.NewRequest("GET", "http://hr.example/records/city", nil)
	resp, err := NewHTTPTracingTransport(base, TracerName).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	_ = resp.Body.Close()

	if header == "" {
		t.Error("traceparent header not injected")
	}
	if req.Header.Get("traceparent") != "" {
		t.Error("caller request must not be mutated")
	}
	if spans := sr.Ended(); len(spans) != 1 || spans[0].Name() != "GET /records/city" {
		t.Errorf("unexpected spans: %v", spans)
	}
}

func TestHTTPTracingTransport_Errors(t *testing.T) {
	tests := []struct {
		name string
		base roundTripFunc
	}{
		{"transport error", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: refused")
		}},
		{"4xx", func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: http.NoBody}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := recordSpans(t)
			req := httptest.NewRequest("GET", "http://hr.example/records/city", nil)
			resp, _ := NewHTTPTracingTransport(tt.base, TracerName).RoundTrip(req)
			if resp != nil {
				_ = resp.Body.Close()
			}
			if got := sr.Ended()[0].Status().Code; got != codes.Error {
				t.Errorf("span status = %v, want Error", got)
			}
		})
	}
}

func TestNewHTTPTracingTransport_NilBase(t *testing.T) {
	tr := NewHTTPTracingTransport(nil, TracerName)
	if tr.base != http.DefaultTransport {
		t.Error("nil base should default to http.DefaultTransport")
	}
}

func TestHTTPServerMiddleware(t *testing.T) {
	sr := recordSpans(t)
	withTraceContext(t)

	before, _ := GetCounterValue(APIRequestsTotal, "/employees/{kind}", "418")

	h := HTTPServerMiddleware(TracerName, func(*http.Request) string { return "/employees/{kind}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !trace.SpanFromContext(r.Context()).SpanContext().IsValid() {
				t.Error("handler context has no span")
			}
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	ctx, parent := StartSpan(context.Background(), "client")
	req := httptest.NewRequest("GET", "/employees/cities", nil)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	h.ServeHTTP(httptest.NewRecorder(), req)
	parent.End()

	after, _ := GetCounterValue(APIRequestsTotal, "/employees/{kind}", "418")
	if after-before != 1 {
		t.Errorf("api request counter delta = %v, want 1", after-before)
	}

	server := sr.Ended()[0]
	if server.Name() != "GET /employees/{kind}" {
		t.Errorf("span name = %q", server.Name())
	}
	if server.Parent().TraceID() != parent.SpanContext().TraceID() {
		t.Error("server span should continue the incoming trace")
	}
}
