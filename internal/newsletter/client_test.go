package newsletter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *newsletter.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := newsletter.NewClient(srv.URL, "buttondown")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_PostsEmailAndConsent(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	consent := true
	res, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com", Consent: &consent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rejected() {
		t.Fatalf("result = %+v, want success", res)
	}
	if gotPath != "/api/buttondown" {
		t.Errorf("path = %q, want /api/buttondown", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q, want application/json", gotContentType)
	}
	if gotBody["email"] != "user@example.com" || gotBody["consent"] != true {
		t.Errorf("body = %v, want email and consent=true", gotBody)
	}
}

func TestClient_OmitsConsentWhenNil(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gotBody["consent"]; ok {
		t.Errorf("body = %v, consent should be absent", gotBody)
	}
}

func TestClient_ErrorFieldIsRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Email is already subscribed"}`))
	})

	res, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Rejected() || res.Message != "Email is already subscribed" {
		t.Fatalf("result = %+v, want rejection with server message", res)
	}
}

func TestClient_EmptyErrorFieldIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":""}`))
	})

	res, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rejected() {
		t.Fatalf("result = %+v, want success", res)
	}
}

func TestClient_Non2xxWithoutErrorFieldIsRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	res, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Rejected() || res.Message != http.StatusText(http.StatusServiceUnavailable) {
		t.Fatalf("result = %+v, want rejection with status text", res)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if !errors.Is(err, newsletter.ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse, got %v", err)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := newsletter.NewClient(url, "buttondown",
		newsletter.WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if !errors.Is(err, newsletter.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

func TestClient_HTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := newsletter.NewClient(srv.URL, "buttondown",
		newsletter.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"})
	if !errors.Is(err, newsletter.ErrTransport) {
		t.Fatalf("want ErrTransport after timeout, got %v", err)
	}
}

func newTracedClient(t *testing.T, url string) (*newsletter.Client, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, err := newsletter.NewClient(url, "buttondown", newsletter.WithTracerProvider(tp))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, rec
}

func onlySpan(t *testing.T, rec *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	return spans[0]
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestClient_TracesSubscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Email is already subscribed"}`)
	}))
	t.Cleanup(srv.Close)
	c, rec := newTracedClient(t, srv.URL)

	if _, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := onlySpan(t, rec)
	if span.Name() != "newsletter.subscribe" {
		t.Errorf("name = %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindClient {
		t.Errorf("kind = %v, want client", span.SpanKind())
	}
	if v, ok := attr(span, "newsletter.provider"); !ok || v.AsString() != "buttondown" {
		t.Errorf("provider attribute = %v, %v", v.Emit(), ok)
	}
	if v, ok := attr(span, "newsletter.rejected"); !ok || !v.AsBool() {
		t.Errorf("rejected attribute = %v, %v", v.Emit(), ok)
	}
	if span.Status().Code == codes.Error {
		t.Error("a rejection is not a span error")
	}
}

func TestClient_TracesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	c, rec := newTracedClient(t, url)

	if _, err := c.Subscribe(context.Background(), newsletter.Request{Email: "user@example.com"}); !errors.Is(err, newsletter.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}

	span := onlySpan(t, rec)
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want error", span.Status().Code)
	}
	if len(span.Events()) == 0 || span.Events()[0].Name != "exception" {
		t.Errorf("events = %+v, want recorded exception", span.Events())
	}
}

func TestNewClient_RequiresProvider(t *testing.T) {
	if _, err := newsletter.NewClient("http://localhost", ""); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestNewClient_JoinsEndpoint(t *testing.T) {
	c, err := newsletter.NewClient("https://blog.example.com/", "resend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Endpoint(); got != "https://blog.example.com/api/resend" {
		t.Errorf("endpoint = %q", got)
	}
}
