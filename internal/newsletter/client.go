package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrTransport         = errors.New("subscription request failed")
	ErrMalformedResponse = errors.New("malformed subscription response")
)

const (
	defaultTimeout = 10 * time.Second
	tracerName     = "github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 64 << 10

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
)

// Result is what the endpoint said: success, or rejection with a message.
type Result struct {
	Outcome Outcome
	Message string
}

func (r Result) Rejected() bool { return r.Outcome == OutcomeRejected }

type Request struct {
	Email   string
	Consent *bool // nil leaves consent out of the body
}

type requestBody struct {
	Email   string `json:"email"`
	Consent *bool  `json:"consent,omitempty"`
}

type responseBody struct {
	Error *string `json:"error"`
}

// Client posts subscriptions to {baseURL}/api/{provider}.
type Client struct {
	http     *http.Client
	endpoint string
	provider string
	tracer   trace.Tracer
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.http = c }
}

// WithTracerProvider replaces the global otel provider for this client.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(cl *Client) { cl.tracer = tp.Tracer(tracerName) }
}

func NewClient(baseURL, provider string, opts ...ClientOption) (*Client, error) {
	if provider == "" {
		return nil, errors.New("newsletter provider is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	endpoint := base.JoinPath("api", provider)

	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: endpoint.String(),
		provider: provider,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Subscribe sends the request and interprets the JSON reply. A non-empty
// "error" field is a rejection; its absence is success. Failures to reach
// the endpoint wrap ErrTransport, unreadable bodies wrap ErrMalformedResponse.
func (c *Client) Subscribe(ctx context.Context, req Request) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "newsletter.subscribe",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("newsletter.provider", c.provider)),
	)
	defer span.End()

	res, err := c.do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	if res.Rejected() {
		span.SetAttributes(attribute.Bool("newsletter.rejected", true))
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(requestBody{Email: req.Email, Consent: req.Consent})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body) // drain so the connection can be reused

	return interpret(resp.StatusCode, raw)
}

func interpret(status int, raw []byte) (Result, error) {
	var body responseBody
	if len(bytes.TrimSpace(raw)) == 0 {
		if status >= 200 && status < 300 {
			return Result{Outcome: OutcomeSuccess}, nil
		}
		return Result{Outcome: OutcomeRejected, Message: http.StatusText(status)}, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{}, fmt.Errorf("%w: status %d: %w", ErrMalformedResponse, status, err)
	}

	if body.Error != nil && strings.TrimSpace(*body.Error) != "" {
		return Result{Outcome: OutcomeRejected, Message: *body.Error}, nil
	}
	if status < 200 || status >= 300 {
		return Result{Outcome: OutcomeRejected, Message: http.StatusText(status)}, nil
	}
	return Result{Outcome: OutcomeSuccess}, nil
}
