// Package prober executes the single outbound HTTP call that backs every
// probe and story step: build the request, inject W3C trace context, send
// it through one of two singleton clients, and classify any failure.
package prober

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// Version is the prober's User-Agent version component.
const Version = "1.0"

const (
	probeUserAgent = "XBP Probe/" + Version
	alertUserAgent = "XBP Alert/" + Version
)

// probeClient serves every probe and story-step request. alertClient serves
// webhook alert deliveries. Separating them by User-Agent lets an operator's
// access logs tell monitoring traffic apart from alert traffic at a glance.
var (
	probeClient = &http.Client{}
	alertClient = &http.Client{}
)

var tracer = otel.Tracer("xbp-monitoring/prober")

// Result is the outcome of a single HTTP call.
type Result struct {
	Response *types.ResponseView
	Err      error
	Kind     types.FailureKind // zero value when Err is nil
}

// Request describes one outbound call.
type Request struct {
	Name    string // span name, e.g. the probe or step name
	Method  types.HTTPMethod
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    string
	Timeout string // not read by execute; caller controls the real deadline via ctx
}

// Execute sends req through the probe client, returning the response view on
// success or a classified error otherwise. The caller is responsible for
// bounding ctx with the monitor's configured timeout.
func Execute(ctx context.Context, req Request) Result {
	return execute(ctx, probeClient, probeUserAgent, req)
}

// ExecuteAlert sends req through the alert client, for webhook delivery.
func ExecuteAlert(ctx context.Context, req Request) Result {
	return execute(ctx, alertClient, alertUserAgent, req)
}

func execute(ctx context.Context, client *http.Client, userAgent string, req Request) Result {
	ctx, span := tracer.Start(ctx, req.Name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", string(req.Method)),
		attribute.String("http.url", req.URL),
	)

	fullURL, err := applyQuery(req.URL, req.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, Kind: types.FailureTransport}
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = bytes.NewReader([]byte(req.Body))
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, Kind: types.FailureTransport}
	}
	httpReq.Header.Set("User-Agent", userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := client.Do(httpReq)
	if err != nil {
		kind := types.FailureTransport
		if ctx.Err() == context.DeadlineExceeded {
			kind = types.FailureTimeout
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, Kind: kind}
	}
	defer func() { _ = resp.Body.Close() }()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: fmt.Errorf("reading response body: %w", err), Kind: types.FailureTransport}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return Result{Response: &types.ResponseView{
		StatusCode: resp.StatusCode,
		Body:       string(rawBody),
	}}
}

func applyQuery(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	q := parsed.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// BodyPreview truncates body to at most types.MaxBodyPreviewChars runes,
// the form retained in a RunResult and in the alert payloads built from it.
func BodyPreview(body string) string {
	runes := []rune(body)
	if len(runes) <= types.MaxBodyPreviewChars {
		return body
	}
	return string(runes[:types.MaxBodyPreviewChars])
}
