// Package runner executes a single probe or story run end to end: resolve
// variables, send the request(s), evaluate expectations, and assemble the
// RunResult the scheduler stores and alerts on.
package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/xbp-monitoring/internal/expectation"
	"github.com/dwsmith1983/xbp-monitoring/internal/prober"
	"github.com/dwsmith1983/xbp-monitoring/internal/redact"
	"github.com/dwsmith1983/xbp-monitoring/internal/resolver"
	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

var tracer = otel.Tracer("xbp-monitoring/runner")

// Runner executes probes and stories, holding the long-lived Expectation
// Evaluator so its regex cache survives across runs of the same monitor.
type Runner struct {
	evaluator *expectation.Evaluator
}

// New returns a Runner with a fresh Expectation Evaluator.
func New() *Runner {
	return &Runner{evaluator: expectation.NewEvaluator()}
}

// RunProbe executes a single probe and returns its RunResult, with response
// body content already redacted when the probe is sensitive.
func (r *Runner) RunProbe(ctx context.Context, probe types.Probe) types.RunResult {
	ctx, span := tracer.Start(ctx, probe.Name, trace.WithAttributes(
		attribute.String("name", probe.Name),
		attribute.String("type", "probe"),
	))
	defer span.End()

	start := time.Now()
	res, _ := r.executeRequest(ctx, probe.RequestSpec, resolver.New())
	res.Timestamp = start
	res.DurationMS = time.Since(start).Milliseconds()

	if !res.OK {
		span.SetStatus(codes.Error, res.Error)
	}

	return redact.Result(probe.Sensitive, res)
}

// executeRequest resolves, sends, and evaluates a single RequestSpec. It
// returns the RunResult (timestamp/duration left for the caller to fill in,
// since a story needs per-step timings distinct from its own timer setup)
// alongside the full, un-truncated response view for a story's later steps
// to substitute from — the RunResult only ever carries the truncated
// preview. Resolver warnings are recorded as events on the span active in
// ctx, never folded into the RunResult itself.
func (r *Runner) executeRequest(ctx context.Context, spec types.RequestSpec, res *resolver.Resolver) (types.RunResult, *types.ResponseView) {
	span := trace.SpanFromContext(ctx)

	url, urlWarnings := res.Resolve(spec.URL)

	headers := map[string]string{}
	query := map[string]string{}
	body := ""
	if spec.With != nil {
		var headerWarnings, queryWarnings, bodyWarnings []string
		headers, headerWarnings = res.ResolveMap(spec.With.Headers)
		query, queryWarnings = res.ResolveMap(spec.With.QueryParams)
		body, bodyWarnings = res.Resolve(spec.With.Body)
		urlWarnings = append(urlWarnings, headerWarnings...)
		urlWarnings = append(urlWarnings, queryWarnings...)
		urlWarnings = append(urlWarnings, bodyWarnings...)
	}
	recordResolverWarnings(span, urlWarnings)

	ctx, cancel := context.WithTimeout(ctx, spec.With.EffectiveTimeout())
	defer cancel()

	result := prober.Execute(ctx, prober.Request{
		Name:    spec.Name,
		Method:  spec.Method,
		URL:     url,
		Headers: headers,
		Query:   query,
		Body:    body,
	})

	out := types.RunResult{StepName: spec.Name}

	if result.Err != nil {
		out.OK = false
		out.Error = result.Err.Error()
		return out, nil
	}

	code := result.Response.StatusCode
	out.HTTPStatusCode = &code
	out.ResponseBodyPreview = prober.BodyPreview(result.Response.Body)

	failures := r.evaluator.Evaluate(expectation.Pointers(spec.Expectations), *result.Response)
	out.FailedExpectations = failures
	out.OK = len(failures) == 0

	return out, result.Response
}

// recordResolverWarnings attaches each Variable Resolver warning to span as
// its own event, per the spec's "emit a warning on the current span" rule.
func recordResolverWarnings(span trace.Span, warnings []string) {
	for _, w := range warnings {
		span.AddEvent("resolver warning", trace.WithAttributes(attribute.String("message", w)))
	}
}
