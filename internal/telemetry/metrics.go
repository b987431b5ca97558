package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the fixed meter every instrument below is created from.
const meterName = "xbp"

// Emitter owns the five instruments every monitor run reports to: a runs
// counter, a duration histogram, an errors counter, and status/http-status
// gauges, all recorded synchronously by RecordRun.
type Emitter struct {
	runs     metric.Int64Counter
	duration metric.Int64Histogram
	errors   metric.Int64Counter
	status   metric.Int64Gauge
	httpCode metric.Int64Gauge
}

// NewEmitter creates the five instruments against mp's "xbp" meter.
func NewEmitter(mp metric.MeterProvider) (*Emitter, error) {
	meter := mp.Meter(meterName)

	runs, err := meter.Int64Counter("runs", metric.WithDescription("number of monitor runs executed"))
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}
	duration, err := meter.Int64Histogram("duration",
		metric.WithDescription("monitor run duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	errs, err := meter.Int64Counter("errors", metric.WithDescription("number of monitor runs that failed"))
	if err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}
	status, err := meter.Int64Gauge("status", metric.WithDescription("last run status: 0=OK, 1=Error"))
	if err != nil {
		return nil, fmt.Errorf("creating status gauge: %w", err)
	}
	httpCode, err := meter.Int64Gauge("http_status_code", metric.WithDescription("last observed HTTP status code"))
	if err != nil {
		return nil, fmt.Errorf("creating http_status_code gauge: %w", err)
	}

	return &Emitter{
		runs:     runs,
		duration: duration,
		errors:   errs,
		status:   status,
		httpCode: httpCode,
	}, nil
}

// RecordRun reports the completion of a run: always increments runs and
// duration, increments errors when ok is false, and sets the status and
// (when present) http_status_code gauges. name is the monitor or step name;
// kind is one of "probe", "story", "step". storyName is non-empty only for
// a step emission, per the spec's step attribute contract.
func (e *Emitter) RecordRun(ctx context.Context, name string, kind string, storyName string, ok bool, durationMS int64, httpStatusCode *int) {
	kvs := []attribute.KeyValue{
		attribute.String("name", name),
		attribute.String("type", kind),
	}
	if storyName != "" {
		kvs = append(kvs, attribute.String("story_name", storyName))
	}
	attrs := metric.WithAttributes(kvs...)

	e.runs.Add(ctx, 1, attrs)
	e.duration.Record(ctx, durationMS, attrs)

	statusValue := int64(0)
	if !ok {
		statusValue = 1
		e.errors.Add(ctx, 1, attrs)
	}
	e.status.Record(ctx, statusValue, attrs)

	if httpStatusCode != nil {
		e.httpCode.Record(ctx, int64(*httpStatusCode), attrs)
	}
}
