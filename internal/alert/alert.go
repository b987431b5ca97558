// Package alert dispatches an Alert to every sink configured on a monitor.
// Dispatch never blocks the scheduler: each send runs in its own detached
// goroutine, and a sink's failure is logged, never propagated.
package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// Sink is an alert destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert types.Alert) error
}

// Dispatcher builds and routes alerts to the sinks configured on each
// monitor's AlertTargets.
type Dispatcher struct {
	logger *slog.Logger
}

// NewDispatcher returns a Dispatcher that logs sink failures through logger.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch fans alert out to a sink built from each target, detached from
// the caller so a slow or failing sink never delays the next scheduled run.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []types.AlertTarget, alert types.Alert) {
	for _, target := range targets {
		sink, err := newSink(target)
		if err != nil {
			d.logger.Error("building alert sink", "type", target.Type, "error", err)
			continue
		}
		go func(s Sink) {
			if err := s.Send(ctx, alert); err != nil {
				d.logger.Error("alert dispatch failed", "sink", s.Name(), "monitor", alert.MonitorName, "error", err)
			}
		}(sink)
	}
}

func newSink(target types.AlertTarget) (Sink, error) {
	switch target.Type {
	case types.AlertWebhook:
		if target.URL == "" {
			return nil, fmt.Errorf("webhook alert target requires a url")
		}
		return NewWebhookSink(target), nil
	case types.AlertConsole:
		return NewConsoleSink(), nil
	default:
		return nil, fmt.Errorf("unknown alert target type %q", target.Type)
	}
}
