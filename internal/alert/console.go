package alert

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// ConsoleSink writes alerts to the terminal with color, for operators
// running the binary by hand rather than through a webhook receiver.
type ConsoleSink struct{}

// NewConsoleSink creates a console alert sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Send writes an alert to the terminal, color-coded by OK/failed.
func (s *ConsoleSink) Send(_ context.Context, alert types.Alert) error {
	prefix := color.RedString("[FAIL]")
	if alert.OK {
		prefix = color.GreenString("[OK]")
	}
	fmt.Printf("%s [%s %s] %s\n", prefix, alert.MonitorKind, alert.MonitorName, alert.Message)
	return nil
}
