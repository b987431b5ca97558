package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dwsmith1983/xbp-monitoring/internal/prober"
	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// WebhookSink sends alerts as JSON POST requests to a target URL, through
// the shared alert HTTP client so its traffic carries the XBP Alert
// User-Agent and participates in the same tracing as probe requests.
type WebhookSink struct {
	target types.AlertTarget
}

// NewWebhookSink creates a webhook alert sink for target.
func NewWebhookSink(target types.AlertTarget) *WebhookSink {
	return &WebhookSink{target: target}
}

// Name returns the sink identifier.
func (s *WebhookSink) Name() string { return "webhook" }

// Send posts the alert as JSON to the target URL. The caller is responsible
// for having already redacted alert.Result via internal/redact when the
// owning monitor is sensitive; this sink applies no redaction of its own.
func (s *WebhookSink) Send(ctx context.Context, alert types.Alert) error {
	body := s.target.Body
	if body == "" {
		data, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("marshaling alert payload: %w", err)
		}
		body = string(data)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range s.target.Headers {
		headers[k] = v
	}

	result := prober.ExecuteAlert(ctx, prober.Request{
		Name:    fmt.Sprintf("alert:%s", alert.MonitorName),
		Method:  types.MethodPOST,
		URL:     s.target.URL,
		Headers: headers,
		Body:    body,
	})
	if result.Err != nil {
		return fmt.Errorf("webhook POST failed: %w", result.Err)
	}
	if result.Response.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", result.Response.StatusCode)
	}
	return nil
}
