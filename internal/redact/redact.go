// Package redact centralizes the single redaction policy applied at every
// egress point a sensitive monitor's data can reach: span attributes,
// metric attributes, alert payloads, and control-plane API responses. There
// is exactly one place this decision is made so none of those paths can
// drift from it.
package redact

import "github.com/dwsmith1983/xbp-monitoring/pkg/types"

// Body returns body, or the redacted placeholder when sensitive is true.
func Body(sensitive bool, body string) string {
	if sensitive {
		return types.RedactedPlaceholder
	}
	return body
}

// Result returns a copy of result with response-body-derived fields
// replaced by the redacted placeholder throughout the result tree
// (including nested step results), when sensitive is true. A non-sensitive
// result is returned unchanged.
func Result(sensitive bool, result types.RunResult) types.RunResult {
	if !sensitive {
		return result
	}
	out := result.Clone()
	redactTree(&out)
	return out
}

func redactTree(r *types.RunResult) {
	if r.ResponseBodyPreview != "" {
		r.ResponseBodyPreview = types.RedactedPlaceholder
	}
	for i := range r.FailedExpectations {
		r.FailedExpectations[i].Actual = types.RedactedPlaceholder
	}
	for i := range r.Steps {
		redactTree(&r.Steps[i])
	}
}
