// Package resolver implements the per-request Variable Resolver: a single
// left-to-right scan over a string that substitutes ${{ ... }} tokens of
// the forms env.NAME, generate.uuid, steps.<name>.response.body[.field],
// and steps.<name>.response.status_code with their resolved values. Resolution
// is non-recursive: a token's replacement text is never itself re-scanned.
package resolver

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

var tokenPattern = regexp.MustCompile(`\$\{\{\s*([^}]+?)\s*\}\}`)

// StepResults maps a completed step's name to its response view, making
// earlier steps' output available to later steps within the same story run.
type StepResults map[string]types.ResponseView

// Resolver substitutes variable tokens against a fixed set of step results
// for a single run of a probe or story.
type Resolver struct {
	steps StepResults
}

// New returns a Resolver with no step results available; suitable for
// resolving a probe, or the first step of a story.
func New() *Resolver {
	return &Resolver{steps: StepResults{}}
}

// WithSteps returns a Resolver carrying the given completed step results,
// for resolving a story's later steps.
func WithSteps(steps StepResults) *Resolver {
	return &Resolver{steps: steps}
}

// Resolve replaces every ${{ ... }} token in s. An unrecognized or
// unresolvable token substitutes the empty string and is reported in
// warnings; it never fails and never leaves the raw token behind.
func (r *Resolver) Resolve(s string) (resolved string, warnings []string) {
	out := tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		expr := tokenPattern.FindStringSubmatch(match)[1]
		value, err := r.resolveExpr(expr)
		if err != nil {
			warnings = append(warnings, err.Error())
			return ""
		}
		return value
	})
	return out, warnings
}

// ResolveMap applies Resolve to every value in m, returning a new map and
// the combined warnings across all entries.
func (r *Resolver) ResolveMap(m map[string]string) (map[string]string, []string) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	var warnings []string
	for k, v := range m {
		resolved, w := r.Resolve(v)
		out[k] = resolved
		warnings = append(warnings, w...)
	}
	return out, warnings
}

func (r *Resolver) resolveExpr(expr string) (string, error) {
	switch {
	case strings.HasPrefix(expr, "env."):
		return r.resolveEnv(strings.TrimPrefix(expr, "env."))
	case expr == "generate.uuid":
		return uuid.NewString(), nil
	case strings.HasPrefix(expr, "steps."):
		return r.resolveStep(strings.TrimPrefix(expr, "steps."))
	default:
		return "", fmt.Errorf("resolver: unrecognized token %q", expr)
	}
}

func (r *Resolver) resolveEnv(name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("resolver: environment variable %q not set", name)
	}
	return val, nil
}

// resolveStep handles the remainder of a steps.<name>.response.body[.field]
// or steps.<name>.response.status_code token after the steps. prefix has
// been stripped.
func (r *Resolver) resolveStep(rest string) (string, error) {
	parts := strings.SplitN(rest, ".", 3)
	if len(parts) < 2 || parts[1] != "response" {
		return "", fmt.Errorf("resolver: malformed steps token %q", rest)
	}
	stepName := parts[0]

	resp, ok := r.steps[stepName]
	if !ok {
		return "", fmt.Errorf("resolver: no result for step %q", stepName)
	}

	if len(parts) == 2 {
		return "", fmt.Errorf("resolver: steps token for %q missing a response field", stepName)
	}

	field := parts[2]
	switch {
	case field == "body":
		return resp.Body, nil
	case strings.HasPrefix(field, "body."):
		path := strings.TrimPrefix(field, "body.")
		result := gjson.Get(resp.Body, path)
		if !result.Exists() {
			return "", fmt.Errorf("resolver: field %q not found in step %q response body", path, stepName)
		}
		return result.String(), nil
	case field == "status_code":
		return fmt.Sprintf("%d", resp.StatusCode), nil
	default:
		return "", fmt.Errorf("resolver: unsupported response field %q for step %q", field, stepName)
	}
}
