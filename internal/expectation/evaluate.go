// Package expectation evaluates a monitor's declared Expectations against an
// HTTP response. Evaluate is a pure function; Evaluator exists only to amortize
// the cost of compiling Matches regexes across repeated runs of the same
// monitor.
package expectation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// Evaluator caches compiled regexes for Matches expectations, keyed by the
// pointer identity of the *types.Expectation they came from. Config is
// loaded once per process (or once per reload) and its Expectation slices
// are never mutated in place, so a pointer into that slice is a stable key
// for the lifetime of the monitor it belongs to.
type Evaluator struct {
	mu    sync.Mutex
	cache map[*types.Expectation]*regexp.Regexp
}

// NewEvaluator returns a ready-to-use Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[*types.Expectation]*regexp.Regexp)}
}

// Pointers returns a stable-identity pointer into each element of exps, for
// use as Evaluate's cache key. Callers should derive this once from a
// RequestSpec's Expectations slice and reuse it across runs of the same
// monitor, since the cache key is the pointer's identity, not its value.
func Pointers(exps []types.Expectation) []*types.Expectation {
	ptrs := make([]*types.Expectation, len(exps))
	for i := range exps {
		ptrs[i] = &exps[i]
	}
	return ptrs
}

// Evaluate checks every expectation against resp and returns the failures,
// if any. A nil/empty return means every expectation held.
func (e *Evaluator) Evaluate(expectations []*types.Expectation, resp types.ResponseView) []types.ExpectationFailure {
	var failures []types.ExpectationFailure
	for _, exp := range expectations {
		ok, actual, err := e.check(exp, resp)
		if err != nil {
			failures = append(failures, types.ExpectationFailure{
				Field:    exp.Field,
				Op:       exp.Op,
				Expected: exp.Value,
				Actual:   fmt.Sprintf("error: %v", err),
			})
			continue
		}
		if !ok {
			failures = append(failures, types.ExpectationFailure{
				Field:    exp.Field,
				Op:       exp.Op,
				Expected: exp.Value,
				Actual:   actual,
			})
		}
	}
	return failures
}

func (e *Evaluator) check(exp *types.Expectation, resp types.ResponseView) (bool, string, error) {
	actual, err := fieldValue(exp.Field, resp)
	if err != nil {
		return false, "", err
	}

	switch exp.Op {
	case types.OpEquals:
		return actual == exp.Value, actual, nil
	case types.OpNotEquals:
		return actual != exp.Value, actual, nil
	case types.OpContains:
		return strings.Contains(actual, exp.Value), actual, nil
	case types.OpNotContains:
		return !strings.Contains(actual, exp.Value), actual, nil
	case types.OpMatches:
		re, err := e.compiled(exp)
		if err != nil {
			return false, actual, fmt.Errorf("compiling regex %q: %w", exp.Value, err)
		}
		return re.MatchString(actual), actual, nil
	case types.OpIsOneOf:
		for _, candidate := range strings.Split(exp.Value, "|") {
			if actual == candidate {
				return true, actual, nil
			}
		}
		return false, actual, nil
	default:
		return false, actual, fmt.Errorf("unsupported expectation op %q", exp.Op)
	}
}

func fieldValue(field types.ExpectationField, resp types.ResponseView) (string, error) {
	switch field {
	case types.FieldStatusCode:
		return strconv.Itoa(resp.StatusCode), nil
	case types.FieldBody:
		return resp.Body, nil
	default:
		return "", fmt.Errorf("unsupported expectation field %q", field)
	}
}

// compiled returns the cached regex for exp, compiling and caching it on
// first use.
func (e *Evaluator) compiled(exp *types.Expectation) (*regexp.Regexp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if re, ok := e.cache[exp]; ok {
		return re, nil
	}
	re, err := regexp.Compile(exp.Value)
	if err != nil {
		return nil, err
	}
	e.cache[exp] = re
	return re, nil
}
