package expectation

import (
	"testing"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAllPass(t *testing.T) {
	exps := []types.Expectation{
		{Field: types.FieldStatusCode, Op: types.OpEquals, Value: "200"},
		{Field: types.FieldBody, Op: types.OpContains, Value: "ok"},
	}
	resp := types.ResponseView{StatusCode: 200, Body: `{"status":"ok"}`}

	e := NewEvaluator()
	failures := e.Evaluate(Pointers(exps), resp)
	assert.Empty(t, failures)
}

func TestEvaluateStatusCodeMismatch(t *testing.T) {
	exps := []types.Expectation{{Field: types.FieldStatusCode, Op: types.OpEquals, Value: "200"}}
	resp := types.ResponseView{StatusCode: 500, Body: ""}

	e := NewEvaluator()
	failures := e.Evaluate(Pointers(exps), resp)
	require.Len(t, failures, 1)
	assert.Equal(t, "200", failures[0].Expected)
	assert.Equal(t, "500", failures[0].Actual)
}

func TestEvaluateOperators(t *testing.T) {
	tests := []struct {
		name string
		exp  types.Expectation
		resp types.ResponseView
		ok   bool
	}{
		{"NotEquals true", types.Expectation{Field: types.FieldBody, Op: types.OpNotEquals, Value: "foo"}, types.ResponseView{Body: "bar"}, true},
		{"Contains true", types.Expectation{Field: types.FieldBody, Op: types.OpContains, Value: "ba"}, types.ResponseView{Body: "bar"}, true},
		{"NotContains true", types.Expectation{Field: types.FieldBody, Op: types.OpNotContains, Value: "zzz"}, types.ResponseView{Body: "bar"}, true},
		{"Matches true", types.Expectation{Field: types.FieldBody, Op: types.OpMatches, Value: `^\d+$`}, types.ResponseView{Body: "12345"}, true},
		{"Matches false", types.Expectation{Field: types.FieldBody, Op: types.OpMatches, Value: `^\d+$`}, types.ResponseView{Body: "abc"}, false},
		{"IsOneOf true", types.Expectation{Field: types.FieldStatusCode, Op: types.OpIsOneOf, Value: "200|201|204"}, types.ResponseView{StatusCode: 201}, true},
		{"IsOneOf false", types.Expectation{Field: types.FieldStatusCode, Op: types.OpIsOneOf, Value: "200|201|204"}, types.ResponseView{StatusCode: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator()
			exps := []types.Expectation{tt.exp}
			failures := e.Evaluate(Pointers(exps), tt.resp)
			assert.Equal(t, tt.ok, len(failures) == 0)
		})
	}
}

func TestEvaluateInvalidRegexIsReportedAsFailure(t *testing.T) {
	exps := []types.Expectation{{Field: types.FieldBody, Op: types.OpMatches, Value: `(unterminated`}}
	resp := types.ResponseView{Body: "anything"}

	e := NewEvaluator()
	failures := e.Evaluate(Pointers(exps), resp)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Actual, "error:")
}

func TestCompiledRegexIsCachedByPointerIdentity(t *testing.T) {
	exps := []types.Expectation{{Field: types.FieldBody, Op: types.OpMatches, Value: `^ok$`}}
	ptrs := Pointers(exps)

	e := NewEvaluator()
	resp := types.ResponseView{Body: "ok"}

	_ = e.Evaluate(ptrs, resp)
	require.Len(t, e.cache, 1)

	_ = e.Evaluate(ptrs, resp)
	assert.Len(t, e.cache, 1, "second evaluation with the same expectation pointers should reuse the cached regex")
}
