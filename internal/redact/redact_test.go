package redact

import (
	"testing"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestBody(t *testing.T) {
	assert.Equal(t, "hello", Body(false, "hello"))
	assert.Equal(t, types.RedactedPlaceholder, Body(true, "hello"))
}

func TestResultNonSensitivePassesThrough(t *testing.T) {
	r := types.RunResult{ResponseBodyPreview: "visible"}
	out := Result(false, r)
	assert.Equal(t, "visible", out.ResponseBodyPreview)
}

func TestResultSensitiveRedactsNestedSteps(t *testing.T) {
	r := types.RunResult{
		ResponseBodyPreview: "top",
		FailedExpectations: []types.ExpectationFailure{
			{Field: types.FieldBody, Actual: "leaked"},
		},
		Steps: []types.RunResult{
			{StepName: "login", ResponseBodyPreview: "nested-secret"},
		},
	}

	out := Result(true, r)
	assert.Equal(t, types.RedactedPlaceholder, out.ResponseBodyPreview)
	assert.Equal(t, types.RedactedPlaceholder, out.FailedExpectations[0].Actual)
	assert.Equal(t, types.RedactedPlaceholder, out.Steps[0].ResponseBodyPreview)

	assert.Equal(t, "top", r.ResponseBodyPreview, "original result must not be mutated")
}
