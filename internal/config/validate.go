package config

import (
	"fmt"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// Validate checks a Config for the invariants the scheduler and Result Store
// depend on: unique monitor names per kind, unique step names within a
// story, and a well-formed request on every probe and step.
func Validate(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	probeNames := make(map[string]struct{}, len(cfg.Probes))
	for i, p := range cfg.Probes {
		if p.Name == "" {
			return fmt.Errorf("probes[%d]: name is required", i)
		}
		if _, dup := probeNames[p.Name]; dup {
			return fmt.Errorf("probes[%d]: duplicate probe name %q", i, p.Name)
		}
		probeNames[p.Name] = struct{}{}

		if err := validateRequest(p.RequestSpec); err != nil {
			return fmt.Errorf("probe %q: %w", p.Name, err)
		}
	}

	storyNames := make(map[string]struct{}, len(cfg.Stories))
	for i, s := range cfg.Stories {
		if s.Name == "" {
			return fmt.Errorf("stories[%d]: name is required", i)
		}
		if _, dup := storyNames[s.Name]; dup {
			return fmt.Errorf("stories[%d]: duplicate story name %q", i, s.Name)
		}
		storyNames[s.Name] = struct{}{}

		if len(s.Steps) == 0 {
			return fmt.Errorf("story %q: at least one step is required", s.Name)
		}

		stepNames := make(map[string]struct{}, len(s.Steps))
		for j, step := range s.Steps {
			if step.Name == "" {
				return fmt.Errorf("story %q: steps[%d]: name is required", s.Name, j)
			}
			if _, dup := stepNames[step.Name]; dup {
				return fmt.Errorf("story %q: duplicate step name %q", s.Name, step.Name)
			}
			stepNames[step.Name] = struct{}{}

			if err := validateRequest(step.RequestSpec); err != nil {
				return fmt.Errorf("story %q, step %q: %w", s.Name, step.Name, err)
			}
		}
	}

	return nil
}

func validateRequest(r types.RequestSpec) error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	switch r.Method {
	case types.MethodGET, types.MethodPOST, types.MethodPUT, types.MethodPATCH, types.MethodDELETE, types.MethodHEAD:
	default:
		return fmt.Errorf("unsupported http_method %q", r.Method)
	}
	for i, e := range r.Expectations {
		if err := validateExpectation(e); err != nil {
			return fmt.Errorf("expectations[%d]: %w", i, err)
		}
	}
	return nil
}

func validateExpectation(e types.Expectation) error {
	switch e.Field {
	case types.FieldStatusCode, types.FieldBody:
	default:
		return fmt.Errorf("unsupported expectation field %q", e.Field)
	}
	switch e.Op {
	case types.OpEquals, types.OpNotEquals, types.OpContains, types.OpNotContains, types.OpMatches, types.OpIsOneOf:
	default:
		return fmt.Errorf("unsupported expectation op %q", e.Op)
	}
	return nil
}
