/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"strings"
	"testing"

	"chainguard.dev/trustcheck/schema"
)

func TestReflect(t *testing.T) {
	type evidence struct {
		Rationale string   `json:"score_rationale" jsonschema:"description=Why the score was assigned"`
		Issues    []string `json:"issues,omitempty"`
	}
	type sample struct {
		Scores   map[string]float64  `json:"scores" jsonschema:"description=Per-dimension scores,required"`
		Evidence map[string]evidence `json:"evidence,omitempty"`
		Summary  string              `json:"summary,omitempty"`
	}

	s := schema.Reflect(&sample{})
	if s == nil {
		t.Fatal("expected schema")
	}
	if s.Type != "object" {
		t.Fatalf("expected object type, got %s", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "scores" {
		t.Fatalf("unexpected required: %#v", s.Required)
	}

	scores, ok := s.Properties.Get("scores")
	if !ok {
		t.Fatal("missing scores property")
	}
	if scores.Description != "Per-dimension scores" {
		t.Fatalf("unexpected description: %q", scores.Description)
	}
}

func TestReflectType(t *testing.T) {
	type verdict struct {
		Summary string `json:"summary"`
	}

	s := schema.ReflectType[*verdict]()
	if s == nil {
		t.Fatal("expected schema")
	}
	if _, ok := s.Properties.Get("summary"); !ok {
		t.Fatal("missing summary property")
	}
}

func TestMarshalIndented(t *testing.T) {
	type payload struct {
		Scores map[string]float64 `json:"scores" jsonschema:"required"`
	}

	out, err := schema.MarshalIndented(schema.Reflect(&payload{}))
	if err != nil {
		t.Fatalf("MarshalIndented() error: %v", err)
	}
	for _, want := range []string{`"scores"`, `"required"`, `"object"`} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered schema missing %q:\n%s", want, out)
		}
	}
}
