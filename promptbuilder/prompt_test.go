/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template stringLiteral
		want     map[string]struct{}
		wantErr  string
	}{{
		name:     "no placeholders",
		template: `plain text`,
		want:     map[string]struct{}{},
	}, {
		name:     "single placeholder",
		template: `hello {{name}}`,
		want:     map[string]struct{}{"name": {}},
	}, {
		name:     "repeated placeholder counted once",
		template: `{{a}} and {{a}} and {{b}}`,
		want:     map[string]struct{}{"a": {}, "b": {}},
	}, {
		name:     "unclosed placeholder",
		template: `broken {{name`,
		wantErr:  "unclosed placeholder",
	}, {
		name:     "invalid identifier",
		template: `bad {{na-me}}`,
		wantErr:  "invalid placeholder identifier",
	}, {
		name:     "empty identifier",
		template: `bad {{}}`,
		wantErr:  "invalid placeholder identifier",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrompt(tt.template)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewPrompt() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPrompt() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, p.Placeholders()); diff != "" {
				t.Errorf("Placeholders() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBindAndBuild(t *testing.T) {
	p := MustNewPrompt(`ctx: {{context}}
resp: {{response}}
data: {{data}}`)

	p = p.MustBindText("context", "earlier conversation")
	p = p.MustBindText("response", "the answer")
	p = p.MustBindJSON("data", map[string]int{"score": 7})

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, want := range []string{"earlier conversation", "the answer", `"score": 7`} {
		if !strings.Contains(got, want) {
			t.Errorf("Build() output missing %q:\n%s", want, got)
		}
	}
}

func TestBuildUnbound(t *testing.T) {
	p := MustNewPrompt(`{{left}} {{right}}`)
	p = p.MustBindText("left", "only one bound")

	if _, err := p.Build(); err == nil || !strings.Contains(err.Error(), "unbound placeholder") {
		t.Fatalf("Build() error = %v, want unbound placeholder", err)
	}
}

func TestRebindRejected(t *testing.T) {
	p := MustNewPrompt(`{{x}}`)
	p = p.MustBindText("x", "first")

	if _, err := p.BindText("x", "second"); err == nil {
		t.Fatal("expected rebind to fail")
	}
}

func TestBindUnknownPlaceholder(t *testing.T) {
	p := MustNewPrompt(`{{x}}`)
	if _, err := p.BindText("y", "value"); err == nil {
		t.Fatal("expected binding unknown placeholder to fail")
	}
}

func TestNoTransitiveSubstitution(t *testing.T) {
	p := MustNewPrompt(`{{a}} {{b}}`)
	// A bound value containing placeholder syntax must pass through verbatim.
	p = p.MustBindText("a", "{{b}}")
	p = p.MustBindText("b", "value")

	got, err := p.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got != "{{b}} value" {
		t.Errorf("Build() = %q, want %q", got, "{{b}} value")
	}
}

func TestBindingImmutability(t *testing.T) {
	base := MustNewPrompt(`{{x}}`)
	first := base.MustBindText("x", "one")
	second := base.MustBindText("x", "two")

	got1, err := first.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	got2, err := second.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got1 != "one" || got2 != "two" {
		t.Errorf("independent bindings interfered: %q, %q", got1, got2)
	}
}
