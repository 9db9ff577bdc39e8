/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder provides injection-resistant prompt construction for
// the judge and summarization calls. Templates are developer-provided literal
// strings with {{name}} placeholders; evaluated data is bound through encoders
// and substituted in a single pass so bound values can never introduce new
// placeholders.
package promptbuilder

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// stringLiteral only accepts untyped string constants, keeping raw (unencoded)
// bindings restricted to developer-authored text.
type stringLiteral string

// Prompt is an immutable template with bindable placeholders. Binding methods
// return a new Prompt, so instances are safe to share across goroutines.
type Prompt struct {
	template string
	bindings map[string]binding
}

// binding supplies the substitution text for one placeholder.
type binding interface {
	value() (string, error)
}

type unboundBinding struct{ name string }

func (u unboundBinding) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type literalBinding struct{ val string }

func (l literalBinding) value() (string, error) { return l.val, nil }

type jsonBinding struct{ data any }

func (j jsonBinding) value() (string, error) {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON binding: %w", err)
	}
	return string(b), nil
}

type yamlBinding struct{ data any }

func (y yamlBinding) value() (string, error) {
	b, err := yaml.Marshal(y.data)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML binding: %w", err)
	}
	return string(b), nil
}

// NewPrompt parses a template literal and registers its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)

	// Walking with an identity resolver validates placeholder syntax up front.
	tmpl, err := walkTemplate(string(template), func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = unboundBinding{name: name}
		}
		return fmt.Sprintf("{{%s}}", name), nil
	})
	if err != nil {
		return nil, err
	}

	return &Prompt{template: tmpl, bindings: bindings}, nil
}

// Placeholders returns the set of placeholder names found in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

// Bind binds a literal string value to a placeholder. The value must be a
// developer-authored constant; evaluated data goes through BindJSON/BindYAML
// or the text helpers instead.
func (p *Prompt) Bind(name string, value stringLiteral) (*Prompt, error) {
	return p.rebind(name, literalBinding{val: string(value)})
}

// BindText binds runtime text to a placeholder. Unlike Bind, the value may
// come from evaluated data: judge prompts quote transcript and response text
// verbatim inside delimited sections, so no encoding is applied.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.rebind(name, literalBinding{val: value})
}

// BindJSON binds structured data as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.rebind(name, jsonBinding{data: data})
}

// BindYAML binds structured data as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.rebind(name, yamlBinding{data: data})
}

func (p *Prompt) rebind(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, unbound := existing.(unboundBinding); !unbound {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	np := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	np.bindings[name] = b
	return np, nil
}

// Build renders the final prompt, failing if any placeholder remains unbound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		val, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = val
	}

	// Single pass over the original template: substituted values are never
	// re-scanned, so bound content cannot introduce transitive placeholders.
	return walkTemplate(p.template, func(name string) (string, error) {
		if val, ok := values[name]; ok {
			return val, nil
		}
		return "", fmt.Errorf("internal error: no value for placeholder %q", name)
	})
}

// resolveFunc supplies the replacement text for a placeholder name.
type resolveFunc func(name string) (string, error)

// walkTemplate tokenizes the template and calls resolve for each placeholder.
func walkTemplate(template string, resolve resolveFunc) (string, error) {
	var out strings.Builder

	for len(template) > 0 {
		start := strings.Index(template, "{{")
		if start == -1 {
			out.WriteString(template)
			break
		}
		out.WriteString(template[:start])

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		end += start + 2

		name := strings.TrimSpace(template[start+2 : end-2])
		if !isValidIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder identifier %q", name)
		}

		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)

		template = template[end:]
	}

	return out.String(), nil
}

// isValidIdentifier reports whether s is a letter followed by letters, digits,
// or underscores.
func isValidIdentifier(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
