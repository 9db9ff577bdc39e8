/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Must wraps a call returning (*Prompt, error) and panics on error. Intended
// for package-level template variables that are known valid at compile time.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNewPrompt creates a prompt from a template literal and panics on error.
func MustNewPrompt(template stringLiteral) *Prompt {
	return Must(NewPrompt(template))
}

// MustBind binds a literal string and panics on error.
func (p *Prompt) MustBind(name string, value stringLiteral) *Prompt {
	return Must(p.Bind(name, value))
}

// MustBindText binds runtime text and panics on error.
func (p *Prompt) MustBindText(name, value string) *Prompt {
	return Must(p.BindText(name, value))
}

// MustBindJSON binds structured data as JSON and panics on error.
func (p *Prompt) MustBindJSON(name string, data any) *Prompt {
	return Must(p.BindJSON(name, data))
}

// MustBindYAML binds structured data as YAML and panics on error.
func (p *Prompt) MustBindYAML(name string, data any) *Prompt {
	return Must(p.BindYAML(name, data))
}
