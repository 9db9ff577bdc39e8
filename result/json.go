/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result extracts structured verdicts from free-form judge output.
// Judge models wrap JSON in prose, markdown fences, or both; the helpers here
// tolerate all of those shapes so the caller only deals with typed results.
package result

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ExtractJSON locates the JSON payload inside a judge response. It prefers a
// ```json fenced block; failing that it falls back to the outermost {...}
// span, which handles responses like "Sure, here you go: {...} Thanks!".
// Returns the trimmed input when neither shape is found so the caller's
// unmarshal produces the real error.
func ExtractJSON(responseText string) string {
	if block, ok := fencedBlock(responseText); ok {
		return block
	}
	if span, ok := braceSpan(responseText); ok {
		return span
	}
	return strings.TrimSpace(responseText)
}

// Extract combines ExtractJSON with json.Unmarshal into the target type.
func Extract[T any](responseText string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(responseText)), &out); err != nil {
		return out, err
	}
	return out, nil
}

// fencedBlock collects the content of the first ```json block, if any.
func fencedBlock(text string) (string, bool) {
	var buf bytes.Buffer
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inBlock && trimmed == "```json" {
			inBlock = true
			continue
		}
		if inBlock {
			if trimmed == "```" {
				break
			}
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}

	if !inBlock || buf.Len() == 0 {
		return "", false
	}
	return strings.TrimSpace(buf.String()), true
}

// braceSpan returns the outermost {...} span: from the first '{' to the last
// '}' after it. A best-effort cut; nested or trailing braces inside string
// values are the judge's problem to balance, and in practice they are.
func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}
	end := strings.LastIndexByte(text, '}')
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
