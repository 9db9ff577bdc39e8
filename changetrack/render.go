/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changetrack

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Truncation limits for rendered sections. buildDiff keeps head and tail
// so both the start of a change and its outcome stay visible.
const (
	maxDiffLines    = 100
	diffHeadLines   = 60
	diffTailLines   = 30
	maxFileLines    = 500
	fileHeadLines   = 300
	fileTailLines   = 150
	maxFilesPerTool = 5
)

// BuildChangeContext renders the recorded tool calls and file changes into
// the bracketed sections the judge verifies claims against.
func (t *Tracker) BuildChangeContext(ctx context.Context) string {
	var parts []string

	summary := t.Summary()
	if len(summary) > 0 {
		parts = append(parts, "[TOOL CALLS MADE]")
		names := make([]string, 0, len(summary))
		for name := range summary {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			stats := summary[name]
			parts = append(parts, fmt.Sprintf("- %s: %d calls (%d successful)", name, stats.Calls, stats.Successes))
			if len(stats.FilesAffected) > 0 {
				files := stats.FilesAffected
				if len(files) > maxFilesPerTool {
					files = files[:maxFilesPerTool]
				}
				parts = append(parts, fmt.Sprintf("  Files: %s", strings.Join(files, ", ")))
			}
		}
		parts = append(parts, "")
	}

	changes, err := t.FileChanges(ctx)
	if err == nil && len(changes) > 0 {
		parts = append(parts, "[FILE CHANGES (git diff)]")
		for _, change := range changes {
			parts = append(parts, fmt.Sprintf("\nFile: %s", change.Path))
			parts = append(parts, fmt.Sprintf("Type: %s", change.Type))
			parts = append(parts, fmt.Sprintf("Lines: +%d -%d", change.LinesAdded, change.LinesRemoved))
			if change.Diff != "" {
				parts = append(parts, fmt.Sprintf("```diff\n%s\n```", headTail(change.Diff, maxDiffLines, diffHeadLines, diffTailLines)))
			}
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}

// RenderToolCallLog renders the raw call log in the [TOOL CALL LOG] format
// the judge prompt refers to. Empty when nothing was recorded.
func (t *Tracker) RenderToolCallLog() string {
	if len(t.toolCalls) == 0 {
		return ""
	}

	parts := []string{"[TOOL CALL LOG]"}
	for _, call := range t.toolCalls {
		outcome := "success"
		if !call.Success {
			outcome = "failed"
		}
		parts = append(parts, fmt.Sprintf("- %s: %s -> %s", call.Name, formatParameters(call.Parameters), outcome))
	}
	return strings.Join(parts, "\n")
}

// RenderModifiedFiles reads the given files and renders their content under
// [MODIFIED FILES CONTENT], truncating large files head-and-tail. Unreadable
// files are reported inline rather than failing the section.
func RenderModifiedFiles(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	parts := []string{"[MODIFIED FILES CONTENT]"}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			parts = append(parts, fmt.Sprintf("File: %s\nError reading file: %v", path, err))
			continue
		}
		content := headTail(strings.TrimRight(string(data), "\n"), maxFileLines, fileHeadLines, fileTailLines)
		parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```", path, content))
	}
	return strings.Join(parts, "\n")
}

// headTail truncates text to head+tail lines with an omission marker once
// it exceeds max lines.
func headTail(text string, max, head, tail int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= max {
		return text
	}
	omitted := len(lines) - head - tail
	out := make([]string, 0, head+tail+1)
	out = append(out, lines[:head]...)
	out = append(out, fmt.Sprintf("... [%d lines omitted] ...", omitted))
	out = append(out, lines[len(lines)-tail:]...)
	return strings.Join(out, "\n")
}

// formatParameters renders tool parameters compactly with stable key order.
func formatParameters(parameters map[string]any) string {
	if len(parameters) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(parameters))
	for key := range parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", key, parameters[key]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
