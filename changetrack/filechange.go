/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changetrack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
	"github.com/waigani/diffparser"
)

// ChangeType classifies a file change.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// FileChange is one changed file with its diff and line stats.
type FileChange struct {
	// Path is the file path relative to the repository root.
	Path string `json:"file_path"`

	// Type classifies the change.
	Type ChangeType `json:"change_type"`

	// Diff is the unified diff text, or synthesized added lines for
	// untracked files.
	Diff string `json:"diff,omitempty"`

	// LinesAdded counts added lines.
	LinesAdded int `json:"lines_added"`

	// LinesRemoved counts removed lines.
	LinesRemoved int `json:"lines_removed"`

	// OldPath is the previous path for renames.
	OldPath string `json:"old_path,omitempty"`
}

// FileChanges collects the working tree changes since the baseline:
// tracked changes parsed from unified diff text, plus untracked files read
// from disk. Outside a repository it returns nothing. Collection failures
// degrade to partial results rather than failing the evaluation.
func (t *Tracker) FileChanges(ctx context.Context) ([]FileChange, error) {
	if t.repo == nil {
		return nil, nil
	}
	log := clog.FromContext(ctx)

	var changes []FileChange

	diffText, err := t.diffText(ctx)
	if err != nil {
		log.Warnf("Skipping tracked file changes: %v", err)
	} else if strings.TrimSpace(diffText) != "" {
		parsed, err := diffparser.Parse(diffText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse diff: %w", err)
		}
		for _, file := range parsed.Files {
			changes = append(changes, fromParsedFile(file))
		}
	}

	untracked, err := t.untrackedChanges()
	if err != nil {
		log.Warnf("Skipping untracked file changes: %v", err)
	} else {
		changes = append(changes, untracked...)
	}

	return changes, nil
}

// fromParsedFile converts one parsed diff file into a FileChange with
// per-hunk line counts.
func fromParsedFile(file *diffparser.DiffFile) FileChange {
	change := FileChange{
		Path: file.NewName,
		Type: ChangeModified,
	}

	switch file.Mode {
	case diffparser.NEW:
		change.Type = ChangeCreated
	case diffparser.DELETED:
		change.Type = ChangeDeleted
		change.Path = file.OrigName
	default:
		if file.OrigName != "" && file.NewName != "" && file.OrigName != file.NewName {
			change.Type = ChangeRenamed
			change.OldPath = file.OrigName
		}
	}

	var diff strings.Builder
	for _, hunk := range file.Hunks {
		diff.WriteString(hunk.HunkHeader)
		diff.WriteString("\n")
		for _, line := range hunk.NewRange.Lines {
			if line.Mode == diffparser.ADDED {
				change.LinesAdded++
				fmt.Fprintf(&diff, "+%s\n", line.Content)
			}
		}
		for _, line := range hunk.OrigRange.Lines {
			if line.Mode == diffparser.REMOVED {
				change.LinesRemoved++
				fmt.Fprintf(&diff, "-%s\n", line.Content)
			}
		}
	}
	change.Diff = strings.TrimRight(diff.String(), "\n")
	return change
}

// untrackedChanges reads untracked files from the worktree and presents
// their full content as added lines.
func (t *Tracker) untrackedChanges() ([]FileChange, error) {
	worktree, err := t.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	root := worktree.Filesystem.Root()

	var changes []FileChange
	for path, fileStatus := range status {
		if fileStatus.Worktree != gogit.Untracked {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			continue
		}

		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		var diff strings.Builder
		fmt.Fprintf(&diff, "+++ %s\n", path)
		for _, line := range lines {
			fmt.Fprintf(&diff, "+%s\n", line)
		}

		changes = append(changes, FileChange{
			Path:       path,
			Type:       ChangeCreated,
			Diff:       strings.TrimRight(diff.String(), "\n"),
			LinesAdded: len(lines),
		})
	}
	return changes, nil
}
