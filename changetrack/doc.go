/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package changetrack records what actually happened during an AI session:
// which tools were called with what results, and which files changed in the
// working tree since the session baseline.
//
// The recorded ground truth is rendered into bracketed context sections
// ([TOOL CALL LOG], [FILE CHANGES (git diff)], [MODIFIED FILES CONTENT])
// that the judge compares the assistant's claims against. File changes come
// from the git worktree: go-git supplies repository state and untracked
// files, and unified diff text is parsed for per-file line stats.
package changetrack
