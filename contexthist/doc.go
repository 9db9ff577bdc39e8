/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package contexthist accumulates per-session interaction history and
// compacts it when it grows past configured bounds.
//
// Each evaluated interaction (context, response, evaluation summary) is
// appended to a rolling history. When the history exceeds an item or
// character budget, older entries are folded into an LLM-written summary
// while the most recent entries are preserved verbatim. If summarization
// fails the manager degrades to truncation, so history growth stays bounded
// even without a working summarizer.
package contexthist
