/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package session ties the evaluation pipeline together. A Session owns a
// judge, a context history manager, a tool-call tracker, and a single
// serialized worker so that judge and summarization calls for the session
// never interleave. Evaluate runs one response through the full pipeline
// and feeds a compact result summary back into the accumulated context.
//
// Sessions are not safe for concurrent use. Each session has one logical
// caller; the Registry only guards its own map, it does not serialize use
// of the sessions it hands out. Distinct sessions may evaluate in
// parallel.
package session
