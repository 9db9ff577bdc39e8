/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge scores AI assistant responses for trustworthiness.
//
// A single judge call evaluates a response transcript across a fixed set of
// dimensions (hallucination, tool consistency, truthfulness, and so on), each
// scored 0-10. The scorer parses the judge's JSON verdict with bounded
// retries and degrades to a neutral verdict when every attempt fails, so a
// misbehaving judge model never aborts an evaluation. Aggregation folds the
// dimension scores into a single overall score, a risk level, and a
// pass/fail decision.
//
// Claude, Gemini, and OpenAI backends implement the Client interface; the
// scorer is agnostic to which one it talks to.
package judge
