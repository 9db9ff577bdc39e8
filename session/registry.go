/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/trustcheck/judge"
)

// Registry tracks active sessions by id. The registry's own map is safe
// for concurrent use; the sessions it returns are not, and each must have
// a single logical caller.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Start creates and registers a new session. Starting a session whose id
// is already registered closes and replaces the existing one.
func (r *Registry) Start(ctx context.Context, judgeImpl judge.Interface, opts ...Option) (*Session, error) {
	s, err := New(ctx, judgeImpl, opts...)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	r.mu.Lock()
	prev := r.sessions[s.ID()]
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	if prev != nil {
		clog.InfoContextf(ctx, "Replacing existing session %s", prev.ID())
		prev.Close()
	}
	return s, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove closes and unregisters the session with the given id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// IDs returns the registered session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close shuts down every registered session and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
