/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package serialize provides a single-worker execution gate.
//
// Judge and summarization calls for a session must never interleave, so
// they are shipped to one dedicated goroutine and executed in FIFO order.
// Callers block until their function ran or their context expired.
package serialize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"
)

// ErrClosed is returned by Do after the worker has been closed.
var ErrClosed = errors.New("serialize: worker closed")

// DefaultBuffer is the default request queue depth.
const DefaultBuffer = 16

type request struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Worker executes submitted functions one at a time on a dedicated
// goroutine.
type Worker struct {
	requests chan request
	stop     chan struct{}
	once     sync.Once
}

// NewWorker starts a worker with the given queue depth; non-positive
// buffer values fall back to DefaultBuffer.
func NewWorker(buffer int) *Worker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	w := &Worker{
		requests: make(chan request, buffer),
		stop:     make(chan struct{}),
	}
	go w.run()
	return w
}

// run is the worker loop. Requests whose context expired while queued are
// skipped without executing.
func (w *Worker) run() {
	for {
		select {
		case <-w.stop:
			return
		case req := <-w.requests:
			if err := req.ctx.Err(); err != nil {
				req.done <- err
				continue
			}
			req.done <- w.execute(req.ctx, req.fn)
		}
	}
}

// execute runs one function, converting a panic into an error so a bad
// callback cannot kill the worker.
func (w *Worker) execute(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			clog.FromContext(ctx).Errorf("Recovered panic in serialized call: %v", r)
			err = fmt.Errorf("serialized call panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Do ships fn to the worker and waits for it to finish. It returns fn's
// error, the context error if ctx expires first, or ErrClosed. When ctx
// expires while fn is queued, fn is never executed; once fn has started it
// runs to completion and its result is discarded if the caller already
// gave up.
func (w *Worker) Do(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("serialize: fn cannot be nil")
	}

	req := request{
		ctx: ctx,
		fn:  fn,
		// Buffered so the worker never blocks on a departed caller.
		done: make(chan error, 1),
	}

	select {
	case w.requests <- req:
	case <-w.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stop:
		// Prefer a result that raced with shutdown.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrClosed
		}
	}
}

// Close stops the worker. Queued requests that have not started are
// abandoned; their callers unblock via their contexts or ErrClosed on
// resubmission. Close is idempotent.
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.stop)
	})
}
