// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll implements a bounded poll-until-ready loop for waiting on
// asynchronous remote jobs whose completion is observed only through
// repeated state queries. The same loop serves both research completion
// and report generation, with different intervals and deadlines.
package poll

import (
	"context"
	"time"
)

// Outcome tags the terminal state of a polling loop.
type Outcome int

const (
	// Success means the success predicate matched a check result.
	Success Outcome = iota

	// Failed means the failure predicate matched a check result.
	Failed

	// TimedOut means the wall-clock deadline elapsed, or the context was
	// cancelled, before either predicate matched.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	}
	return "unknown"
}

// Options controls the cadence and budget of a polling loop.
type Options struct {
	// Interval is the delay between consecutive checks.
	Interval time.Duration

	// Deadline is the total wall-clock budget. The loop always runs the
	// check at least once, so an already-completed job returns Success
	// immediately regardless of the deadline.
	Deadline time.Duration
}

// Result is the tagged outcome of a polling loop.
type Result[T any] struct {
	// Outcome is Success, Failed, or TimedOut.
	Outcome Outcome

	// Payload is the last check result observed. On TimedOut it may be a
	// partial result (e.g. sources seen so far); callers decide whether
	// partial data is usable.
	Payload T

	// Reason describes a Failed or TimedOut outcome.
	Reason string

	// Attempts is the number of check invocations, including errored ones.
	Attempts int

	// TransientErrors counts check invocations that returned an error and
	// were retried rather than propagated.
	TransientErrors int

	// Elapsed is the total wall-clock time spent in the loop.
	Elapsed time.Duration
}

// Until invokes check on a fixed interval until the done predicate matches
// (Success), the failed predicate returns a reason (Failed), or the
// deadline elapses (TimedOut).
//
// Errors from check are treated as transient: they are counted and the
// loop retries after the usual interval. They are never propagated, except
// that a cancelled context ends the loop with TimedOut.
//
// The first check runs before any sleep, and a final check runs at the
// deadline, so the loop terminates at or just after opts.Deadline. failed
// may be nil when the job has no observable failure state.
func Until[T any](ctx context.Context, check func(context.Context) (T, error), done func(T) bool, failed func(T) (string, bool), opts Options) Result[T] {
	start := time.Now()
	deadline := start.Add(opts.Deadline)

	var res Result[T]
	for {
		res.Attempts++

		v, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				res.Outcome = TimedOut
				res.Reason = ctx.Err().Error()
				res.Elapsed = time.Since(start)
				return res
			}
			res.TransientErrors++
		} else {
			res.Payload = v
			if failed != nil {
				if reason, bad := failed(v); bad {
					res.Outcome = Failed
					res.Reason = reason
					res.Elapsed = time.Since(start)
					return res
				}
			}
			if done(v) {
				res.Outcome = Success
				res.Elapsed = time.Since(start)
				return res
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			res.Outcome = TimedOut
			res.Reason = "deadline elapsed"
			res.Elapsed = time.Since(start)
			return res
		}

		wait := opts.Interval
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			res.Outcome = TimedOut
			res.Reason = ctx.Err().Error()
			res.Elapsed = time.Since(start)
			return res
		case <-time.After(wait):
		}
	}
}
