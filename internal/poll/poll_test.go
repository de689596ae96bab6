// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobState struct {
	state   string
	sources int
}

func isDone(s jobState) bool { return s.state == "completed" }

func isFailed(s jobState) (string, bool) {
	if s.state == "failed" {
		return "job failed", true
	}
	return "", false
}

func fastOpts() Options {
	return Options{Interval: time.Millisecond, Deadline: time.Second}
}

func TestUntil_SuccessOnNthCall(t *testing.T) {
	const n = 4
	calls := 0
	check := func(context.Context) (jobState, error) {
		calls++
		if calls == n {
			return jobState{state: "completed", sources: 7}, nil
		}
		return jobState{state: "pending"}, nil
	}

	res := Until(context.Background(), check, isDone, isFailed, fastOpts())

	assert.Equal(t, Success, res.Outcome)
	assert.Equal(t, n, res.Attempts)
	assert.Equal(t, n, calls)
	assert.Equal(t, 7, res.Payload.sources)
	assert.Zero(t, res.TransientErrors)
}

func TestUntil_AlwaysPendingTimesOut(t *testing.T) {
	check := func(context.Context) (jobState, error) {
		return jobState{state: "pending"}, nil
	}

	opts := Options{Interval: 5 * time.Millisecond, Deadline: 40 * time.Millisecond}
	start := time.Now()
	res := Until(context.Background(), check, isDone, isFailed, opts)
	elapsed := time.Since(start)

	assert.Equal(t, TimedOut, res.Outcome)
	assert.Equal(t, "deadline elapsed", res.Reason)
	// Terminates at or just after the deadline, never loops forever.
	assert.GreaterOrEqual(t, elapsed, opts.Deadline)
	assert.Less(t, elapsed, 10*opts.Deadline)
	assert.Greater(t, res.Attempts, 1)
}

func TestUntil_FailureStopsWithoutWaitingForDeadline(t *testing.T) {
	const k = 3
	calls := 0
	check := func(context.Context) (jobState, error) {
		calls++
		if calls == k {
			return jobState{state: "failed"}, nil
		}
		return jobState{state: "pending"}, nil
	}

	res := Until(context.Background(), check, isDone, isFailed, Options{
		Interval: time.Millisecond,
		Deadline: time.Minute,
	})

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, "job failed", res.Reason)
	assert.Equal(t, k, res.Attempts)
}

func TestUntil_TransientErrorsAreSwallowed(t *testing.T) {
	calls := 0
	check := func(context.Context) (jobState, error) {
		calls++
		if calls <= 2 {
			return jobState{}, errors.New("connection reset")
		}
		return jobState{state: "completed"}, nil
	}

	res := Until(context.Background(), check, isDone, isFailed, fastOpts())

	assert.Equal(t, Success, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2, res.TransientErrors)
}

func TestUntil_ImmediateSuccessIsIdempotent(t *testing.T) {
	check := func(context.Context) (jobState, error) {
		return jobState{state: "completed"}, nil
	}

	// An already-completed job returns success twice, with one check each
	// and no sleeping.
	for i := 0; i < 2; i++ {
		start := time.Now()
		res := Until(context.Background(), check, isDone, isFailed, Options{
			Interval: time.Second,
			Deadline: time.Minute,
		})
		require.Equal(t, Success, res.Outcome, "run %d", i)
		assert.Equal(t, 1, res.Attempts, "run %d", i)
		assert.Less(t, time.Since(start), 100*time.Millisecond, "run %d", i)
	}
}

func TestUntil_ContextCancelledDuringWait(t *testing.T) {
	check := func(context.Context) (jobState, error) {
		return jobState{state: "pending"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := Until(ctx, check, isDone, isFailed, Options{
		Interval: time.Minute,
		Deadline: time.Hour,
	})

	assert.Equal(t, TimedOut, res.Outcome)
	assert.Contains(t, res.Reason, context.Canceled.Error())
}

func TestUntil_NilFailurePredicate(t *testing.T) {
	check := func(context.Context) (jobState, error) {
		return jobState{state: "completed"}, nil
	}

	res := Until(context.Background(), check, isDone, nil, fastOpts())
	assert.Equal(t, Success, res.Outcome)
}

func TestUntil_PartialPayloadOnTimeout(t *testing.T) {
	check := func(context.Context) (jobState, error) {
		return jobState{state: "pending", sources: 3}, nil
	}

	res := Until(context.Background(), check, isDone, isFailed, Options{
		Interval: time.Millisecond,
		Deadline: 10 * time.Millisecond,
	})

	require.Equal(t, TimedOut, res.Outcome)
	// The last observation survives so callers can proceed best effort.
	assert.Equal(t, 3, res.Payload.sources)
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Success, "success"},
		{Failed, "failed"},
		{TimedOut, "timed out"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.o.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func ExampleUntil() {
	calls := 0
	check := func(context.Context) (string, error) {
		calls++
		if calls >= 2 {
			return "completed", nil
		}
		return "pending", nil
	}

	res := Until(context.Background(), check,
		func(s string) bool { return s == "completed" },
		nil,
		Options{Interval: time.Millisecond, Deadline: time.Second})

	fmt.Println(res.Outcome, res.Attempts)
	// Output: success 2
}
