/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/acronis/go-flowctl/log"
	"github.com/acronis/go-flowctl/log/logtest"
	"github.com/acronis/go-flowctl/testutil"
	"github.com/acronis/go-flowctl/timeout"
)

var errUnavailable = errors.New("service unavailable")

func alwaysFailing(calls *atomic.Int32) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		calls.Inc()
		return "", errUnavailable
	}
}

func TestDo_ExhaustionCount(t *testing.T) {
	var calls atomic.Int32
	logRecorder := logtest.NewRecorder()
	metrics := NewPrometheusMetrics()

	_, err := Do(context.Background(), alwaysFailing(&calls), Options{
		Name: "fetch", Retries: 3, Logger: logRecorder, MetricsCollector: metrics,
	})
	require.EqualValues(t, 4, calls.Load())
	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, errUnavailable, "the last cause must be preserved")
	require.EqualError(t, err, "retried operation fetch failed after 4 attempt(s): service unavailable")

	var exhaustedErr *ExhaustedError
	require.True(t, errors.As(err, &exhaustedErr))
	require.Equal(t, 4, exhaustedErr.Attempts)

	entry, found := logRecorder.FindEntry("retried operation failed")
	require.True(t, found)
	require.Equal(t, log.LevelError, entry.Level)
	require.Equal(t, "fetch", entry.StringField(log.FieldKeyProcess))
	require.Len(t, logRecorder.FindAllEntries("attempt failed, retrying"), 3)

	retryIDs := map[string]struct{}{}
	for _, e := range logRecorder.Entries() {
		retryIDs[e.StringField("retry_id")] = struct{}{}
	}
	require.Len(t, retryIDs, 1, "all entries of a chain share one retry id")

	testutil.RequireSamplesCountInCounter(t, metrics.AttemptsTotal, 4)
	testutil.RequireSamplesCountInCounter(t, metrics.ExhaustedTotal, 1)
}

func TestDo_ShortCircuitOnSuccess(t *testing.T) {
	var calls atomic.Int32
	logRecorder := logtest.NewRecorder()
	got, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		if calls.Inc() <= 2 {
			return 0, errUnavailable
		}
		return 7, nil
	}, Options{Name: "flaky", Retries: 5, Logger: logRecorder})
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.EqualValues(t, 3, calls.Load())

	entry, found := logRecorder.FindEntry("retried operation succeeded")
	require.True(t, found)
	require.Equal(t, "success", entry.StringField(log.FieldKeyOutcome))
	_, found = logRecorder.FindEntry("retried operation failed")
	require.False(t, found)
}

func TestDo_FirstAttemptSuccessIsNotReported(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	got, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		return "ok", nil
	}, Options{Retries: 2, Logger: logRecorder})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Empty(t, logRecorder.Entries())
}

func TestDo_TimeoutTriggersRetry(t *testing.T) {
	var calls atomic.Int32
	slowOp := func(ctx context.Context) (string, error) {
		calls.Inc()
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	}

	start := time.Now()
	_, err := Do(context.Background(), slowOp, Options{Name: "slow", Timeout: 20 * time.Millisecond, Retries: 1})
	require.Less(t, time.Since(start), 90*time.Millisecond)
	require.EqualValues(t, 2, calls.Load())
	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, timeout.ErrTimeout)

	var timeoutErr *timeout.Error
	require.True(t, errors.As(err, &timeoutErr))
	require.Equal(t, "slow", timeoutErr.Op)
}

func TestDo_NoRetries(t *testing.T) {
	for _, retries := range []int{0, -2} {
		var calls atomic.Int32
		_, err := Do(context.Background(), alwaysFailing(&calls), Options{Retries: retries})
		require.ErrorIs(t, err, ErrExhausted)
		require.EqualValues(t, 1, calls.Load())
	}
}

func TestDo_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		if calls.Inc() == 2 {
			cancel()
		}
		return 0, errUnavailable
	}, Options{Retries: 10})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrExhausted)
	require.EqualValues(t, 2, calls.Load())
}

func TestDo_ContextDoneDuringDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	var calls atomic.Int32
	_, err := Do(ctx, alwaysFailing(&calls), Options{Retries: 3, Policy: NewConstantBackoffPolicy(time.Second)})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 1, calls.Load())
}

func TestDo_Notify(t *testing.T) {
	var calls atomic.Int32
	var notified []int
	_, err := Do(context.Background(), alwaysFailing(&calls), Options{
		Retries: 2,
		Notify: func(err error, attempt int, delay time.Duration) {
			require.ErrorIs(t, err, errUnavailable)
			require.Zero(t, delay)
			notified = append(notified, attempt)
		},
	})
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, []int{1, 2}, notified)
}

func TestDo_ConstantPolicy(t *testing.T) {
	var calls atomic.Int32
	start := time.Now()
	_, err := Do(context.Background(), alwaysFailing(&calls), Options{
		Retries: 2, Policy: NewConstantBackoffPolicy(20 * time.Millisecond),
	})
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	require.ErrorIs(t, err, ErrExhausted)
	require.EqualValues(t, 3, calls.Load())
}

func TestDo_Limiter(t *testing.T) {
	var calls atomic.Int32
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	start := time.Now()
	_, err := Do(context.Background(), alwaysFailing(&calls), Options{Retries: 2, Limiter: limiter})
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	require.ErrorIs(t, err, ErrExhausted)
	require.EqualValues(t, 3, calls.Load())
}

func TestDo_PolicyStopsEarly(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		wantAttempts int
	}{
		{"stop", PolicyFunc(func() backoff.BackOff { return &backoff.StopBackOff{} }), 1},
		{"own limit", PolicyFunc(func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }), 2},
		{"retries win", PolicyFunc(func() backoff.BackOff { return &backoff.ZeroBackOff{} }), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			_, err := Do(context.Background(), alwaysFailing(&calls), Options{Retries: 5, Policy: tt.policy})
			require.ErrorIs(t, err, ErrExhausted)
			var exhaustedErr *ExhaustedError
			require.True(t, errors.As(err, &exhaustedErr))
			require.Equal(t, tt.wantAttempts, exhaustedErr.Attempts)
			require.EqualValues(t, tt.wantAttempts, calls.Load())
		})
	}
}

func TestDo_PermanentError(t *testing.T) {
	var calls atomic.Int32
	errBadRequest := errors.New("bad request")
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls.Inc()
		return 0, backoff.Permanent(errBadRequest)
	}, Options{Name: "upload", Retries: 5})
	require.EqualValues(t, 1, calls.Load())
	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, errBadRequest)
	require.EqualError(t, err, "retried operation upload failed after 1 attempt(s): bad request")
}

func fetchManifest(ctx context.Context) error {
	return errUnavailable
}

func TestDoErr(t *testing.T) {
	err := DoErr(context.Background(), fetchManifest, Options{Retries: 1})
	require.ErrorIs(t, err, ErrExhausted)

	var exhaustedErr *ExhaustedError
	require.True(t, errors.As(err, &exhaustedErr))
	require.Equal(t, "retry.fetchManifest", exhaustedErr.Name)
	require.Equal(t, 2, exhaustedErr.Attempts)

	require.NoError(t, DoErr(context.Background(), func(ctx context.Context) error { return nil }, Options{}))
}
