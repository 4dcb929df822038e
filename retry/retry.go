/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retry re-runs a failing or slow operation a bounded number of times.
//
// Every failure, a timeout included, is treated as retryable until the budget is exhausted.
// There is no delay between attempts unless a Policy is given.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/acronis/go-flowctl/log"
	"github.com/acronis/go-flowctl/timeout"
)

// ErrExhausted matches (via errors.Is) every *ExhaustedError.
var ErrExhausted = errors.New("retried operation failed")

// ExhaustedError is returned when all attempts failed. Cause is the failure of the last attempt.
type ExhaustedError struct {
	Name     string
	Attempts int
	Cause    error
}

// Error implements error interface.
func (e *ExhaustedError) Error() string {
	name := e.Name
	if name != "" {
		name += " "
	}
	return fmt.Sprintf("retried operation %sfailed after %d attempt(s): %v", name, e.Attempts, e.Cause)
}

// Unwrap returns the failure of the last attempt.
func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrExhausted) report true.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// NotifyFunc is called after every failed attempt that is going to be retried.
type NotifyFunc func(err error, attempt int, delay time.Duration)

// Options configures Do.
type Options struct {
	// Name identifies the operation in errors and logs. The function name of the operation is used if empty.
	Name string

	// Timeout bounds every attempt. Zero means attempts are not bounded.
	Timeout time.Duration

	// Retries is the number of attempts after the first one. Zero or negative means exactly one attempt.
	Retries int

	// Policy defines delays between attempts. Nil means no delay.
	Policy Policy

	// Limiter, if set, paces retries: every retry waits for it. It may be shared by many retry chains.
	Limiter *rate.Limiter

	// Logger receives the outcome of the retry chain. Can be nil.
	Logger log.FieldLogger

	// Notify, if set, is called after every failed attempt that is going to be retried.
	Notify NotifyFunc

	// MetricsCollector counts attempts and exhausted chains. Can be nil.
	MetricsCollector MetricsCollector
}

// Do runs op until it succeeds or 1+opts.Retries attempts have failed.
// The result of the first successful attempt is returned immediately.
// When all attempts fail, *ExhaustedError wrapping the last failure is returned.
// A failure wrapped with backoff.Permanent ends the chain at once, as does a Policy whose BackOff returns backoff.Stop.
// If ctx is done, Do stops and returns ctx.Err().
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var zero T

	name := opts.Name
	if name == "" {
		name = timeout.FuncName(op)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	logger = logger.With(log.String("retry_id", xid.New().String()))
	metrics := opts.MetricsCollector
	if metrics == nil {
		metrics = disabledMetricsCollector
	}
	policy := opts.Policy
	if policy == nil {
		policy = NoDelayPolicy{}
	}
	// WithMaxRetries treats 0 as "no limit", so a chain without retries stops right away.
	var bo backoff.BackOff = &backoff.StopBackOff{}
	if opts.Retries > 0 {
		bo = backoff.WithMaxRetries(policy.NewBackOff(), uint64(opts.Retries))
	}
	bctx := backoff.WithContext(bo, ctx)

	attemptFn := op
	if opts.Timeout > 0 {
		attemptFn = func(ctx context.Context) (T, error) {
			return timeout.RunNamed(ctx, name, opts.Timeout, op)
		}
	}

	attempt := 0
	var limiterErr error
	var boOp backoff.OperationWithData[T] = func() (T, error) {
		if attempt > 0 && opts.Limiter != nil {
			if limiterErr = opts.Limiter.Wait(bctx.Context()); limiterErr != nil {
				return zero, backoff.Permanent(limiterErr)
			}
		}
		attempt++
		metrics.IncAttempts()
		return attemptFn(bctx.Context())
	}
	notify := func(err error, delay time.Duration) {
		log.Report(logger, log.LevelWarn, "attempt failed, retrying", name,
			log.Int("attempt", attempt), log.Duration("delay", delay), log.Error(err))
		if opts.Notify != nil {
			opts.Notify(err, attempt, delay)
		}
	}

	res, err := backoff.RetryNotifyWithData(boOp, bctx, notify)
	switch {
	case err == nil:
		if attempt > 1 {
			log.Report(logger, log.LevelSuccess, "retried operation succeeded", name, log.Int("attempts", attempt))
		}
		return res, nil
	case ctx.Err() != nil:
		return zero, ctx.Err()
	case limiterErr != nil:
		return zero, limiterErr
	}
	metrics.IncExhausted()
	log.Report(logger, log.LevelError, "retried operation failed", name,
		log.Int("attempts", attempt), log.Error(err))
	return zero, &ExhaustedError{Name: name, Attempts: attempt, Cause: err}
}

// DoErr is Do for operations that return only an error.
func DoErr(ctx context.Context, fn RetryableFunc, opts Options) error {
	if opts.Name == "" {
		opts.Name = timeout.FuncName(fn)
	}
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts)
	return err
}
