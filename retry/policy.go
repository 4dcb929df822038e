/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy defines the delay strategy between attempts.
// The number of attempts is limited by Options.Retries, not by the policy,
// though a policy may stop earlier by returning backoff.Stop.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// NoDelayPolicy retries immediately. It is used when Options.Policy is nil.
type NoDelayPolicy struct{}

// NewBackOff implements retry.Policy.
func (NoDelayPolicy) NewBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

// ConstantBackoffPolicy means constant interval delays between attempts.
type ConstantBackoffPolicy struct {
	interval time.Duration
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval.
func NewConstantBackoffPolicy(interval time.Duration) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(p.interval)
}

// ExponentialBackoffPolicy means exponentially growing delays (1.5 multiplier, randomized) between attempts.
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval.
// Zero maxInterval keeps the backoff library's default cap.
func NewExponentialBackoffPolicy(initialInterval, maxInterval time.Duration) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxInterval}
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	if p.maxInterval > 0 {
		eb.MaxInterval = p.maxInterval
	}
	// The attempt budget is owned by Options.Retries.
	eb.MaxElapsedTime = 0
	eb.Reset()
	return eb
}
