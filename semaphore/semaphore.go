/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package semaphore

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acronis/go-flowctl/log"
)

// ErrPurged is returned by Acquire when the waiting caller was failed by Purge.
var ErrPurged = errors.New("task has been purged")

// ErrImbalancedRelease is the panic value of Release called without a matching admission.
var ErrImbalancedRelease = errors.New("semaphore: imbalanced release, released more than held")

type waiter struct {
	ready chan struct{} // closed when the waiter is admitted or purged
	err   error         // set (before closing ready) when purged
}

// Semaphore is a counting semaphore that admits waiters strictly in arrival order.
type Semaphore struct {
	capacity int

	mu      sync.Mutex
	inUse   int
	stale   int // holders admitted before the last Purge that have not released yet
	waiters list.List

	logger           log.FieldLogger
	metricsCollector MetricsCollector
}

// Options represents options for the semaphore.
type Options struct {
	// Logger is used to report purges. Can be nil, in this case nothing is logged.
	Logger log.FieldLogger

	// MetricsCollector receives in-use/waiting gauges and purge counts.
	// Can be nil, in this case, metrics will be disabled.
	MetricsCollector MetricsCollector
}

// New creates a new Semaphore with the given capacity.
func New(capacity int) (*Semaphore, error) {
	return NewWithOpts(capacity, Options{})
}

// NewWithOpts creates a new Semaphore with the given capacity and options.
// Zero capacity is allowed: such a semaphore never admits anybody until purged.
func NewWithOpts(capacity int, opts Options) (*Semaphore, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must be greater or equal to 0, got %d", capacity)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}
	return &Semaphore{
		capacity:         capacity,
		logger:           opts.Logger,
		metricsCollector: opts.MetricsCollector,
	}, nil
}

// Capacity returns the maximum number of concurrently admitted holders.
func (s *Semaphore) Capacity() int {
	return s.capacity
}

// InUse returns the number of currently admitted holders.
func (s *Semaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// Waiting returns the number of queued callers.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

// Acquire blocks until the caller is admitted, ctx is done or the caller is purged.
// Callers are admitted strictly in arrival order: nobody overtakes a queued waiter.
// On success the caller must call Release exactly once.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.inUse < s.capacity && s.waiters.Len() == 0 {
		s.inUse++
		s.updateMetrics()
		s.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := s.waiters.PushBack(w)
	s.updateMetrics()
	s.mu.Unlock()

	select {
	case <-w.ready:
		return w.err

	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-w.ready:
			// Admitted or purged concurrently with the cancellation.
			if w.err != nil {
				s.mu.Unlock()
				return w.err
			}
			s.release()
		default:
			s.waiters.Remove(elem)
			// The removed waiter may have been blocking the ones behind it.
			s.take()
		}
		s.updateMetrics()
		s.mu.Unlock()
		return ctx.Err()
	}
}

// TryAcquire admits the caller only if it can be done without waiting.
// It reports whether the caller was admitted.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse < s.capacity && s.waiters.Len() == 0 {
		s.inUse++
		s.updateMetrics()
		return true
	}
	return false
}

// Release gives back one admission and admits the head waiter if capacity allows.
// Calling Release without a matching successful Acquire/TryAcquire is a programming error and panics.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
	s.updateMetrics()
}

// Take admits the head waiter if there is one and capacity remains.
// It reports whether a waiter was admitted.
func (s *Semaphore) Take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	admitted := s.take()
	s.updateMetrics()
	return admitted
}

// Purge fails every queued waiter with ErrPurged, clears the queue and resets the in-use counter to 0.
// Holders admitted before the purge are not notified and still have to call Release;
// those releases are accounted separately and never free capacity admitted after the purge.
// Purge returns the number of purged waiters.
func (s *Semaphore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := s.waiters.Len()
	for e := s.waiters.Front(); e != nil; e = e.Next() {
		w := e.Value.(*waiter)
		w.err = ErrPurged
		close(w.ready)
	}
	s.waiters.Init()
	s.stale += s.inUse
	s.inUse = 0

	s.updateMetrics()
	s.metricsCollector.AddPurged(purged)
	if purged > 0 {
		s.logger.Warn("semaphore purged", log.Int("purged", purged), log.Int("capacity", s.capacity))
	}
	return purged
}

// release must be called with s.mu held.
func (s *Semaphore) release() {
	switch {
	case s.stale > 0:
		s.stale--
	case s.inUse > 0:
		s.inUse--
	default:
		panic(ErrImbalancedRelease)
	}
	s.take()
}

// take must be called with s.mu held.
func (s *Semaphore) take() bool {
	if s.inUse >= s.capacity {
		return false
	}
	front := s.waiters.Front()
	if front == nil {
		return false
	}
	s.inUse++
	s.waiters.Remove(front)
	close(front.Value.(*waiter).ready)
	return true
}

// updateMetrics must be called with s.mu held.
func (s *Semaphore) updateMetrics() {
	s.metricsCollector.SetInUse(s.inUse)
	s.metricsCollector.SetWaiting(s.waiters.Len())
}
