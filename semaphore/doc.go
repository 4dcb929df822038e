/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package semaphore provides a counting semaphore with a strictly FIFO wait queue.
//
// Semaphore limits how many holders may be admitted at once. Callers that cannot be
// admitted immediately are queued in arrival order and are admitted one by one as
// holders call Release. Purge is an administrative hard reset: it fails every queued
// caller with ErrPurged and zeroes the in-use counter.
//
//	sem, err := semaphore.New(4)
//	if err != nil {
//		return err
//	}
//	if err = sem.Acquire(ctx); err != nil {
//		return err // ctx.Err() or ErrPurged
//	}
//	defer sem.Release()
package semaphore
