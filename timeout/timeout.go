/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package timeout runs an operation racing it against a deadline.
//
// Whichever happens first, the operation settling or the deadline expiring, determines the outcome.
// When the deadline wins, the context passed to the operation is cancelled, but the runner does not
// wait for the operation to return: an operation that ignores its context keeps running in the
// background and its result is discarded.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// ErrTimeout matches (via errors.Is) every *Error returned by this package.
var ErrTimeout = errors.New("operation timed out")

// Error is returned when an operation did not settle within its duration.
type Error struct {
	Op       string
	Duration time.Duration
}

// Error implements error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("operation ran too long (timeout %s)", e.Duration)
	}
	return fmt.Sprintf("operation %s ran too long (timeout %s)", e.Op, e.Duration)
}

// Is makes errors.Is(err, ErrTimeout) report true.
func (e *Error) Is(target error) bool {
	return target == ErrTimeout
}

// PanicError is returned when an operation panics.
type PanicError struct {
	Op    string
	Value interface{}
	Stack []byte
}

// Error implements error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("operation %s panicked: %v", e.Op, e.Value)
}

type outcome[T any] struct {
	val T
	err error
}

// Run runs op and returns its result if it settles within d, or *Error otherwise.
// The name of op's function is used to identify the operation in the error.
func Run[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	return RunNamed(ctx, FuncName(op), d, op)
}

// RunNamed is like Run but identifies the operation by the given name.
// Non-positive d fails immediately with *Error without calling op.
// If ctx is done first, ctx.Err() is returned.
// Errors returned by op are propagated unchanged, a panic in op is returned as *PanicError.
func RunNamed[T any](ctx context.Context, name string, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return zero, &Error{Op: name, Duration: d}
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered, so the losing operation never blocks on send.
	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				const stackSize = 8192
				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				done <- outcome[T]{err: &PanicError{Op: name, Value: p, Stack: stack}}
			}
		}()
		val, err := op(opCtx)
		done <- outcome[T]{val: val, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.val, res.err
	case <-timer.C:
		return zero, &Error{Op: name, Duration: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Do runs fn with the deadline d, see Run.
func Do(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	_, err := RunNamed(ctx, FuncName(fn), d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// FuncName returns the short name of the given function ("" if it cannot be resolved).
func FuncName(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
