// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Result is the tagged outcome of one upstream call: either a payload or a
// short human-readable failure reason. Gateways return a Result instead of an
// error so that failures travel as data through the fan-out.
type Result[T any] struct {
	value  T
	reason string
	failed bool
}

// OK wraps a successful payload.
func OK[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failed builds a failed Result. An empty reason is replaced with
// "unknown error" so a failure is never rendered as a blank line.
func Failed[T any](reason string) Result[T] {
	if reason == "" {
		reason = "unknown error"
	}
	return Result[T]{reason: reason, failed: true}
}

// Ok reports whether the call succeeded.
func (r Result[T]) Ok() bool { return !r.failed }

// Value returns the payload. It is the zero value for a failed Result.
func (r Result[T]) Value() T { return r.value }

// Reason returns the failure reason, or "" on success.
func (r Result[T]) Reason() string { return r.reason }

// Unwrap returns the payload together with the failure reason.
func (r Result[T]) Unwrap() (T, string, bool) {
	return r.value, r.reason, !r.failed
}
