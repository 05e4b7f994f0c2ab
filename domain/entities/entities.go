package entities

import "fmt"

// FailureKind classifies why a remote call did not succeed
type FailureKind string

const (
	FailureConfiguration FailureKind = "configuration"
	FailureTransport     FailureKind = "transport"
	FailureAPI           FailureKind = "api"
	FailureMalformed     FailureKind = "malformed"
)

// Failure is the failure side of a Result. StatusCode holds the API
// statusCode for api failures and the HTTP status otherwise, when known.
type Failure struct {
	Kind       FailureKind
	Reason     string
	StatusCode int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s error: %s", f.Kind, f.Reason)
}

// Unit is the payload of operations that only report success
type Unit struct{}

// Result is the outcome of exactly one remote call: either a value or a Failure
type Result[T any] struct {
	value   T
	failure *Failure
}

// Success wraps a value
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failure
func Fail[T any](f *Failure) Result[T] {
	return Result[T]{failure: f}
}

// Failed builds a failure result of the given kind
func Failed[T any](kind FailureKind, reason string) Result[T] {
	return Fail[T](&Failure{Kind: kind, Reason: reason})
}

// OK reports whether the call succeeded
func (r Result[T]) OK() bool {
	return r.failure == nil
}

// Value returns the payload; the zero value on failure
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns nil on success
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// Reason returns the failure reason, or "" on success
func (r Result[T]) Reason() string {
	if r.failure == nil {
		return ""
	}
	return r.failure.Reason
}
