// Package response defines the uniform success/error envelope returned by every public operation.
package response

import "errors"

const unknownError = "unknown error"

// Response is the success/error envelope.
// Callers must check Success before reading Result. Success=false always carries Error.
type Response[T any] struct {
	Success bool   `json:"success"`
	Result  *T     `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`

	cause error
}

// OK creates a successful envelope carrying a payload.
func OK[T any](v T) Response[T] {
	return Response[T]{Success: true, Result: &v}
}

// Empty creates a successful envelope with no meaningful payload.
func Empty[T any]() Response[T] {
	return Response[T]{Success: true}
}

// Fail creates a failed envelope. A nil error still yields a non-empty message.
func Fail[T any](err error) Response[T] {
	msg := unknownError
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response[T]{Success: false, Error: msg, cause: err}
}

// FromError converts a (value, error) pair into an envelope.
func FromError[T any](v T, err error) Response[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(v)
}

// Value returns the payload and whether one is present on a successful envelope.
func (r Response[T]) Value() (T, bool) {
	var zero T
	if !r.Success || r.Result == nil {
		return zero, false
	}
	return *r.Result, true
}

// Err returns the envelope failure as an error, or nil on success.
// Envelopes built by Fail keep the original error chain for errors.Is.
func (r Response[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.cause != nil && r.cause.Error() == r.Error {
		return r.cause
	}
	if r.Error == "" {
		return errors.New(unknownError)
	}
	return errors.New(r.Error)
}
