package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the pipeline.
type ErrorKind string

const (
	KindDecodeFailure        ErrorKind = "decode_failure"
	KindEncodeFailure        ErrorKind = "encode_failure"
	KindResourceExhausted    ErrorKind = "resource_exhausted"
	KindUnreachableReference ErrorKind = "unreachable_reference"
	KindCancelled            ErrorKind = "cancelled"
	KindInvalidParameter     ErrorKind = "invalid_parameter"
	KindUnknown              ErrorKind = "unknown"
)

// Sentinel errors for the common kinds.
var (
	ErrDecode            = errors.New("image could not be decoded")
	ErrEncode            = errors.New("image could not be encoded")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrUnreachable       = errors.New("reference could not be resolved")
	ErrCancelled         = errors.New("operation cancelled")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// Error is a classified pipeline error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap classifies err under kind. Context errors are always classified as
// cancellation, and errors that already carry a kind keep it.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCancelled
	} else if existing := KindOf(err); existing != KindUnknown {
		kind = existing
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Cancelled returns a cancellation error for op when ctx is done, nil otherwise.
func Cancelled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindCancelled, Op: op, Err: err}
	}
	return nil
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrDecode):
		return KindDecodeFailure
	case errors.Is(err, ErrEncode):
		return KindEncodeFailure
	case errors.Is(err, ErrResourceExhausted):
		return KindResourceExhausted
	case errors.Is(err, ErrUnreachable):
		return KindUnreachableReference
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
