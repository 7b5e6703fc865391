package boundary

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a boundary failure so callers can decide whether to retry,
// fail the phase, or report the run as inconclusive.
type Kind string

const (
	// KindTransient failures are retried with backoff.
	KindTransient Kind = "transient"
	// KindTransport failures are connection or authentication problems that a
	// retry will not fix.
	KindTransport Kind = "transport"
	// KindLogical failures are well formed responses that were wrong.
	KindLogical Kind = "logical"
	// KindConfig failures are detected before any phase runs.
	KindConfig Kind = "config"
	// KindInconclusive marks a wait that ran out of time or was cancelled.
	KindInconclusive Kind = "inconclusive"
)

// Error is the error type returned across boundary interfaces.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind and operation name.
func NewError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transient(op string, err error) error    { return NewError(KindTransient, op, err) }
func Transport(op string, err error) error    { return NewError(KindTransport, op, err) }
func Logical(op string, err error) error      { return NewError(KindLogical, op, err) }
func Config(op string, err error) error       { return NewError(KindConfig, op, err) }
func Inconclusive(op string, err error) error { return NewError(KindInconclusive, op, err) }

// KindOf returns the kind of the outermost *Error in err's chain. Errors that
// were never classified are treated as transport failures.
func KindOf(err error) Kind {
	var berr *Error
	if errors.As(err, &berr) {
		return berr.Kind
	}
	return KindTransport
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

// Classify wraps a raw client error, guessing its kind from the network error
// it carries. Errors that are already classified are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var berr *Error
	if errors.As(err, &berr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Inconclusive(op, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return Transient(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(op, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTemporary {
			return Transient(op, err)
		}
		return Transport(op, err)
	}
	return Transport(op, err)
}
