// internal/sink/errors.go
package sink

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind separates failures that may clear by themselves from those that
// need an operator. The dispatcher skips the sink for the cycle either way.
type Kind uint8

const (
	KindTransient Kind = iota + 1
	KindStructural
	KindNotReady
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindStructural:
		return "structural"
	case KindNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// ---- OPERATIONS ----

const (
	OpEnsure = "ensure"
	OpRead   = "read_last"
	OpWrite  = "write"
)

// Error is returned by every Sink method.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Class reports the error class for status tracking.
func (e *Error) Class() string { return e.Kind.String() }

func Transient(op string, err error) error {
	return &Error{Op: op, Kind: KindTransient, Err: err}
}

func Structural(op string, err error) error {
	return &Error{Op: op, Kind: KindStructural, Err: err}
}

func NotReady(op string, err error) error {
	return &Error{Op: op, Kind: KindNotReady, Err: err}
}

// KindOf classifies err. Errors that are not *Error are treated as
// transient when they look like timeouts or transport failures and
// structural otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if IsTransport(err) {
		return KindTransient
	}
	return KindStructural
}

// IsTransport reports whether err is a timeout, cancellation, or network failure.
func IsTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
