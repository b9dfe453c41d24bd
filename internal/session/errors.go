// internal/session/errors.go
package session

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// Kind classifies a session failure.
type Kind uint8

const (
	KindNone Kind = iota
	KindNotConnected
	KindValidation
	KindTransportIO
	KindProtocolFault
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotConnected:
		return "not connected"
	case KindValidation:
		return "validation"
	case KindTransportIO:
		return "transport i/o"
	case KindProtocolFault:
		return "protocol fault"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// retryable kinds trigger the single reconnect-and-retry.
func (k Kind) retryable() bool {
	return k == KindTransportIO || k == KindProtocolFault || k == KindTimeout
}

// Error is returned by every Session operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("session: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("session: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotConnected is the cause of every KindNotConnected error.
var ErrNotConnected = errors.New("no active connection")

// KindOf returns the Kind carried by err, or classifies it when err did not
// come from a Session. nil yields KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return classify(err)
}

// classify maps adapter and codec errors onto the failure taxonomy.
func classify(err error) Kind {
	var xe *transport.ExceptionError
	if errors.As(err, &xe) {
		return KindProtocolFault
	}
	if errors.Is(err, transport.ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	var ee *codec.EncodeError
	if errors.As(err, &ee) {
		return KindValidation
	}
	var de *codec.DecodeError
	if errors.As(err, &de) {
		return KindValidation
	}
	return KindTransportIO
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func validationf(op, format string, args ...any) *Error {
	return newError(KindValidation, op, errors.Errorf(format, args...))
}
