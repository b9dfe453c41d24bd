// internal/transport/errors.go
package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTimeout matches (errors.Is) any error produced by Timeout.
var ErrTimeout = errors.New("transport: timeout")

// Timeout marks err as a link timeout while keeping it as the cause.
func Timeout(err error) error {
	if err == nil {
		return nil
	}
	return &timeoutError{err: err}
}

type timeoutError struct{ err error }

func (e *timeoutError) Error() string        { return "timeout: " + e.err.Error() }
func (e *timeoutError) Unwrap() error        { return e.err }
func (e *timeoutError) Is(target error) bool { return target == ErrTimeout }

// ExceptionError is an exception response returned by the device.
type ExceptionError struct {
	Function byte // request function code, exception bit cleared
	Code     byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception 0x%02X (%s) on function 0x%02X", e.Code, ExceptionName(e.Code), e.Function)
}

var exceptionNames = map[byte]string{
	0x01: "illegal function",
	0x02: "illegal data address",
	0x03: "illegal data value",
	0x04: "server device failure",
	0x05: "acknowledge",
	0x06: "server device busy",
	0x07: "negative acknowledge",
	0x08: "memory parity error",
	0x0A: "gateway path unavailable",
	0x0B: "gateway target device failed to respond",
}

// ExceptionName is the protocol name of an exception code.
func ExceptionName(code byte) string {
	if s, ok := exceptionNames[code]; ok {
		return s
	}
	return "unknown"
}
