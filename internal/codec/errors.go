// internal/codec/errors.go
package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned (wrapped in *EncodeError) when a value does not
// fit the bit width of its target type.
var ErrOutOfRange = errors.New("codec: value out of range")

// ErrInvalidOrder marks a byte or word order outside BIG/LITTLE.
var ErrInvalidOrder = errors.New("codec: invalid byte or word order")

// EncodeError reports which value failed to encode and why.
type EncodeError struct {
	Type  Type
	Index int
	Value any
	Err   error
}

func (e *EncodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("codec: encode %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("codec: encode %s value %d (%v): %v", e.Type, e.Index, e.Value, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a register run that could not be decoded.
type DecodeError struct {
	Type Type
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
