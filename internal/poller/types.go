// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/session"
)

// ReadBlock describes one polled range. Start and End are inclusive.
// Type and orders are ignored for coil / discrete areas.
type ReadBlock struct {
	Name      string
	Area      session.Area
	Start     uint16
	End       uint16
	Type      codec.Type
	ByteOrder codec.ByteOrder
	WordOrder codec.WordOrder
}

// BlockResult is the decoded result of a single read.
type BlockResult struct {
	Block ReadBlock

	// Exactly one of these is used depending on Area.
	Bits   []bool // coil, discrete
	Values []any  // holding, input (decoded)

	Registers []uint16 // raw words, register areas only
	Sent      string
	Received  string
	Retried   bool
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Name string
	Seq  uint64
	At   time.Time

	// RawErrorCode is the device exception code when the cycle failed on
	// an exception response. 0 otherwise.
	RawErrorCode uint16

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}
