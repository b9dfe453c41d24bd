// internal/chunk/chunk.go
package chunk

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
)

// Conventional per-call ceilings.
const (
	MaxRegistersPerCall = 123  // holding / input registers, read and write
	MaxBitsPerCall      = 2000 // coil / discrete input reads
	MaxBitsPerWrite     = 1968 // coil writes (FC 15)
)

var (
	ErrEmptyRange  = errors.New("chunk: count must be >= 1")
	ErrZeroLimit   = errors.New("chunk: max per call must be >= 1")
	ErrAddressWrap = errors.New("chunk: range exceeds address space")
)

// Range is a contiguous span of registers or bits.
type Range struct {
	Address uint16
	Count   uint16
}

// Inclusive builds a Range from first and last address.
func Inclusive(start, end uint16) (Range, error) {
	if end < start {
		return Range{}, errors.Errorf("chunk: end address %d before start %d", end, start)
	}
	n := int(end) - int(start) + 1
	if n > 0xFFFF {
		return Range{}, errors.Errorf("chunk: span %d-%d too large", start, end)
	}
	return Range{Address: start, Count: uint16(n)}, nil
}

// End is the exclusive upper bound of r.
func (r Range) End() int { return int(r.Address) + int(r.Count) }

func (r Range) String() string { return fmt.Sprintf("%d+%d", r.Address, r.Count) }

// Plan splits r into consecutive sub-ranges of at most max each.
// The result covers r exactly, in address order.
func Plan(r Range, max uint16) ([]Range, error) {
	if r.Count == 0 {
		return nil, ErrEmptyRange
	}
	if max == 0 {
		return nil, ErrZeroLimit
	}
	if r.End() > 0x10000 {
		return nil, ErrAddressWrap
	}

	out := make([]Range, 0, (int(r.Count)+int(max)-1)/int(max))
	for off := 0; off < int(r.Count); off += int(max) {
		n := int(r.Count) - off
		if n > int(max) {
			n = int(max)
		}
		out = append(out, Range{Address: r.Address + uint16(off), Count: uint16(n)})
	}
	return out, nil
}

// Op performs one bounded transport call for a planned chunk.
// The returned exchange is recorded even when err is non-nil.
type Op[T any] func(r Range) ([]T, packet.Exchange, error)

// Execute runs op once per chunk, in order, concatenating results and
// exchanges. It stops at the first failing chunk and returns the exchanges
// captured up to and including that chunk.
func Execute[T any](chunks []Range, op Op[T]) ([]T, []packet.Exchange, error) {
	var (
		out []T
		ex  = make([]packet.Exchange, 0, len(chunks))
	)
	for i, c := range chunks {
		vals, e, err := op(c)
		ex = append(ex, e)
		if err != nil {
			return nil, ex, errors.Wrapf(err, "chunk %d/%d (%s)", i+1, len(chunks), c)
		}
		out = append(out, vals...)
	}
	return out, ex, nil
}
