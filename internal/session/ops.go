// internal/session/ops.go
package session

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/chunk"
	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// Protocol ceilings for FC 23.
const (
	MaxReadWriteRead  = 125
	MaxReadWriteWrite = 121
)

// Area is a Modbus data table.
type Area uint8

const (
	AreaHolding  Area = iota + 1 // FC 3 / 16
	AreaInput                    // FC 4
	AreaCoil                     // FC 1 / 15
	AreaDiscrete                 // FC 2
)

func (a Area) String() string {
	switch a {
	case AreaHolding:
		return "holding"
	case AreaInput:
		return "input"
	case AreaCoil:
		return "coil"
	case AreaDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// Bits reports whether a is a single-bit table.
func (a Area) Bits() bool { return a == AreaCoil || a == AreaDiscrete }

// Writable reports whether a accepts writes.
func (a Area) Writable() bool { return a == AreaHolding || a == AreaCoil }

// ParseArea accepts holding|input|coil|discrete and common plurals.
func ParseArea(s string) (Area, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "holding", "hr":
		return AreaHolding, nil
	case "input", "ir":
		return AreaInput, nil
	case "coil":
		return AreaCoil, nil
	case "discrete", "di":
		return AreaDiscrete, nil
	}
	return 0, errors.Errorf("session: unknown area %q", s)
}

// Read dispatches to ReadRegisters or ReadBits by area.
// t and the orders are ignored for bit areas.
func (s *Session) Read(area Area, start, end uint16, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (Result, error) {
	if area.Bits() {
		return s.ReadBits(area, start, end)
	}
	return s.ReadRegisters(area, start, end, t, bo, wo)
}

// ReadRegisters reads holding or input registers start..end (inclusive),
// chunked to the per-call ceiling, and decodes them as t.
func (s *Session) ReadRegisters(area Area, start, end uint16, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (Result, error) {
	op := "read " + area.String()

	if area != AreaHolding && area != AreaInput {
		return Result{}, validationf(op, "area %s has no registers", area)
	}
	r, err := chunk.Inclusive(start, end)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if w, ok := codec.WordsPerValue(t); ok && int(r.Count)%w != 0 {
		return Result{}, validationf(op, "%d registers is not a whole number of %s values", r.Count, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := chunk.Plan(r, s.maxRegisters)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}

	var words []uint16
	ex, retried, err := s.run(op, func(a transport.Adapter, unit uint8) ([]packet.Exchange, error) {
		read := a.ReadHoldingRegisters
		if area == AreaInput {
			read = a.ReadInputRegisters
		}
		var (
			ex  []packet.Exchange
			err error
		)
		words, ex, err = chunk.Execute[uint16](chunks, func(c chunk.Range) ([]uint16, packet.Exchange, error) {
			return read(unit, c.Address, c.Count)
		})
		return ex, err
	})
	res := Result{Exchanges: ex, Retried: retried}
	if err != nil {
		return res, err
	}

	c := codec.Codec{ByteOrder: bo, WordOrder: wo, Logger: s.log}
	values, err := c.Decode(words, t)
	if err != nil {
		return res, newError(KindValidation, op, err)
	}
	res.Registers = words
	res.Values = values
	return res, nil
}

// ReadBits reads coils or discrete inputs start..end (inclusive).
func (s *Session) ReadBits(area Area, start, end uint16) (Result, error) {
	op := "read " + area.String()

	if !area.Bits() {
		return Result{}, validationf(op, "area %s has no bits", area)
	}
	r, err := chunk.Inclusive(start, end)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := chunk.Plan(r, s.maxBits)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}

	var bits []bool
	ex, retried, err := s.run(op, func(a transport.Adapter, unit uint8) ([]packet.Exchange, error) {
		read := a.ReadCoils
		if area == AreaDiscrete {
			read = a.ReadDiscreteInputs
		}
		var (
			ex  []packet.Exchange
			err error
		)
		bits, ex, err = chunk.Execute[bool](chunks, func(c chunk.Range) ([]bool, packet.Exchange, error) {
			return read(unit, c.Address, c.Count)
		})
		return ex, err
	})
	res := Result{Exchanges: ex, Retried: retried}
	if err != nil {
		return res, err
	}
	res.Bits = bits
	return res, nil
}

// WriteRegisters encodes values as t and writes them to holding registers
// start..end (inclusive). The value count must match the register span
// exactly; ASCII text shorter than the span is NUL padded.
func (s *Session) WriteRegisters(start, end uint16, values []any, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (Result, error) {
	const op = "write holding"

	r, err := chunk.Inclusive(start, end)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if len(values) == 0 {
		return Result{}, validationf(op, "no values to write")
	}
	if w, ok := codec.WordsPerValue(t); ok && len(values)*w != int(r.Count) {
		return Result{}, validationf(op, "%d %s values need %d registers, range has %d", len(values), t, len(values)*w, r.Count)
	}

	c := codec.Codec{ByteOrder: bo, WordOrder: wo, Logger: s.log}
	words, err := c.Encode(values, t)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if t == codec.TypeASCII && len(words) < int(r.Count) {
		words = append(words, make([]uint16, int(r.Count)-len(words))...)
	}
	if len(words) != int(r.Count) {
		return Result{}, validationf(op, "encoded %d registers, range has %d", len(words), r.Count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := chunk.Plan(r, s.maxRegisters)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}

	ex, retried, err := s.run(op, func(a transport.Adapter, unit uint8) ([]packet.Exchange, error) {
		_, ex, err := chunk.Execute[struct{}](chunks, func(c chunk.Range) ([]struct{}, packet.Exchange, error) {
			off := int(c.Address - r.Address)
			e, err := a.WriteRegisters(unit, c.Address, words[off:off+int(c.Count)])
			return nil, e, err
		})
		return ex, err
	})
	res := Result{Registers: words, Exchanges: ex, Retried: retried}
	return res, err
}

// WriteCoils writes values to coils start..end (inclusive).
func (s *Session) WriteCoils(start, end uint16, values []bool) (Result, error) {
	const op = "write coil"

	r, err := chunk.Inclusive(start, end)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if len(values) != int(r.Count) {
		return Result{}, validationf(op, "%d values for %d coils", len(values), r.Count)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.maxBits
	if limit > chunk.MaxBitsPerWrite {
		limit = chunk.MaxBitsPerWrite
	}
	chunks, err := chunk.Plan(r, limit)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}

	ex, retried, err := s.run(op, func(a transport.Adapter, unit uint8) ([]packet.Exchange, error) {
		_, ex, err := chunk.Execute[struct{}](chunks, func(c chunk.Range) ([]struct{}, packet.Exchange, error) {
			off := int(c.Address - r.Address)
			e, err := a.WriteCoils(unit, c.Address, values[off:off+int(c.Count)])
			return nil, e, err
		})
		return ex, err
	})
	return Result{Bits: values, Exchanges: ex, Retried: retried}, err
}

// ReadWriteRegisters performs one FC 23 exchange: values are written at
// writeStart, then readStart..readEnd is read back and decoded as t.
// It is a single call, neither chunked nor retried.
func (s *Session) ReadWriteRegisters(readStart, readEnd, writeStart uint16, values []any, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (Result, error) {
	const op = "read/write holding"

	rr, err := chunk.Inclusive(readStart, readEnd)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if rr.Count > MaxReadWriteRead {
		return Result{}, validationf(op, "read count %d exceeds %d", rr.Count, MaxReadWriteRead)
	}

	c := codec.Codec{ByteOrder: bo, WordOrder: wo, Logger: s.log}
	words, err := c.Encode(values, t)
	if err != nil {
		return Result{}, newError(KindValidation, op, err)
	}
	if len(words) == 0 || len(words) > MaxReadWriteWrite {
		return Result{}, validationf(op, "write count %d outside 1-%d", len(words), MaxReadWriteWrite)
	}
	if int(writeStart)+len(words) > 0x10000 {
		return Result{}, validationf(op, "write range exceeds address space")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil || s.state != StateConnected {
		return Result{}, newError(KindNotConnected, op, ErrNotConnected)
	}

	regs, e, err := s.adapter.ReadWriteRegisters(s.unitID, rr.Address, rr.Count, writeStart, words)
	s.record([]packet.Exchange{e})
	res := Result{Exchanges: []packet.Exchange{e}}
	if err != nil {
		return res, newError(classify(err), op, err)
	}

	decoded, err := c.Decode(regs, t)
	if err != nil {
		return res, newError(KindValidation, op, err)
	}
	res.Registers = regs
	res.Values = decoded
	return res, nil
}
