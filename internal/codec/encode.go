// internal/codec/encode.go
package codec

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Encode packs values into registers. It is the inverse of Decode for the
// numeric, BOOL and BYTE types.
//
// Integer targets accept any Go integer (or an integral float) and fail with
// ErrOutOfRange when the value does not fit. ASCII takes exactly one string;
// an odd trailing character is padded with a NUL byte before the byte order
// is applied, so with ByteOrderLittle the last character of odd-length text
// lands in the low byte rather than the high byte. UNIX_TIMESTAMP accepts
// time.Time or integer seconds in the uint32 range.
func (c Codec) Encode(values []any, t Type) ([]uint16, error) {
	if !c.ByteOrder.valid() || !c.WordOrder.valid() {
		return nil, &EncodeError{Type: t, Index: -1, Err: ErrInvalidOrder}
	}

	switch t {
	case TypeBool:
		return encodeBits(values)
	case TypeByte:
		raw := make([]byte, 0, len(values)+1)
		for i, v := range values {
			n, err := toInteger(v)
			if err != nil {
				return nil, &EncodeError{Type: t, Index: i, Value: v, Err: err}
			}
			b, ok := unsignedFrom[uint8](n)
			if !ok {
				return nil, &EncodeError{Type: t, Index: i, Value: v, Err: ErrOutOfRange}
			}
			raw = append(raw, b)
		}
		return c.packBytes(raw), nil
	case TypeASCII:
		return c.encodeASCII(values)
	}

	width, ok := WordsPerValue(t)
	if !ok {
		return nil, &EncodeError{Type: t, Index: -1, Err: errors.New("unknown logical type")}
	}

	out := make([]uint16, 0, width*len(values))
	buf := make([]byte, 2*width)
	for i, v := range values {
		if err := putValue(buf, v, t); err != nil {
			return nil, &EncodeError{Type: t, Index: i, Value: v, Err: err}
		}
		out = append(out, groupWords(buf, c.ByteOrder, c.WordOrder)...)
	}
	return out, nil
}

func putValue(buf []byte, v any, t Type) error {
	switch t {
	case TypeFloat32, TypeFloat64:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		if t == TypeFloat64 {
			binary.BigEndian.PutUint64(buf, math.Float64bits(f))
			return nil
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return ErrOutOfRange
		}
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return nil

	case TypeUnixTimestamp:
		if tm, ok := v.(time.Time); ok {
			v = tm.Unix()
		}
		n, err := toInteger(v)
		if err != nil {
			return err
		}
		sec, ok := unsignedFrom[uint32](n)
		if !ok {
			return ErrOutOfRange
		}
		binary.BigEndian.PutUint32(buf, sec)
		return nil
	}

	n, err := toInteger(v)
	if err != nil {
		return err
	}

	var ok bool
	switch t {
	case TypeInt16:
		var x int16
		if x, ok = signedFrom[int16](n); ok {
			binary.BigEndian.PutUint16(buf, uint16(x))
		}
	case TypeUint16:
		var x uint16
		if x, ok = unsignedFrom[uint16](n); ok {
			binary.BigEndian.PutUint16(buf, x)
		}
	case TypeInt32:
		var x int32
		if x, ok = signedFrom[int32](n); ok {
			binary.BigEndian.PutUint32(buf, uint32(x))
		}
	case TypeUint32:
		var x uint32
		if x, ok = unsignedFrom[uint32](n); ok {
			binary.BigEndian.PutUint32(buf, x)
		}
	case TypeInt64:
		var x int64
		if x, ok = signedFrom[int64](n); ok {
			binary.BigEndian.PutUint64(buf, uint64(x))
		}
	case TypeUint64:
		var x uint64
		if x, ok = unsignedFrom[uint64](n); ok {
			binary.BigEndian.PutUint64(buf, x)
		}
	}
	if !ok {
		return ErrOutOfRange
	}
	return nil
}

func encodeBits(values []any) ([]uint16, error) {
	out := make([]uint16, (len(values)+15)/16)
	for i, v := range values {
		b, ok := v.(bool)
		if !ok {
			return nil, &EncodeError{Type: TypeBool, Index: i, Value: v, Err: errors.Errorf("want bool, got %T", v)}
		}
		if b {
			out[i/16] |= 1 << (i % 16)
		}
	}
	return out, nil
}

func (c Codec) encodeASCII(values []any) ([]uint16, error) {
	if len(values) != 1 {
		return nil, &EncodeError{Type: TypeASCII, Index: -1, Err: errors.Errorf("want one string, got %d values", len(values))}
	}
	s, ok := values[0].(string)
	if !ok {
		return nil, &EncodeError{Type: TypeASCII, Index: 0, Value: values[0], Err: errors.Errorf("want string, got %T", values[0])}
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, &EncodeError{Type: TypeASCII, Index: 0, Value: s, Err: errors.Errorf("non-ASCII byte 0x%02X at offset %d", s[i], i)}
		}
	}
	return c.packBytes([]byte(s)), nil
}

// packBytes pads raw to an even length with NUL and lays out each pair per
// the byte order.
func (c Codec) packBytes(raw []byte) []uint16 {
	if len(raw)%2 == 1 {
		raw = append(raw, 0)
	}
	out := make([]uint16, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		out = append(out, wordOf(raw[i], raw[i+1], c.ByteOrder))
	}
	return out
}

// ---- numeric conversion ----

// integer is a sign-magnitude view of any Go integer.
type integer struct {
	mag uint64
	neg bool
}

func toInteger(v any) (integer, error) {
	switch x := v.(type) {
	case int:
		return fromSigned(x), nil
	case int8:
		return fromSigned(x), nil
	case int16:
		return fromSigned(x), nil
	case int32:
		return fromSigned(x), nil
	case int64:
		return fromSigned(x), nil
	case uint:
		return integer{mag: uint64(x)}, nil
	case uint8:
		return integer{mag: uint64(x)}, nil
	case uint16:
		return integer{mag: uint64(x)}, nil
	case uint32:
		return integer{mag: uint64(x)}, nil
	case uint64:
		return integer{mag: x}, nil
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	}
	return integer{}, errors.Errorf("want integer, got %T", v)
}

func fromSigned[T constraints.Signed](x T) integer {
	if x < 0 {
		// two's complement negation keeps MinInt64 exact
		return integer{mag: uint64(-int64(x)), neg: true}
	}
	return integer{mag: uint64(x)}
}

func fromFloat(f float64) (integer, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return integer{}, errors.Errorf("%v is not an integer", f)
	}
	if f >= 0x1p64 || f < -0x1p63 {
		return integer{}, ErrOutOfRange
	}
	if f < 0 {
		return integer{mag: uint64(-f), neg: true}, nil
	}
	return integer{mag: uint64(f)}, nil
}

// signedFrom narrows n to T, reporting whether it fits.
func signedFrom[T constraints.Signed](n integer) (T, bool) {
	if !n.neg && n.mag > math.MaxInt64 {
		return 0, false
	}
	if n.neg && n.mag > 1<<63 {
		return 0, false
	}
	v := int64(n.mag)
	if n.neg {
		v = -v
	}
	t := T(v)
	return t, int64(t) == v
}

// unsignedFrom narrows n to T, reporting whether it fits.
func unsignedFrom[T constraints.Unsigned](n integer) (T, bool) {
	if n.neg && n.mag != 0 {
		return 0, false
	}
	t := T(n.mag)
	return t, uint64(t) == n.mag
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	n, err := toInteger(v)
	if err != nil {
		return 0, errors.Errorf("want number, got %T", v)
	}
	f := float64(n.mag)
	if n.neg {
		f = -f
	}
	return f, nil
}
