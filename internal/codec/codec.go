// internal/codec/codec.go
package codec

import (
	"encoding/binary"
	"log/slog"
	"math"
	"strings"
	"time"
)

// TimestampLayout is how UNIX_TIMESTAMP values are rendered (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// MaxTimestamp is the largest POSIX second accepted for UNIX_TIMESTAMP,
// the full unsigned 32-bit range.
const MaxTimestamp = math.MaxUint32

// Codec converts between register words and typed values.
// The zero value is big-endian on both axes and logs nothing.
type Codec struct {
	ByteOrder ByteOrder
	WordOrder WordOrder

	// Logger receives warnings (unknown types). Nil discards.
	Logger *slog.Logger
}

// Decode is shorthand for Codec{ByteOrder: bo, WordOrder: wo}.Decode.
func Decode(words []uint16, t Type, bo ByteOrder, wo WordOrder) ([]any, error) {
	return Codec{ByteOrder: bo, WordOrder: wo}.Decode(words, t)
}

// Encode is shorthand for Codec{ByteOrder: bo, WordOrder: wo}.Encode.
func Encode(values []any, t Type, bo ByteOrder, wo WordOrder) ([]uint16, error) {
	return Codec{ByteOrder: bo, WordOrder: wo}.Encode(values, t)
}

// Decode interprets words as a sequence of t values.
//
// Multi-word values consume floor(len(words)/width) groups; trailing words
// that do not complete a value are ignored. Element types are the natural Go
// type of t (int16, uint32, float64, bool, uint8, ...). ASCII yields a single
// string and UNIX_TIMESTAMP yields formatted strings. An unknown t returns the
// words as uint16 values unchanged.
func (c Codec) Decode(words []uint16, t Type) ([]any, error) {
	if !c.ByteOrder.valid() || !c.WordOrder.valid() {
		return nil, &DecodeError{Type: t, Err: ErrInvalidOrder}
	}

	switch t {
	case TypeBool:
		return decodeBits(words), nil
	case TypeByte:
		out := make([]any, 0, 2*len(words))
		for _, w := range words {
			for _, b := range appendWord(nil, w, c.ByteOrder) {
				out = append(out, b)
			}
		}
		return out, nil
	case TypeASCII:
		var raw []byte
		for _, w := range words {
			raw = appendWord(raw, w, c.ByteOrder)
		}
		s := strings.TrimRight(string(raw), "\x00")
		if len(words) == 0 {
			return []any{}, nil
		}
		return []any{s}, nil
	}

	width, ok := WordsPerValue(t)
	if !ok {
		c.warn("unknown logical type, passing registers through", "type", uint8(t))
		out := make([]any, len(words))
		for i, w := range words {
			out[i] = w
		}
		return out, nil
	}

	n := len(words) / width
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		b := groupBytes(words[i*width:(i+1)*width], c.ByteOrder, c.WordOrder)
		out = append(out, decodeValue(b, t))
	}
	return out, nil
}

func decodeValue(b []byte, t Type) any {
	switch t {
	case TypeInt16:
		return int16(binary.BigEndian.Uint16(b))
	case TypeUint16:
		return binary.BigEndian.Uint16(b)
	case TypeInt32:
		return int32(binary.BigEndian.Uint32(b))
	case TypeUint32:
		return binary.BigEndian.Uint32(b)
	case TypeInt64:
		return int64(binary.BigEndian.Uint64(b))
	case TypeUint64:
		return binary.BigEndian.Uint64(b)
	case TypeFloat32:
		return math.Float32frombits(binary.BigEndian.Uint32(b))
	case TypeFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	case TypeUnixTimestamp:
		return FormatTimestamp(binary.BigEndian.Uint32(b))
	}
	return nil
}

// FormatTimestamp renders POSIX seconds in UTC.
func FormatTimestamp(sec uint32) string {
	return time.Unix(int64(sec), 0).UTC().Format(TimestampLayout)
}

// decodeBits expands each word LSB first; word order does not apply.
func decodeBits(words []uint16) []any {
	out := make([]any, 0, 16*len(words))
	for _, w := range words {
		for i := 0; i < 16; i++ {
			out = append(out, (w>>i)&1 == 1)
		}
	}
	return out
}

// ---- layout helpers ----

// appendWord appends the two bytes of w, most significant first for BIG.
func appendWord(b []byte, w uint16, bo ByteOrder) []byte {
	if bo == ByteOrderLittle {
		return append(b, byte(w), byte(w>>8))
	}
	return append(b, byte(w>>8), byte(w))
}

// wordOf is the inverse of appendWord for one byte pair.
func wordOf(hi, lo byte, bo ByteOrder) uint16 {
	if bo == ByteOrderLittle {
		hi, lo = lo, hi
	}
	return uint16(hi)<<8 | uint16(lo)
}

// groupBytes normalizes one value's words: the group is reversed for
// WordOrderLittle, then each word is laid out per bo.
func groupBytes(group []uint16, bo ByteOrder, wo WordOrder) []byte {
	n := len(group)
	out := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		w := group[i]
		if wo == WordOrderLittle {
			w = group[n-1-i]
		}
		out = appendWord(out, w, bo)
	}
	return out
}

// groupWords is the inverse of groupBytes.
func groupWords(b []byte, bo ByteOrder, wo WordOrder) []uint16 {
	n := len(b) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		w := wordOf(b[2*i], b[2*i+1], bo)
		if wo == WordOrderLittle {
			out[n-1-i] = w
		} else {
			out[i] = w
		}
	}
	return out
}

func (c Codec) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}
