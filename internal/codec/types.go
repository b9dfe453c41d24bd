// internal/codec/types.go
package codec

import (
	"strings"

	"github.com/pkg/errors"
)

// Type is the logical type a run of registers is interpreted as.
type Type uint8

const (
	TypeInt16 Type = iota + 1
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeBool
	TypeByte
	TypeASCII
	TypeUnixTimestamp
)

var typeNames = map[Type]string{
	TypeInt16:         "INT16",
	TypeUint16:        "UINT16",
	TypeInt32:         "INT32",
	TypeUint32:        "UINT32",
	TypeInt64:         "INT64",
	TypeUint64:        "UINT64",
	TypeFloat32:       "FLOAT32",
	TypeFloat64:       "FLOAT64",
	TypeBool:          "BOOL",
	TypeByte:          "BYTE",
	TypeASCII:         "ASCII",
	TypeUnixTimestamp: "UNIX_TIMESTAMP",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Known reports whether t is one of the declared logical types.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType accepts the upper- or lower-case type name.
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Errorf("codec: unknown type %q", s)
}

// WordsPerValue returns how many registers make up one value of t.
// BOOL, BYTE and ASCII pack several values into a register and report
// false; see ValuesPerWord.
func WordsPerValue(t Type) (int, bool) {
	switch t {
	case TypeInt16, TypeUint16:
		return 1, true
	case TypeInt32, TypeUint32, TypeFloat32, TypeUnixTimestamp:
		return 2, true
	case TypeInt64, TypeUint64, TypeFloat64:
		return 4, true
	default:
		return 0, false
	}
}

// ValuesPerWord is the number of values a single register carries
// for types packing more than one value per word.
func ValuesPerWord(t Type) int {
	switch t {
	case TypeBool:
		return 16
	case TypeByte, TypeASCII:
		return 2
	default:
		return 1
	}
}

// ---- byte / word order ----

// ByteOrder selects which byte of a register is most significant.
type ByteOrder uint8

const (
	ByteOrderBig ByteOrder = iota
	ByteOrderLittle
)

// WordOrder selects which register of a multi-word value is most significant.
type WordOrder uint8

const (
	WordOrderBig WordOrder = iota
	WordOrderLittle
)

func (o ByteOrder) String() string {
	switch o {
	case ByteOrderBig:
		return "BIG"
	case ByteOrderLittle:
		return "LITTLE"
	default:
		return "INVALID"
	}
}

func (o WordOrder) String() string {
	switch o {
	case WordOrderBig:
		return "BIG"
	case WordOrderLittle:
		return "LITTLE"
	default:
		return "INVALID"
	}
}

func (o ByteOrder) valid() bool { return o == ByteOrderBig || o == ByteOrderLittle }
func (o WordOrder) valid() bool { return o == WordOrderBig || o == WordOrderLittle }

// ParseByteOrder accepts "big"/"little" (any case). Empty means big.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "be":
		return ByteOrderBig, nil
	case "little", "le":
		return ByteOrderLittle, nil
	}
	return 0, errors.Errorf("codec: unknown byte order %q", s)
}

// ParseWordOrder accepts "big"/"little" (any case). Empty means big.
func ParseWordOrder(s string) (WordOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "be":
		return WordOrderBig, nil
	case "little", "le":
		return WordOrderLittle, nil
	}
	return 0, errors.Errorf("codec: unknown word order %q", s)
}
