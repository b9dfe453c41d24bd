// internal/input/input_test.go
package input

import (
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/codec"
)

func TestParse_Integers(t *testing.T) {
	got, err := Parse("1, -2 0x10  +7", codec.TypeInt32)
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	want := []any{uint64(1), int64(-2), uint64(16), uint64(7)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}

	words, err := codec.Encode(got, codec.TypeInt32, codec.ByteOrderBig, codec.WordOrderBig)
	if err != nil || len(words) != 8 {
		t.Fatalf("parsed literals do not encode: %v %v", words, err)
	}
}

func TestParse_Floats(t *testing.T) {
	got, err := Parse("1.5;-2e3", codec.TypeFloat32)
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	if !reflect.DeepEqual(got, []any{1.5, -2000.0}) {
		t.Fatalf("got %v", got)
	}
}

func TestParse_BoolAndBools(t *testing.T) {
	got, err := Parse("true 0 on", codec.TypeBool)
	if err != nil || !reflect.DeepEqual(got, []any{true, false, true}) {
		t.Fatalf("got %v err=%v", got, err)
	}
	bits, err := ParseBools("1,0,1")
	if err != nil || !reflect.DeepEqual(bits, []bool{true, false, true}) {
		t.Fatalf("got %v err=%v", bits, err)
	}
	if _, err := ParseBools("yes"); !errors.Is(err, ErrInvalidLiteral) {
		t.Fatalf("expected ErrInvalidLiteral, got %v", err)
	}
}

func TestParse_ASCIIVerbatim(t *testing.T) {
	got, err := Parse("hello, world", codec.TypeASCII)
	if err != nil || !reflect.DeepEqual(got, []any{"hello, world"}) {
		t.Fatalf("got %v err=%v", got, err)
	}
}

func TestParse_Timestamps(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Parser{Clock: func() time.Time { return fixed }}

	got, err := p.Parse("now, 86400, 2020-05-06 07:08:09", codec.TypeUnixTimestamp)
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	want := []any{fixed, int64(86400), time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	words, err := codec.Encode(got, codec.TypeUnixTimestamp, codec.ByteOrderBig, codec.WordOrderBig)
	if err != nil {
		t.Fatalf("Encode err=%v", err)
	}
	back, _ := codec.Decode(words, codec.TypeUnixTimestamp, codec.ByteOrderBig, codec.WordOrderBig)
	if back[0] != "2024-01-02 03:04:05" || back[1] != "1970-01-02 00:00:00" {
		t.Fatalf("decoded %v", back)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		text string
		t    codec.Type
	}{
		{"", codec.TypeUint16},
		{"abc", codec.TypeUint16},
		{"1.5", codec.TypeInt16},
		{"x", codec.TypeFloat64},
		{"tomorrow", codec.TypeUnixTimestamp},
	}
	for _, c := range cases {
		if _, err := Parse(c.text, c.t); !errors.Is(err, ErrInvalidLiteral) {
			t.Fatalf("Parse(%q, %s) err=%v, want ErrInvalidLiteral", c.text, c.t, err)
		}
	}
}
