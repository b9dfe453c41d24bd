// internal/packet/packet_test.go
package packet

import (
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{nil, ""},
		{[]byte{}, ""},
		{[]byte{0x00}, "00"},
		{[]byte{0x01, 0xab, 0xFF, 0x0a}, "01 AB FF 0A"},
	}
	for _, c := range cases {
		if got := Format(c.in); got != c.want {
			t.Fatalf("Format(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatAll_OneLinePerFrame(t *testing.T) {
	got := FormatAll([]Frame{{0x01, 0x02}, nil, {0xfe}})
	want := "01 02\n\nFE"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNewFrame_Copies(t *testing.T) {
	buf := []byte{1, 2, 3}
	f := NewFrame(buf)
	buf[0] = 9
	if f[0] != 1 {
		t.Fatalf("frame aliases caller buffer")
	}
	if NewFrame(nil) != nil {
		t.Fatalf("empty input should give nil frame")
	}
}

func TestLog_RollsOver(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Add(Exchange{Op: fmt.Sprintf("op%d", i)})
	}

	if l.Len() != 3 {
		t.Fatalf("len=%d want 3", l.Len())
	}
	if l.Total() != 5 {
		t.Fatalf("total=%d want 5", l.Total())
	}

	got := l.Entries()
	for i, want := range []string{"op2", "op3", "op4"} {
		if got[i].Op != want {
			t.Fatalf("entry %d = %s want %s", i, got[i].Op, want)
		}
	}
}

func TestLog_DefaultSizeAndReset(t *testing.T) {
	l := NewLog(0)
	if l.Cap() != DefaultLogSize {
		t.Fatalf("cap=%d want %d", l.Cap(), DefaultLogSize)
	}
	l.Add(Exchange{Op: "x"})
	l.Reset()
	if l.Len() != 0 || len(l.Entries()) != 0 {
		t.Fatalf("reset left entries behind")
	}
}
