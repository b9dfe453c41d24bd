// internal/chunk/chunk_test.go
package chunk

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
)

func TestPlan_Coverage(t *testing.T) {
	for _, max := range []uint16{1, 2, 7, 123, 125, 2000} {
		for _, r := range []Range{
			{0, 1}, {0, 123}, {0, 124}, {100, 250}, {65535, 1}, {65000, 536}, {0, 0xFFFF},
		} {
			chunks, err := Plan(r, max)
			if err != nil {
				t.Fatalf("Plan(%v,%d) err=%v", r, max, err)
			}

			next := int(r.Address)
			for _, c := range chunks {
				if c.Count == 0 || c.Count > max {
					t.Fatalf("Plan(%v,%d): bad chunk %v", r, max, c)
				}
				if int(c.Address) != next {
					t.Fatalf("Plan(%v,%d): gap or overlap at %v (want start %d)", r, max, c, next)
				}
				next = c.End()
			}
			if next != r.End() {
				t.Fatalf("Plan(%v,%d): covered up to %d want %d", r, max, next, r.End())
			}
		}
	}
}

func TestPlan_Errors(t *testing.T) {
	if _, err := Plan(Range{0, 0}, 10); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange, got %v", err)
	}
	if _, err := Plan(Range{0, 10}, 0); !errors.Is(err, ErrZeroLimit) {
		t.Fatalf("expected ErrZeroLimit, got %v", err)
	}
	if _, err := Plan(Range{65535, 2}, 10); !errors.Is(err, ErrAddressWrap) {
		t.Fatalf("expected ErrAddressWrap, got %v", err)
	}
}

func TestInclusive(t *testing.T) {
	r, err := Inclusive(10, 19)
	if err != nil || r != (Range{10, 10}) {
		t.Fatalf("got %v err=%v", r, err)
	}
	if _, err := Inclusive(5, 4); err == nil {
		t.Fatalf("expected error for end < start")
	}
	if _, err := Inclusive(0, 65535); err == nil {
		t.Fatalf("expected error for full address space")
	}
}

// deterministic mock: register value == its address
func addrOp(calls *int) Op[uint16] {
	return func(r Range) ([]uint16, packet.Exchange, error) {
		*calls++
		out := make([]uint16, r.Count)
		for i := range out {
			out[i] = r.Address + uint16(i)
		}
		return out, packet.Exchange{Sent: packet.Frame{byte(r.Address)}}, nil
	}
}

func TestExecute_MatchesUnchunked(t *testing.T) {
	r := Range{Address: 40, Count: 300}

	var calls int
	whole, _, err := Execute([]Range{r}, addrOp(&calls))
	if err != nil {
		t.Fatalf("Execute err=%v", err)
	}

	chunks, _ := Plan(r, 123)
	calls = 0
	got, ex, err := Execute(chunks, addrOp(&calls))
	if err != nil {
		t.Fatalf("Execute err=%v", err)
	}
	if calls != 3 || len(ex) != 3 {
		t.Fatalf("calls=%d exchanges=%d want 3", calls, len(ex))
	}
	if !reflect.DeepEqual(got, whole) {
		t.Fatalf("chunked result differs from single call")
	}
}

func TestExecute_FailsFast(t *testing.T) {
	chunks, _ := Plan(Range{0, 30}, 10)
	boom := errors.New("boom")

	var calls int
	var op Op[bool] = func(r Range) ([]bool, packet.Exchange, error) {
		calls++
		e := packet.Exchange{Sent: packet.Frame{byte(calls)}}
		if calls == 2 {
			return nil, e, boom
		}
		return make([]bool, r.Count), e, nil
	}

	got, ex, err := Execute(chunks, op)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if got != nil {
		t.Fatalf("expected no results on failure")
	}
	if len(ex) != 2 || ex[1].Sent[0] != 2 {
		t.Fatalf("expected both captured exchanges, got %v", ex)
	}
}
