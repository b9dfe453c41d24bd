// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	cfg "github.com/tamzrod/modbus-debugger/internal/config"
	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

type fakeReader struct {
	failArea session.Area
	failErr  error
	delay    time.Duration

	calls    atomic.Int32
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (f *fakeReader) Read(area session.Area, start, end uint16, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (session.Result, error) {
	f.calls.Add(1)
	if f.inflight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inflight.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	n := int(end) - int(start) + 1
	res := session.Result{Exchanges: []packet.Exchange{{Sent: packet.Frame{0x01}, Received: packet.Frame{0x02}}}}
	if f.failArea == area {
		err := f.failErr
		if err == nil {
			err = errors.New("fail")
		}
		return res, err
	}
	if area.Bits() {
		res.Bits = make([]bool, n)
	} else {
		res.Registers = make([]uint16, n)
		res.Values = make([]any, n)
	}
	return res, nil
}

func testConfig() Config {
	return Config{
		Name:     "u1",
		Interval: 1 * time.Second,
		Reads: []ReadBlock{
			{Area: session.AreaCoil, Start: 0, End: 7},
			{Area: session.AreaHolding, Start: 0, End: 9, Type: codec.TypeUint16},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(testConfig(), nil); err == nil {
		t.Fatalf("expected error for nil reader")
	}
	c := testConfig()
	c.Interval = 0
	if _, err := New(c, &fakeReader{}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	c = testConfig()
	c.Reads = nil
	if _, err := New(c, &fakeReader{}); err == nil {
		t.Fatalf("expected error for no reads")
	}
	c = testConfig()
	c.Reads[0].Area = 0
	if _, err := New(c, &fakeReader{}); err == nil {
		t.Fatalf("expected error for unknown area")
	}
}

func TestPollOnce_Success(t *testing.T) {
	p, err := New(testConfig(), &fakeReader{})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(res.Blocks))
	}
	if len(res.Blocks[0].Bits) != 8 || len(res.Blocks[1].Values) != 10 {
		t.Fatalf("unexpected block sizes")
	}
	if res.Blocks[1].Sent != "01" || res.Blocks[1].Received != "02" {
		t.Fatalf("frames not carried: %+v", res.Blocks[1])
	}
	if res.Seq != 1 || p.PollOnce().Seq != 2 {
		t.Fatalf("sequence not increasing")
	}
}

func TestPollOnce_Failure(t *testing.T) {
	fr := &fakeReader{failArea: session.AreaCoil}
	p, err := New(testConfig(), fr)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if res.Blocks != nil {
		t.Fatalf("partial blocks committed")
	}
	if fr.calls.Load() != 1 {
		t.Fatalf("cycle did not abort at first failure")
	}
}

func TestPollOnce_ExceptionCode(t *testing.T) {
	fr := &fakeReader{
		failArea: session.AreaHolding,
		failErr:  &session.Error{Kind: session.KindProtocolFault, Op: "read holding", Err: &transport.ExceptionError{Function: 3, Code: 2}},
	}
	p, _ := New(testConfig(), fr)

	res := p.PollOnce()
	if res.RawErrorCode != 2 {
		t.Fatalf("RawErrorCode=%d want 2", res.RawErrorCode)
	}
}

func TestRun_NoOverlap(t *testing.T) {
	fr := &fakeReader{delay: 5 * time.Millisecond}
	c := testConfig()
	c.Interval = time.Millisecond
	p, err := New(c, fr)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case res := <-out:
			if res.Err != nil {
				t.Fatalf("cycle %d err=%v", i, res.Err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for cycle %d", i)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if fr.overlap.Load() {
		t.Fatalf("reads overlapped")
	}
}

func TestBuild_FromConfig(t *testing.T) {
	pc := cfg.PollConfig{
		IntervalMs: 250,
		Reads: []cfg.ReadConfig{
			{Name: "a", Area: "input", Start: 0, End: 1, Type: "INT32", ByteOrder: "big", WordOrder: "little"},
			{Name: "b", Area: "discrete", Start: 5, End: 5},
		},
	}
	p, err := Build("dev", pc, &fakeReader{})
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	if p.cfg.Interval != 250*time.Millisecond || len(p.cfg.Reads) != 2 {
		t.Fatalf("cfg=%+v", p.cfg)
	}
	if p.cfg.Reads[0].Type != codec.TypeInt32 || p.cfg.Reads[0].WordOrder != codec.WordOrderLittle {
		t.Fatalf("block=%+v", p.cfg.Reads[0])
	}

	pc.Reads[0].Type = "NOPE"
	if _, err := Build("dev", pc, &fakeReader{}); err == nil {
		t.Fatalf("expected error for bad type")
	}
}
