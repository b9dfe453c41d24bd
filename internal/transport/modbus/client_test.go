// internal/transport/modbus/client_test.go
package modbus

import (
	"encoding/binary"
	"io"
	"reflect"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// fakeSlave answers Modbus TCP ADUs. reply returns the response PDU
// (function code first) for a request PDU.
type fakeSlave struct {
	reply func(fc byte, data []byte) []byte
	err   error
	calls int
}

func (s *fakeSlave) Send(adu []byte) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	pdu := s.reply(adu[7], adu[8:])
	resp := make([]byte, 7, 7+len(pdu))
	copy(resp, adu[:4])
	binary.BigEndian.PutUint16(resp[4:], uint16(1+len(pdu)))
	resp[6] = adu[6]
	return append(resp, pdu...), nil
}

type nopCloser struct{ closed int }

func (n *nopCloser) Close() error { n.closed++; return nil }

func newTestClient(s *fakeSlave) (*Client, *nopCloser) {
	h := modbus.NewTCPClientHandler("127.0.0.1:0")
	cl := &nopCloser{}
	return newClient(h, s, func(u uint8) { h.SlaveId = u }, cl), cl
}

func TestReadHoldingRegisters_CapturesFrames(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		return []byte{fc, 4, 0x00, 0x01, 0x00, 0x02}
	}}
	c, _ := newTestClient(s)

	regs, ex, err := c.ReadHoldingRegisters(7, 10, 2)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters err=%v", err)
	}
	if !reflect.DeepEqual(regs, []uint16{1, 2}) {
		t.Fatalf("got %v", regs)
	}
	if len(ex.Sent) != 12 || ex.Sent[6] != 7 || ex.Sent[7] != 0x03 {
		t.Fatalf("unexpected sent frame % X", []byte(ex.Sent))
	}
	if len(ex.Received) != 13 {
		t.Fatalf("unexpected received frame % X", []byte(ex.Received))
	}
	if binary.BigEndian.Uint16(ex.Sent[8:]) != 10 || binary.BigEndian.Uint16(ex.Sent[10:]) != 2 {
		t.Fatalf("address/quantity not on the wire: % X", []byte(ex.Sent))
	}
}

func TestException_MapsToExceptionError(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		return []byte{fc | 0x80, 0x02}
	}}
	c, _ := newTestClient(s)

	_, ex, err := c.ReadInputRegisters(1, 0, 1)
	var xe *transport.ExceptionError
	if !errors.As(err, &xe) {
		t.Fatalf("expected ExceptionError, got %v", err)
	}
	if xe.Function != 0x04 || xe.Code != 0x02 {
		t.Fatalf("got %+v", xe)
	}
	if len(ex.Sent) == 0 || len(ex.Received) == 0 || ex.Err == "" {
		t.Fatalf("exchange not captured on failure: %+v", ex)
	}
}

func TestTransportError_KeepsSentFrame(t *testing.T) {
	s := &fakeSlave{err: io.EOF}
	c, _ := newTestClient(s)

	_, ex, err := c.ReadCoils(1, 0, 8)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF cause, got %v", err)
	}
	var xe *transport.ExceptionError
	if errors.As(err, &xe) {
		t.Fatalf("transport failure must not look like an exception")
	}
	if len(ex.Sent) == 0 || len(ex.Received) != 0 {
		t.Fatalf("unexpected exchange %+v", ex)
	}
}

func TestReadCoils_Unpacks(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		return []byte{fc, 1, 0b00000101}
	}}
	c, _ := newTestClient(s)

	bits, _, err := c.ReadCoils(1, 0, 3)
	if err != nil {
		t.Fatalf("ReadCoils err=%v", err)
	}
	if !reflect.DeepEqual(bits, []bool{true, false, true}) {
		t.Fatalf("got %v", bits)
	}
}

func TestWriteRegisters_Payload(t *testing.T) {
	var got []byte
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		got = append([]byte(nil), data...)
		return append([]byte{fc}, data[:4]...)
	}}
	c, _ := newTestClient(s)

	if _, err := c.WriteRegisters(1, 0x10, []uint16{0x4142, 0x0001}); err != nil {
		t.Fatalf("WriteRegisters err=%v", err)
	}
	want := []byte{0x00, 0x10, 0x00, 0x02, 0x04, 0x41, 0x42, 0x00, 0x01}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("request data % X want % X", got, want)
	}
}

func TestWriteCoils_Payload(t *testing.T) {
	var got []byte
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		got = append([]byte(nil), data...)
		return append([]byte{fc}, data[:4]...)
	}}
	c, _ := newTestClient(s)

	bits := []bool{true, false, true, false, false, false, false, false, true}
	if _, err := c.WriteCoils(1, 0, bits); err != nil {
		t.Fatalf("WriteCoils err=%v", err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x09, 0x02, 0x05, 0x01}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("request data % X want % X", got, want)
	}
}

func TestReportSlaveID(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		return []byte{fc, 3, 0x2A, 0xFF, 'X'}
	}}
	c, _ := newTestClient(s)

	data, ex, err := c.ReportSlaveID(9)
	if err != nil {
		t.Fatalf("ReportSlaveID err=%v", err)
	}
	if !reflect.DeepEqual(data, []byte{3, 0x2A, 0xFF, 'X'}) {
		t.Fatalf("got % X", data)
	}
	if ex.Sent[6] != 9 || ex.Sent[7] != 0x11 {
		t.Fatalf("unexpected request % X", []byte(ex.Sent))
	}
}

func TestReportSlaveID_Exception(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte {
		return []byte{0x91, 0x01}
	}}
	c, _ := newTestClient(s)

	_, _, err := c.ReportSlaveID(1)
	var xe *transport.ExceptionError
	if !errors.As(err, &xe) || xe.Function != 0x11 || xe.Code != 0x01 {
		t.Fatalf("expected exception on 0x11, got %v", err)
	}
}

func TestClose_StopsRequests(t *testing.T) {
	s := &fakeSlave{reply: func(fc byte, data []byte) []byte { return []byte{fc, 2, 0, 0} }}
	c, cl := newTestClient(s)

	if err := c.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	if err := c.Close(); err != nil || cl.closed != 1 {
		t.Fatalf("second Close err=%v closed=%d", err, cl.closed)
	}
	if _, _, err := c.ReadHoldingRegisters(1, 0, 1); err == nil {
		t.Fatalf("expected error after close")
	}
	if s.calls != 0 {
		t.Fatalf("closed client hit the wire")
	}
}

func TestPackUnpackBits(t *testing.T) {
	bits := []bool{true, true, false, false, false, false, false, true, false, true}
	got := unpackBits(packBits(bits), len(bits))
	if !reflect.DeepEqual(got, bits) {
		t.Fatalf("got %v want %v", got, bits)
	}
	if out := unpackBits(nil, 3); len(out) != 3 || out[0] {
		t.Fatalf("short data should pad false, got %v", out)
	}
}
