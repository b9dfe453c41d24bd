// internal/session/fake_test.go
package session

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// fakeLink is a simulated device shared by every adapter it dials, so
// state survives reconnects.
type fakeLink struct {
	dials   int
	dialErr error // returned by every dial after the first

	calls   int
	failAt  map[int]bool // call numbers (1-based) that fail
	failErr error

	closed int

	regs     []uint16
	coils    []bool
	identity []byte
	units    []uint8
}

func newFakeLink() *fakeLink {
	l := &fakeLink{
		failAt:  map[int]bool{},
		failErr: errors.New("connection reset by peer"),
		regs:    make([]uint16, 0x10000),
		coils:   make([]bool, 0x10000),
	}
	for i := range l.regs {
		l.regs[i] = uint16(i)
	}
	return l
}

func (l *fakeLink) dial(p transport.Params) (transport.Adapter, error) {
	l.dials++
	if l.dials > 1 && l.dialErr != nil {
		return nil, l.dialErr
	}
	return &fakeAdapter{link: l}, nil
}

func (l *fakeLink) failCalls(n ...int) {
	for _, c := range n {
		l.failAt[c] = true
	}
}

type fakeAdapter struct {
	link   *fakeLink
	closed bool
}

func (a *fakeAdapter) step(op string, unit uint8, fc byte, addr, qty uint16) (packet.Exchange, error) {
	l := a.link
	l.calls++
	l.units = append(l.units, unit)

	sent := []byte{unit, fc, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(sent[2:], addr)
	binary.BigEndian.PutUint16(sent[4:], qty)
	ex := packet.Exchange{Op: op, Sent: sent}

	if a.closed {
		return ex, errors.New("use of closed adapter")
	}
	if l.failAt[l.calls] {
		ex.Err = l.failErr.Error()
		return ex, l.failErr
	}
	ex.Received = packet.Frame{unit, fc}
	return ex, nil
}

func (a *fakeAdapter) ReadCoils(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error) {
	ex, err := a.step("read coils", unit, 1, addr, qty)
	if err != nil {
		return nil, ex, err
	}
	return append([]bool(nil), a.link.coils[addr:int(addr)+int(qty)]...), ex, nil
}

func (a *fakeAdapter) ReadDiscreteInputs(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error) {
	ex, err := a.step("read discrete inputs", unit, 2, addr, qty)
	if err != nil {
		return nil, ex, err
	}
	return make([]bool, qty), ex, nil
}

func (a *fakeAdapter) ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error) {
	ex, err := a.step("read holding registers", unit, 3, addr, qty)
	if err != nil {
		return nil, ex, err
	}
	return append([]uint16(nil), a.link.regs[addr:int(addr)+int(qty)]...), ex, nil
}

func (a *fakeAdapter) ReadInputRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error) {
	ex, err := a.step("read input registers", unit, 4, addr, qty)
	if err != nil {
		return nil, ex, err
	}
	return make([]uint16, qty), ex, nil
}

func (a *fakeAdapter) WriteCoils(unit uint8, addr uint16, bits []bool) (packet.Exchange, error) {
	ex, err := a.step("write coils", unit, 15, addr, uint16(len(bits)))
	if err != nil {
		return ex, err
	}
	copy(a.link.coils[addr:], bits)
	return ex, nil
}

func (a *fakeAdapter) WriteRegisters(unit uint8, addr uint16, regs []uint16) (packet.Exchange, error) {
	ex, err := a.step("write registers", unit, 16, addr, uint16(len(regs)))
	if err != nil {
		return ex, err
	}
	copy(a.link.regs[addr:], regs)
	return ex, nil
}

func (a *fakeAdapter) ReadWriteRegisters(unit uint8, readAddr, readQty, writeAddr uint16, regs []uint16) ([]uint16, packet.Exchange, error) {
	ex, err := a.step("read/write registers", unit, 23, readAddr, readQty)
	if err != nil {
		return nil, ex, err
	}
	copy(a.link.regs[writeAddr:], regs)
	return append([]uint16(nil), a.link.regs[readAddr:int(readAddr)+int(readQty)]...), ex, nil
}

func (a *fakeAdapter) ReportSlaveID(unit uint8) ([]byte, packet.Exchange, error) {
	ex, err := a.step("report slave id", unit, 17, 0, 0)
	if err != nil {
		return nil, ex, err
	}
	return a.link.identity, ex, nil
}

func (a *fakeAdapter) Close() error {
	if !a.closed {
		a.closed = true
		a.link.closed++
	}
	return nil
}
