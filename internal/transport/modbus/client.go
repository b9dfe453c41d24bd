// internal/transport/modbus/client.go
package modbus

import (
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

const (
	fcReportSlaveID = 0x11
	exceptionBit    = 0x80
)

// DefaultTimeout applies when Params.Timeout is zero.
const DefaultTimeout = 3 * time.Second

// Client implements transport.Adapter on goburrow/modbus.
// Requests are serialized because the slave id is mutated per call.
type Client struct {
	mu       sync.Mutex
	packager modbus.Packager
	wire     *capture
	client   modbus.Client
	setUnit  func(uint8)
	closer   io.Closer
}

// Dial opens a TCP or RTU link according to p.Kind.
// It matches transport.Dialer.
func Dial(p transport.Params) (transport.Adapter, error) {
	switch p.Kind {
	case transport.KindTCP:
		return DialTCP(p)
	case transport.KindRTU:
		return DialRTU(p)
	}
	return nil, errors.Errorf("modbus client: unsupported kind %s", p.Kind)
}

// DialTCP connects a Modbus TCP handler.
func DialTCP(p transport.Params) (*Client, error) {
	if p.Host == "" {
		return nil, errors.New("modbus client: host required")
	}

	h := modbus.NewTCPClientHandler(p.Address())
	h.Timeout = timeoutOf(p)

	if err := h.Connect(); err != nil {
		return nil, mapError(errors.Wrapf(err, "modbus client: connect %s", p.Address()))
	}

	return newClient(h, h, func(u uint8) { h.SlaveId = u }, h), nil
}

// DialRTU opens a serial port for Modbus RTU.
func DialRTU(p transport.Params) (*Client, error) {
	if p.Device == "" {
		return nil, errors.New("modbus client: serial device required")
	}

	h := modbus.NewRTUClientHandler(p.Device)
	h.Config = serial.Config{
		Address:  p.Device,
		BaudRate: p.BaudRate,
		DataBits: p.DataBits,
		StopBits: p.StopBits,
		Parity:   p.Parity,
		Timeout:  timeoutOf(p),
	}

	if err := h.Connect(); err != nil {
		return nil, mapError(errors.Wrapf(err, "modbus client: open %s", p.Device))
	}

	return newClient(h, h, func(u uint8) { h.SlaveId = u }, h), nil
}

func newClient(pk modbus.Packager, tr modbus.Transporter, setUnit func(uint8), closer io.Closer) *Client {
	wire := &capture{next: tr}
	return &Client{
		packager: pk,
		wire:     wire,
		client:   modbus.NewClient2(pk, wire),
		setUnit:  setUnit,
		closer:   closer,
	}
}

// Close releases the underlying socket or serial port.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

// ---- transport.Adapter ----

func (c *Client) ReadCoils(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ex, err := c.do("read coils", unit, func() ([]byte, error) {
		return c.client.ReadCoils(addr, qty)
	})
	if err != nil {
		return nil, ex, err
	}
	return unpackBits(raw, int(qty)), ex, nil
}

func (c *Client) ReadDiscreteInputs(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ex, err := c.do("read discrete inputs", unit, func() ([]byte, error) {
		return c.client.ReadDiscreteInputs(addr, qty)
	})
	if err != nil {
		return nil, ex, err
	}
	return unpackBits(raw, int(qty)), ex, nil
}

func (c *Client) ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ex, err := c.do("read holding registers", unit, func() ([]byte, error) {
		return c.client.ReadHoldingRegisters(addr, qty)
	})
	if err != nil {
		return nil, ex, err
	}
	return unpackRegisters(raw), ex, nil
}

func (c *Client) ReadInputRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ex, err := c.do("read input registers", unit, func() ([]byte, error) {
		return c.client.ReadInputRegisters(addr, qty)
	})
	if err != nil {
		return nil, ex, err
	}
	return unpackRegisters(raw), ex, nil
}

func (c *Client) WriteCoils(unit uint8, addr uint16, bits []bool) (packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ex, err := c.do("write coils", unit, func() ([]byte, error) {
		return c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	})
	return ex, err
}

func (c *Client) WriteRegisters(unit uint8, addr uint16, regs []uint16) (packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ex, err := c.do("write registers", unit, func() ([]byte, error) {
		return c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	})
	return ex, err
}

func (c *Client) ReadWriteRegisters(unit uint8, readAddr, readQty, writeAddr uint16, regs []uint16) ([]uint16, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ex, err := c.do("read/write registers", unit, func() ([]byte, error) {
		return c.client.ReadWriteMultipleRegisters(readAddr, readQty, writeAddr, uint16(len(regs)), packRegisters(regs))
	})
	if err != nil {
		return nil, ex, err
	}
	return unpackRegisters(raw), ex, nil
}

// ReportSlaveID has no goburrow client method; the request is framed with
// the handler's packager and sent through the capturing transporter.
//
// Over RTU goburrow cannot predict the FC 17 response length and waits
// only for its minimum frame. A slow serial line can then hand back a
// truncated response that fails the CRC check and surfaces as a
// transport error. TCP framing carries the length and is unaffected.
func (c *Client) ReportSlaveID(unit uint8) ([]byte, packet.Exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.do("report slave id", unit, func() ([]byte, error) {
		req, err := c.packager.Encode(&modbus.ProtocolDataUnit{FunctionCode: fcReportSlaveID})
		if err != nil {
			return nil, err
		}
		resp, err := c.wire.Send(req)
		if err != nil {
			return nil, err
		}
		if err := c.packager.Verify(req, resp); err != nil {
			return nil, err
		}
		pdu, err := c.packager.Decode(resp)
		if err != nil {
			return nil, err
		}
		if pdu.FunctionCode != fcReportSlaveID {
			var code byte
			if len(pdu.Data) > 0 {
				code = pdu.Data[0]
			}
			return nil, &modbus.ModbusError{FunctionCode: pdu.FunctionCode, ExceptionCode: code}
		}
		return pdu.Data, nil
	})
}

// ---- internal helpers ----

// do runs one request and records exactly what went over the wire.
func (c *Client) do(op string, unit uint8, call func() ([]byte, error)) ([]byte, packet.Exchange, error) {
	if c.closer == nil {
		return nil, packet.Exchange{Op: op, At: time.Now()}, errors.New("modbus client: closed")
	}

	c.setUnit(unit)
	c.wire.reset()

	raw, err := call()

	ex := packet.Exchange{
		Op:       op,
		At:       time.Now(),
		Sent:     c.wire.sent,
		Received: c.wire.received,
	}
	if err != nil {
		err = mapError(errors.Wrap(err, "modbus: "+op))
		ex.Err = err.Error()
		return nil, ex, err
	}
	return raw, ex, nil
}

// mapError normalizes library errors into the transport vocabulary.
func mapError(err error) error {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return &transport.ExceptionError{Function: me.FunctionCode &^ exceptionBit, Code: me.ExceptionCode}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return transport.Timeout(err)
	}
	if errors.Is(err, serial.ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return transport.Timeout(err)
	}
	return err
}

func timeoutOf(p transport.Params) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// ---- wire capture ----

// capture wraps the handler's transporter and keeps the last ADU pair.
type capture struct {
	next     modbus.Transporter
	sent     packet.Frame
	received packet.Frame
}

func (w *capture) Send(adu []byte) ([]byte, error) {
	w.sent = packet.NewFrame(adu)
	resp, err := w.next.Send(adu)
	w.received = packet.NewFrame(resp)
	return resp, err
}

func (w *capture) reset() {
	w.sent, w.received = nil, nil
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<(i%8)) != 0
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
