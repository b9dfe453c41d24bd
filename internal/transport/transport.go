// internal/transport/transport.go
package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
)

// Kind selects the physical link.
type Kind uint8

const (
	KindTCP Kind = iota
	KindRTU
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindRTU:
		return "rtu"
	default:
		return "unknown"
	}
}

// ParseKind accepts "tcp" or "rtu".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return KindTCP, nil
	case "rtu", "serial":
		return KindRTU, nil
	}
	return 0, errors.Errorf("transport: unknown kind %q", s)
}

// Params are the addressing parameters of one link.
// TCP uses Host/Port. RTU uses the serial fields.
type Params struct {
	Kind Kind

	Host string
	Port int

	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N, E or O

	Timeout time.Duration
}

// Address is host:port for TCP and the device path for RTU.
func (p Params) Address() string {
	if p.Kind == KindRTU {
		return p.Device
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p Params) String() string {
	if p.Kind == KindRTU {
		return fmt.Sprintf("rtu %s %d %d%s%d", p.Device, p.BaudRate, p.DataBits, p.Parity, p.StopBits)
	}
	return "tcp " + p.Address()
}

// Validate checks fields relevant to p.Kind.
func (p Params) Validate() error {
	switch p.Kind {
	case KindTCP:
		if p.Host == "" {
			return errors.New("transport: host required")
		}
		if p.Port < 1 || p.Port > 65535 {
			return errors.Errorf("transport: port %d out of range", p.Port)
		}
	case KindRTU:
		if p.Device == "" {
			return errors.New("transport: serial device required")
		}
		if p.BaudRate <= 0 {
			return errors.Errorf("transport: invalid baud rate %d", p.BaudRate)
		}
		if p.DataBits < 5 || p.DataBits > 8 {
			return errors.Errorf("transport: invalid data bits %d", p.DataBits)
		}
		if p.StopBits != 1 && p.StopBits != 2 {
			return errors.Errorf("transport: invalid stop bits %d", p.StopBits)
		}
		switch p.Parity {
		case "N", "E", "O":
		default:
			return errors.Errorf("transport: invalid parity %q", p.Parity)
		}
	default:
		return errors.Errorf("transport: unknown kind %d", p.Kind)
	}
	if p.Timeout < 0 {
		return errors.New("transport: timeout must be >= 0")
	}
	return nil
}

// Adapter is one open Modbus link. Every call reports the exchange it put
// on the wire, also on failure. Implementations are not re-entrant.
type Adapter interface {
	ReadCoils(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error)              // FC 1
	ReadDiscreteInputs(unit uint8, addr, qty uint16) ([]bool, packet.Exchange, error)     // FC 2
	ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error) // FC 3
	ReadInputRegisters(unit uint8, addr, qty uint16) ([]uint16, packet.Exchange, error)   // FC 4
	WriteCoils(unit uint8, addr uint16, bits []bool) (packet.Exchange, error)             // FC 15
	WriteRegisters(unit uint8, addr uint16, regs []uint16) (packet.Exchange, error)       // FC 16
	ReportSlaveID(unit uint8) ([]byte, packet.Exchange, error)                            // FC 17

	// ReadWriteRegisters writes regs at writeAddr, then reads readQty at readAddr (FC 23).
	ReadWriteRegisters(unit uint8, readAddr, readQty, writeAddr uint16, regs []uint16) ([]uint16, packet.Exchange, error)

	Close() error
}

// Dialer opens an Adapter and completes its handshake.
type Dialer func(p Params) (Adapter, error)
