// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// Reader is the session surface the poller needs.
type Reader interface {
	Read(area session.Area, start, end uint16, t codec.Type, bo codec.ByteOrder, wo codec.WordOrder) (session.Result, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	reader Reader
	seq    uint64
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader) (*Poller, error) {
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	for _, rb := range cfg.Reads {
		switch rb.Area {
		case session.AreaHolding, session.AreaInput, session.AreaCoil, session.AreaDiscrete:
		default:
			return nil, errors.New("poller: unsupported area")
		}
		if rb.End < rb.Start {
			return nil, errors.New("poller: block end before start")
		}
	}
	return &Poller{cfg: cfg, reader: reader, now: time.Now}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	p.seq++
	res := PollResult{
		Name: p.cfg.Name,
		Seq:  p.seq,
		At:   p.now(),
	}

	blocks := make([]BlockResult, 0, len(p.cfg.Reads))

	for _, rb := range p.cfg.Reads {
		r, err := p.reader.Read(rb.Area, rb.Start, rb.End, rb.Type, rb.ByteOrder, rb.WordOrder)
		if err != nil {
			res.Err = err
			res.RawErrorCode = exceptionCode(err)
			return res
		}

		blocks = append(blocks, BlockResult{
			Block:     rb,
			Bits:      r.Bits,
			Values:    r.Values,
			Registers: r.Registers,
			Sent:      r.Sent(),
			Received:  r.Received(),
			Retried:   r.Retried,
		})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}

func exceptionCode(err error) uint16 {
	var xe *transport.ExceptionError
	if errors.As(err, &xe) {
		return uint16(xe.Code)
	}
	return 0
}
