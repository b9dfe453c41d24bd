// internal/session/session.go
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/chunk"
	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// MaxUnitID is the highest addressable unit/slave id.
const MaxUnitID = 247

// State is the connection lifecycle state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Session owns one transport adapter and the addressing used to rebuild it.
// Every public method holds the session lock for its whole duration, so
// at most one wire sequence is in flight.
type Session struct {
	mu sync.Mutex

	dial    transport.Dialer
	adapter transport.Adapter
	state   State
	params  transport.Params
	unitID  uint8

	maxRegisters uint16
	maxBits      uint16

	history *packet.Log
	last    packet.Exchange
	hasLast bool

	log *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic sink. Nil keeps the silent default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxRegisters overrides the per-call register ceiling.
func WithMaxRegisters(n uint16) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRegisters = n
		}
	}
}

// WithMaxBits overrides the per-call bit ceiling for reads.
// Coil writes are additionally capped at chunk.MaxBitsPerWrite.
func WithMaxBits(n uint16) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxBits = n
		}
	}
}

// WithHistory sets the rolling exchange history size.
func WithHistory(n int) Option {
	return func(s *Session) {
		s.history = packet.NewLog(n)
	}
}

// New returns a disconnected Session that opens links with dial.
func New(dial transport.Dialer, opts ...Option) *Session {
	s := &Session{
		dial:         dial,
		maxRegisters: chunk.MaxRegistersPerCall,
		maxBits:      chunk.MaxBitsPerCall,
		history:      packet.NewLog(packet.DefaultLogSize),
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ---- lifecycle ----

// Connect opens exactly one adapter for p and addresses unitID.
// An existing connection is closed first. On failure the session stays
// disconnected.
func (s *Session) Connect(p transport.Params, unitID uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "connect"

	if unitID > MaxUnitID {
		return validationf(op, "unit id %d out of range 0-%d", unitID, MaxUnitID)
	}
	if err := p.Validate(); err != nil {
		return newError(KindValidation, op, err)
	}
	if s.dial == nil {
		return newError(KindValidation, op, errors.New("no dialer configured"))
	}

	s.closeAdapter()
	s.state = StateConnecting

	a, err := s.dial(p)
	if err != nil {
		s.state = StateDisconnected
		s.log.Error("connect failed", "params", p.String(), "err", err)
		return newError(classifyLink(err), op, err)
	}

	s.adapter = a
	s.params = p
	s.unitID = unitID
	s.state = StateConnected
	s.log.Info("connected", "params", p.String(), "unit", unitID)
	return nil
}

// Disconnect closes the adapter if present. Safe to call repeatedly.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.closeAdapter()
	s.state = StateDisconnected
	s.hasLast = false
	s.last = packet.Exchange{}
	if err != nil {
		return newError(KindTransportIO, "disconnect", err)
	}
	return nil
}

// SetUnitID changes the addressed unit for subsequent operations.
func (s *Session) SetUnitID(unitID uint8) error {
	if unitID > MaxUnitID {
		return validationf("set unit", "unit id %d out of range 0-%d", unitID, MaxUnitID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitID = unitID
	return nil
}

// ---- queries ----

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Params returns the stored addressing parameters and unit id.
func (s *Session) Params() (transport.Params, uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params, s.unitID
}

// LastExchange is the most recent wire exchange of this connection.
func (s *Session) LastExchange() (packet.Exchange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// History returns the rolling exchange log, oldest first.
func (s *Session) History() []packet.Exchange {
	return s.history.Entries()
}

// ---- retry policy ----

// attempt is one full (possibly multi-chunk) execution of an operation.
type attempt func(a transport.Adapter, unit uint8) ([]packet.Exchange, error)

// run executes fn against the live adapter. A retryable failure causes
// exactly one reconnect with the stored parameters and one retry of fn.
// Caller holds s.mu.
func (s *Session) run(op string, fn attempt) ([]packet.Exchange, bool, error) {
	if s.adapter == nil || s.state != StateConnected {
		return nil, false, newError(KindNotConnected, op, ErrNotConnected)
	}

	ex, err := fn(s.adapter, s.unitID)
	s.record(ex)
	if err == nil {
		return ex, false, nil
	}

	kind := classify(err)
	if !kind.retryable() {
		return ex, false, newError(kind, op, err)
	}

	s.log.Warn("operation failed, reconnecting", "op", op, "kind", kind.String(), "err", err)

	if rerr := s.reconnect(); rerr != nil {
		s.log.Error("reconnect failed", "op", op, "err", rerr)
		return ex, false, newError(classifyLink(rerr), op, errors.Wrapf(rerr, "reconnect after %v", err))
	}

	ex, err = fn(s.adapter, s.unitID)
	s.record(ex)
	if err != nil {
		s.log.Warn("retry failed", "op", op, "err", err)
		return ex, true, newError(classify(err), op, err)
	}

	s.log.Info("retry succeeded", "op", op)
	return ex, true, nil
}

// reconnect rebuilds the adapter in place from the stored parameters.
// On failure the session ends up disconnected.
func (s *Session) reconnect() error {
	s.state = StateReconnecting
	s.closeAdapter()

	a, err := s.dial(s.params)
	if err != nil {
		s.state = StateDisconnected
		return err
	}
	s.adapter = a
	s.state = StateConnected
	return nil
}

func (s *Session) closeAdapter() error {
	if s.adapter == nil {
		return nil
	}
	err := s.adapter.Close()
	s.adapter = nil
	return err
}

func (s *Session) record(ex []packet.Exchange) {
	for _, e := range ex {
		s.history.Add(e)
		s.log.Debug("frame", "op", e.Op, "tx", packet.Format(e.Sent), "rx", packet.Format(e.Received))
	}
	if len(ex) > 0 {
		s.last = ex[len(ex)-1]
		s.hasLast = true
	}
}

// classifyLink is classify for dial errors: device exceptions cannot occur
// while opening a link, so anything not a timeout is TransportIO.
func classifyLink(err error) Kind {
	if classify(err) == KindTimeout {
		return KindTimeout
	}
	return KindTransportIO
}

// ---- results ----

// Result is the outcome of one read or write, carried also on failure.
type Result struct {
	Values    []any    // decoded register values
	Registers []uint16 // raw register words
	Bits      []bool   // coil / discrete input state

	Exchanges []packet.Exchange
	Retried   bool
}

// Sent renders the request frames, one line per exchange.
func (r Result) Sent() string { return packet.FormatAll(packet.Sent(r.Exchanges)) }

// Received renders the response frames, one line per exchange.
func (r Result) Received() string { return packet.FormatAll(packet.Received(r.Exchanges)) }

// Summary is a one-line description used in logs.
func (r Result) Summary() string {
	s := fmt.Sprintf("%d exchange(s)", len(r.Exchanges))
	if r.Retried {
		s += ", retried"
	}
	return s
}
