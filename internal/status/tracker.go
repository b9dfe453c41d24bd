// internal/status/tracker.go
package status

import (
	"errors"
	"time"

	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// Tracker folds poll outcomes into a Snapshot.
// It is owned by one goroutine and is not safe for concurrent use.
type Tracker struct {
	snap       Snapshot
	errorSince time.Time
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Apply records the outcome of one cycle finished at.
// It reports whether health or the error code changed.
func (t *Tracker) Apply(err error, at time.Time) bool {
	prev := t.snap

	if err == nil {
		// Recovery / OK
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.ConsecutiveFailures = 0
		t.snap.LastOK = at
		t.snap.LastError = ""
		t.errorSince = time.Time{}
		return prev.Health != t.snap.Health || prev.LastErrorCode != 0
	}

	if t.errorSince.IsZero() {
		t.errorSince = at
	}
	t.snap.Health = HealthError
	if session.KindOf(err) == session.KindNotConnected {
		t.snap.Health = HealthDisconnected
	}
	t.snap.LastErrorCode = ErrorCode(err)
	t.snap.ConsecutiveFailures++
	t.snap.LastError = err.Error()
	t.Tick(at)

	return prev.Health != t.snap.Health || prev.LastErrorCode != t.snap.LastErrorCode
}

// Tick refreshes SecondsInError. It MUST NOT wrap.
func (t *Tracker) Tick(now time.Time) {
	if t.errorSince.IsZero() {
		return
	}
	secs := now.Sub(t.errorSince) / time.Second
	switch {
	case secs < 0:
		secs = 0
	case secs > MaxSecondsInError:
		secs = MaxSecondsInError
	}
	t.snap.SecondsInError = uint16(secs)
}

// ErrorCode extracts a best-effort uint16 code from an error.
// If the error does not expose a code, returns ErrorCodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var xe *transport.ExceptionError
	if errors.As(err, &xe) {
		return uint16(xe.Code)
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	switch session.KindOf(err) {
	case session.KindTimeout:
		return ErrorCodeTimeout
	case session.KindTransportIO:
		return ErrorCodeTransport
	case session.KindNotConnected:
		return ErrorCodeNotConnected
	case session.KindValidation:
		return ErrorCodeValidation
	}
	return ErrorCodeGeneric
}
