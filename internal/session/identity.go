// internal/session/identity.go
package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/packet"
)

const (
	fcReportSlaveID = 0x11
	runStatusOn     = 0xFF
)

// minPrintableRun is the shortest printable run listed by Identity.Strings.
const minPrintableRun = 4

// Identity is a decoded Report Slave ID (FC 17) response.
type Identity struct {
	ByteCount int
	SlaveID   byte
	RunStatus byte
	Data      []byte // vendor-specific bytes after the run status
	Raw       []byte // every byte after the byte count
}

// Running reports whether the device indicated run status ON.
func (id Identity) Running() bool { return id.RunStatus == runStatusOn }

// Decimal renders Raw as space-separated decimal bytes.
func (id Identity) Decimal() string {
	parts := make([]string, len(id.Raw))
	for i, b := range id.Raw {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, " ")
}

// ASCII renders Raw with non-printable bytes replaced by '.'.
func (id Identity) ASCII() string {
	var b strings.Builder
	for _, c := range id.Raw {
		if printable(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Hex renders Raw as hex pairs.
func (id Identity) Hex() string { return packet.Format(id.Raw) }

// Strings returns printable runs of at least four characters in Data.
func (id Identity) Strings() []string {
	var (
		out []string
		cur []byte
	)
	flush := func() {
		if len(cur) >= minPrintableRun {
			out = append(out, string(cur))
		}
		cur = cur[:0]
	}
	for _, c := range id.Data {
		if printable(c) {
			cur = append(cur, c)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Lines is the operator-facing summary.
func (id Identity) Lines() []string {
	status := "OFF"
	if id.Running() {
		status = "ON"
	}
	lines := []string{
		fmt.Sprintf("function code: 0x%02X", fcReportSlaveID),
		fmt.Sprintf("byte count: %d", id.ByteCount),
		fmt.Sprintf("slave id: %d (0x%02X)", id.SlaveID, id.SlaveID),
		fmt.Sprintf("run status: %s (0x%02X)", status, id.RunStatus),
	}
	if len(id.Data) > 0 {
		lines = append(lines, "vendor data: "+packet.Format(id.Data))
	}
	for _, s := range id.Strings() {
		lines = append(lines, "text: "+s)
	}
	lines = append(lines,
		"decimal: "+id.Decimal(),
		"ascii: "+id.ASCII(),
	)
	return lines
}

func printable(c byte) bool { return c >= 0x20 && c <= 0x7E }

// ParseIdentity decodes an FC 17 response payload (byte count first).
func ParseIdentity(data []byte) (Identity, error) {
	if len(data) < 1 {
		return Identity{}, errors.New("identity: empty payload")
	}
	n := int(data[0])
	if n < 2 {
		return Identity{}, errors.Errorf("identity: byte count %d too short", n)
	}
	if len(data)-1 < n {
		return Identity{}, errors.Errorf("identity: byte count %d exceeds payload %d", n, len(data)-1)
	}

	raw := append([]byte(nil), data[1:1+n]...)
	return Identity{
		ByteCount: n,
		SlaveID:   raw[0],
		RunStatus: raw[1],
		Data:      raw[2:],
		Raw:       raw,
	}, nil
}

// IdentityResult carries the decoded identity and the exchange.
type IdentityResult struct {
	Identity Identity
	Result
}

// ReportIdentity asks unitID for its identification. It is a single
// exchange and is never retried.
func (s *Session) ReportIdentity(unitID uint8) (IdentityResult, error) {
	const op = "report identity"

	if unitID > MaxUnitID {
		return IdentityResult{}, validationf(op, "unit id %d out of range 0-%d", unitID, MaxUnitID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil || s.state != StateConnected {
		return IdentityResult{}, newError(KindNotConnected, op, ErrNotConnected)
	}

	data, e, err := s.adapter.ReportSlaveID(unitID)
	s.record([]packet.Exchange{e})
	res := IdentityResult{Result: Result{Exchanges: []packet.Exchange{e}}}
	if err != nil {
		return res, newError(classify(err), op, err)
	}

	id, err := ParseIdentity(data)
	if err != nil {
		return res, newError(KindProtocolFault, op, err)
	}
	res.Identity = id
	return res, nil
}
