// internal/status/snapshot.go
package status

import (
	"fmt"
	"time"
)

// Snapshot is the current health of one polled device.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	ConsecutiveFailures int
	LastOK              time.Time
	LastError           string
}

func (s Snapshot) String() string {
	switch s.Health {
	case HealthOK:
		return "OK"
	case HealthUnknown:
		return "UNKNOWN"
	}
	name := "ERROR"
	if s.Health == HealthDisconnected {
		name = "DISCONNECTED"
	}
	return fmt.Sprintf("%s code=0x%04X for %ds (%d failures): %s",
		name, s.LastErrorCode, s.SecondsInError, s.ConsecutiveFailures, s.LastError)
}

// HealthName is the display name of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
