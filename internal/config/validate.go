// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/session"
)

// Protocol maxima for the limits section.
const (
	maxRegistersPerCall = 125
	maxBitsPerCall      = 2000
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// CONNECTION
	// ------------------------------------------------------------

	c := cfg.Connection
	switch strings.ToLower(c.Kind) {
	case "", "tcp":
	case "rtu":
		if c.Device == "" {
			return fmt.Errorf("connection: kind rtu requires device")
		}
	default:
		return fmt.Errorf("connection: unknown kind %q", c.Kind)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("connection: port %d out of range 1-65535", c.Port)
	}
	if c.UnitID != nil && (*c.UnitID < 0 || *c.UnitID > session.MaxUnitID) {
		return fmt.Errorf("connection: unit_id %d out of range 0-%d", *c.UnitID, session.MaxUnitID)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("connection: baud_rate %d must be positive", c.BaudRate)
	}
	if c.DataBits != 0 && (c.DataBits < 5 || c.DataBits > 8) {
		return fmt.Errorf("connection: data_bits %d out of range 5-8", c.DataBits)
	}
	if c.StopBits != 0 && c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("connection: stop_bits must be 1 or 2, got %d", c.StopBits)
	}
	switch strings.ToUpper(c.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("connection: parity must be N, E or O, got %q", c.Parity)
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("connection: timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// LIMITS / HISTORY / LOG
	// ------------------------------------------------------------

	if l := cfg.Limits.MaxRegistersPerCall; l < 0 || l > maxRegistersPerCall {
		return fmt.Errorf("limits: max_registers_per_call %d out of range 1-%d", l, maxRegistersPerCall)
	}
	if l := cfg.Limits.MaxBitsPerCall; l < 0 || l > maxBitsPerCall {
		return fmt.Errorf("limits: max_bits_per_call %d out of range 1-%d", l, maxBitsPerCall)
	}
	if cfg.History < 0 {
		return fmt.Errorf("history: must be >= 0")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	// ------------------------------------------------------------
	// POLL READS
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must be >= 0")
	}

	type span struct {
		start uint16
		end   uint16
		name  string
	}

	// key = area
	spans := make(map[session.Area][]span)
	names := make(map[string]bool)

	for i, r := range cfg.Poll.Reads {
		label := r.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		area, err := session.ParseArea(r.Area)
		if err != nil {
			return fmt.Errorf("poll read %s: %w", label, err)
		}
		if r.End < r.Start {
			return fmt.Errorf("poll read %s: end %d before start %d", label, r.End, r.Start)
		}
		if r.Name != "" {
			if names[r.Name] {
				return fmt.Errorf("poll read %s: duplicate name", label)
			}
			names[r.Name] = true
		}

		if !area.Bits() {
			t := codec.TypeUint16
			if r.Type != "" {
				if t, err = codec.ParseType(r.Type); err != nil {
					return fmt.Errorf("poll read %s: %w", label, err)
				}
			}
			if w, ok := codec.WordsPerValue(t); ok {
				count := int(r.End) - int(r.Start) + 1
				if count%w != 0 {
					return fmt.Errorf("poll read %s: %d registers is not a whole number of %s values", label, count, t)
				}
			}
			if _, err := codec.ParseByteOrder(r.ByteOrder); err != nil {
				return fmt.Errorf("poll read %s: %w", label, err)
			}
			if _, err := codec.ParseWordOrder(r.WordOrder); err != nil {
				return fmt.Errorf("poll read %s: %w", label, err)
			}
		}

		for _, s := range spans[area] {
			// overlap check (inclusive)
			if !(r.End < s.start || r.Start > s.end) {
				return fmt.Errorf(
					"poll read %s: %s range=%d-%d overlaps with %s range=%d-%d",
					label, area, r.Start, r.End, s.name, s.start, s.end,
				)
			}
		}
		spans[area] = append(spans[area], span{start: r.Start, end: r.End, name: label})
	}

	return nil
}
