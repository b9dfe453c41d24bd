// internal/config/normalize.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-debugger/internal/chunk"
	"github.com/tamzrod/modbus-debugger/internal/packet"
)

// Defaults applied by Normalize.
const (
	DefaultPort       = 502
	DefaultBaudRate   = 9600
	DefaultDataBits   = 8
	DefaultStopBits   = 1
	DefaultParity     = "N"
	DefaultUnitID     = 1
	DefaultTimeoutMs  = 3000
	DefaultIntervalMs = 1000
	DefaultLogLevel   = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	c := &cfg.Connection
	c.Kind = strings.ToLower(c.Kind)
	if c.Kind == "" {
		c.Kind = "tcp"
	}
	if c.Kind == "tcp" && c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.DataBits == 0 {
		c.DataBits = DefaultDataBits
	}
	if c.StopBits == 0 {
		c.StopBits = DefaultStopBits
	}
	c.Parity = strings.ToUpper(c.Parity)
	if c.Parity == "" {
		c.Parity = DefaultParity
	}
	if c.UnitID == nil {
		id := DefaultUnitID
		c.UnitID = &id
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}

	if cfg.Limits.MaxRegistersPerCall == 0 {
		cfg.Limits.MaxRegistersPerCall = chunk.MaxRegistersPerCall
	}
	if cfg.Limits.MaxBitsPerCall == 0 {
		cfg.Limits.MaxBitsPerCall = chunk.MaxBitsPerCall
	}
	if cfg.History == 0 {
		cfg.History = packet.DefaultLogSize
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	for i := range cfg.Poll.Reads {
		r := &cfg.Poll.Reads[i]
		r.Area = strings.ToLower(r.Area)
		if r.Name == "" {
			r.Name = fmt.Sprintf("%s@%d", r.Area, r.Start)
		}
		if r.Type == "" {
			r.Type = "UINT16"
		}
		r.Type = strings.ToUpper(r.Type)
		if r.ByteOrder == "" {
			r.ByteOrder = "big"
		}
		if r.WordOrder == "" {
			r.WordOrder = "big"
		}
	}
}
