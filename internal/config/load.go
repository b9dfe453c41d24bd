// internal/config/load.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/transport"
)

// Load reads a YAML file, validates it and applies defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// ---- conversion to runtime types ----

// Params converts the connection section. Call after Normalize.
func (c ConnectionConfig) Params() (transport.Params, error) {
	kind, err := transport.ParseKind(c.Kind)
	if err != nil {
		return transport.Params{}, err
	}
	return transport.Params{
		Kind:     kind,
		Host:     c.Host,
		Port:     c.Port,
		Device:   c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
	}, nil
}

// Block is a ReadConfig resolved to session and codec types.
type Block struct {
	Name      string
	Area      session.Area
	Start     uint16
	End       uint16
	Type      codec.Type
	ByteOrder codec.ByteOrder
	WordOrder codec.WordOrder
}

// Resolve parses the names in r. Call after Normalize.
func (r ReadConfig) Resolve() (Block, error) {
	area, err := session.ParseArea(r.Area)
	if err != nil {
		return Block{}, err
	}
	b := Block{Name: r.Name, Area: area, Start: r.Start, End: r.End}
	if area.Bits() {
		return b, nil
	}
	if b.Type, err = codec.ParseType(r.Type); err != nil {
		return Block{}, err
	}
	if b.ByteOrder, err = codec.ParseByteOrder(r.ByteOrder); err != nil {
		return Block{}, err
	}
	if b.WordOrder, err = codec.ParseWordOrder(r.WordOrder); err != nil {
		return Block{}, err
	}
	return b, nil
}
