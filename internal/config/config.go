// internal/config/config.go
package config

type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Limits     LimitsConfig     `yaml:"limits"`
	History    int              `yaml:"history"` // rolling packet log size
	Log        LogConfig        `yaml:"log"`
	Poll       PollConfig       `yaml:"poll"`
}

// ---- CONNECTION ----

type ConnectionConfig struct {
	Kind string `yaml:"kind"` // tcp | rtu

	// tcp
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// rtu
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"` // N | E | O

	UnitID    *int `yaml:"unit_id"` // optional; 0 is a valid (broadcast) id
	TimeoutMs int  `yaml:"timeout_ms"`
}

// Unit returns the configured unit id. Call after Normalize.
func (c ConnectionConfig) Unit() uint8 {
	if c.UnitID == nil {
		return DefaultUnitID
	}
	return uint8(*c.UnitID)
}

// ---- LIMITS ----

type LimitsConfig struct {
	MaxRegistersPerCall int `yaml:"max_registers_per_call"`
	MaxBitsPerCall      int `yaml:"max_bits_per_call"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
	File  string `yaml:"file"`  // empty = stderr
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int          `yaml:"interval_ms"`
	Reads      []ReadConfig `yaml:"reads"`
}

// ReadConfig is one polled block. Start and End are inclusive.
type ReadConfig struct {
	Name      string `yaml:"name"`
	Area      string `yaml:"area"` // holding | input | coil | discrete
	Start     uint16 `yaml:"start"`
	End       uint16 `yaml:"end"`
	Type      string `yaml:"type"`       // register areas only
	ByteOrder string `yaml:"byte_order"` // big | little
	WordOrder string `yaml:"word_order"` // big | little
}
