package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration. Defaults reproduce the MPU
// sender's deployed setup, so running without a file just works; the file
// and flags exist for everything else.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Output  OutputConfig  `yaml:"output"`
	Mapping MappingConfig `yaml:"mapping"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

type ListenConfig struct {
	Addr string `yaml:"addr"` // UDP bind address, must match the sender port
}

type OutputConfig struct {
	Driver     string `yaml:"driver"`      // "rtmidi" or "serial"
	PortMatch  string `yaml:"port_match"`  // substring of the MIDI output port name
	SerialPort string `yaml:"serial_port"` // device path for the serial driver
	BaudRate   int    `yaml:"baud_rate"`   // 0 = DIN MIDI rate
}

type MappingConfig struct {
	BaseNote        int  `yaml:"base_note"`
	DefaultVelocity int  `yaml:"default_velocity"`
	HoldMS          int  `yaml:"hold_ms"`
	RawDegrees      bool `yaml:"raw_degrees"` // disable the deci-degree rescale heuristic
}

type FeedConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	IntervalMS int    `yaml:"interval_ms"` // websocket push interval
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Listen: ListenConfig{Addr: "0.0.0.0:8000"},
		Output: OutputConfig{
			Driver:    "rtmidi",
			PortMatch: "loopMIDI",
		},
		Mapping: MappingConfig{
			BaseNote:        36, // C2
			DefaultVelocity: 112,
			HoldMS:          100,
		},
		Feed: FeedConfig{
			Enabled:    true,
			Addr:       ":8800",
			IntervalMS: 50,
		},
	}
}

// LoadConfig reads and validates a config file. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the rest of the code cannot assume away.
func (c *Config) Validate() error {
	switch c.Output.Driver {
	case "rtmidi", "serial":
	default:
		return fmt.Errorf("output.driver must be \"rtmidi\" or \"serial\", got %q", c.Output.Driver)
	}
	if c.Output.Driver == "serial" && c.Output.SerialPort == "" {
		return fmt.Errorf("output.serial_port is required for the serial driver")
	}
	if c.Mapping.BaseNote < 0 || c.Mapping.BaseNote > 127 {
		return fmt.Errorf("mapping.base_note %d out of MIDI range", c.Mapping.BaseNote)
	}
	if c.Mapping.DefaultVelocity < 0 || c.Mapping.DefaultVelocity > 127 {
		return fmt.Errorf("mapping.default_velocity %d out of MIDI range", c.Mapping.DefaultVelocity)
	}
	if c.Mapping.HoldMS <= 0 {
		return fmt.Errorf("mapping.hold_ms must be positive, got %d", c.Mapping.HoldMS)
	}
	if c.Feed.Enabled && c.Feed.IntervalMS <= 0 {
		return fmt.Errorf("feed.interval_ms must be positive, got %d", c.Feed.IntervalMS)
	}
	return nil
}
