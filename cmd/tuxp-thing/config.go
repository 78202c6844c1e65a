package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mud-protocol/tuxp-go/pkg/discovery"
	"github.com/mud-protocol/tuxp-go/pkg/thing"
)

// RadioType selects the radio driver.
type RadioType string

const (
	RadioUDP  RadioType = "udp"
	RadioAS32 RadioType = "as32"
)

// StoreType selects where the commissioning record is kept.
type StoreType string

const (
	StoreJSON   StoreType = "json"
	StoreEEPROM StoreType = "eeprom"
)

// Config holds the node configuration. Every field can be set in the YAML
// file given with -config; flags given on the command line win.
type Config struct {
	ConfigFile string `yaml:"-"`

	Radio        RadioType     `yaml:"radio"`
	Hub          string        `yaml:"hub"`
	Network      string        `yaml:"network"`
	SerialPort   string        `yaml:"serial_port"`
	BaudRate     int           `yaml:"baud_rate"`
	ExternalPins bool          `yaml:"external_mode_pins"`
	RadioSettle  time.Duration `yaml:"radio_settle"`

	Store     StoreType `yaml:"store"`
	StatePath string    `yaml:"state_path"`

	Model            string `yaml:"model"`
	RegistrationCode string `yaml:"registration_code"`
	CodeFile         string `yaml:"code_file"`

	ReceiveInterval time.Duration `yaml:"receive_interval"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	DacRetry        time.Duration `yaml:"dac_retry"`

	Demo           bool          `yaml:"demo"`
	UptimeInterval time.Duration `yaml:"uptime_interval"`

	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	ProtocolLog string `yaml:"protocol_log"`
	Interactive bool   `yaml:"interactive"`
}

// defaultConfig returns the configuration used when neither flags nor the
// config file set a value.
func defaultConfig() Config {
	return Config{
		Radio:           RadioUDP,
		Network:         "default",
		BaudRate:        9600,
		RadioSettle:     time.Second,
		Store:           StoreJSON,
		StatePath:       "thing-state.json",
		Model:           "TUXP",
		ReceiveInterval: thing.DefaultReceiveInterval,
		TickInterval:    50 * time.Millisecond,
		DacRetry:        10 * time.Second,
		Demo:            true,
		UptimeInterval:  time.Minute,
		LogLevel:        "info",
	}
}

// registerFlags binds the flags of fs to cfg.
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file")

	fs.StringVar((*string)(&cfg.Radio), "radio", string(cfg.Radio), "Radio driver: udp, as32")
	fs.StringVar(&cfg.Hub, "hub", cfg.Hub, "UDP hub host:port (browsed over mDNS if empty)")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "Radio network name used to find the hub")
	fs.StringVar(&cfg.SerialPort, "serial", cfg.SerialPort, "Serial port of the AS32 module")
	fs.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "Serial baud rate")
	fs.BoolVar(&cfg.ExternalPins, "external-pins", cfg.ExternalPins, "AS32 mode pins are wired externally, not to DTR/RTS")
	fs.DurationVar(&cfg.RadioSettle, "radio-settle", cfg.RadioSettle, "AS32 settle time around commands")

	fs.StringVar((*string)(&cfg.Store), "store", string(cfg.Store), "Commissioning store: json, eeprom")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "Path of the state file or EEPROM image")

	fs.StringVar(&cfg.Model, "model", cfg.Model, "Model name used as thing id prefix")
	fs.StringVar(&cfg.RegistrationCode, "code", cfg.RegistrationCode, "Registration code")
	fs.StringVar(&cfg.CodeFile, "code-file", cfg.CodeFile, "Registration code file (provisioned if missing)")

	fs.DurationVar(&cfg.ReceiveInterval, "receive-interval", cfg.ReceiveInterval, "Minimum time between radio reads")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Periodic work interval")
	fs.DurationVar(&cfg.DacRetry, "dac-retry", cfg.DacRetry, "Restart the DAC exchange after this long without progress")

	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "Register the led action and uptime report")
	fs.DurationVar(&cfg.UptimeInterval, "uptime-interval", cfg.UptimeInterval, "Uptime report interval")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to a rotating file")
	fs.StringVar(&cfg.ProtocolLog, "protocol-log", cfg.ProtocolLog, "Write protocol events to a .tlog file")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Start the interactive console")
}

// parseConfig parses args. When -config names a file, the file is loaded
// over the defaults and args are parsed again so flags take precedence.
func parseConfig(args []string) (Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("tuxp-thing", flag.ContinueOnError)
	registerFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ConfigFile != "" {
		if err := loadConfigFile(cfg.ConfigFile, &cfg); err != nil {
			return cfg, err
		}
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// loadConfigFile decodes the YAML file at path into cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Radio {
	case RadioUDP:
		if c.Hub == "" && c.Network == "" {
			return errors.New("udp radio needs -hub or -network")
		}
	case RadioAS32:
		if c.SerialPort == "" {
			return errors.New("as32 radio needs -serial")
		}
	default:
		return fmt.Errorf("unknown radio: %s", c.Radio)
	}

	switch c.Store {
	case StoreJSON, StoreEEPROM:
	default:
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if c.StatePath == "" {
		return errors.New("state path required")
	}

	if c.RegistrationCode != "" && c.CodeFile != "" {
		return errors.New("-code and -code-file are mutually exclusive")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.ReceiveInterval < 0 {
		return fmt.Errorf("negative receive interval %v", c.ReceiveInterval)
	}
	if c.Demo && c.UptimeInterval <= 0 {
		return fmt.Errorf("uptime interval must be positive, got %v", c.UptimeInterval)
	}
	if len(c.Network) > discovery.MaxInstanceNameLen {
		return fmt.Errorf("network name longer than %d bytes", discovery.MaxInstanceNameLen)
	}
	return nil
}
