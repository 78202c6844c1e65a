package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mud-protocol/tuxp-go/pkg/discovery"
)

// Config holds the gateway configuration. Every field can be set in the
// YAML file given with -config; flags given on the command line win.
type Config struct {
	ConfigFile string `yaml:"-"`

	Listen    string `yaml:"listen"`
	Hub       string `yaml:"hub"`
	Network   string `yaml:"network"`
	Advertise bool   `yaml:"advertise"`

	Channel       uint   `yaml:"channel"`
	FirstLanID    uint   `yaml:"first_lan_id"`
	AutoConfigure bool   `yaml:"auto_configure"`
	CodesFile     string `yaml:"codes_file"`
	StatePath     string `yaml:"state_path"`

	PollInterval time.Duration `yaml:"poll_interval"`

	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	ProtocolLog string `yaml:"protocol_log"`
	Interactive bool   `yaml:"interactive"`
}

// defaultConfig returns the configuration used when neither flags nor the
// config file set a value.
func defaultConfig() Config {
	return Config{
		Listen:        fmt.Sprintf(":%d", discovery.DefaultPort),
		Network:       "default",
		Advertise:     true,
		Channel:       0x17,
		FirstLanID:    0x01,
		AutoConfigure: true,
		StatePath:     "gateway-state.json",
		PollInterval:  20 * time.Millisecond,
		LogLevel:      "info",
	}
}

// registerFlags binds the flags of fs to cfg.
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file")

	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "Address the UDP hub listens on")
	fs.StringVar(&cfg.Hub, "hub", cfg.Hub, "Join an existing hub at host:port instead of running one")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "Radio network name advertised over mDNS")
	fs.BoolVar(&cfg.Advertise, "advertise", cfg.Advertise, "Advertise the hub over mDNS")

	fs.UintVar(&cfg.Channel, "channel", cfg.Channel, "Channel of allocated addresses and uplinks")
	fs.UintVar(&cfg.FirstLanID, "first-lan-id", cfg.FirstLanID, "LAN id of the first thing")
	fs.BoolVar(&cfg.AutoConfigure, "auto-configure", cfg.AutoConfigure, "Configure things as soon as they acknowledge an allocation")
	fs.StringVar(&cfg.CodesFile, "codes", cfg.CodesFile, "YAML file mapping thing ids to registration codes")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "Path of the allocation table (empty disables it)")

	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Radio poll interval")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to a rotating file")
	fs.StringVar(&cfg.ProtocolLog, "protocol-log", cfg.ProtocolLog, "Write protocol events to a .tlog file")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Start the interactive console")
}

// parseConfig parses args. When -config names a file, the file is loaded
// over the defaults and args are parsed again so flags take precedence.
func parseConfig(args []string) (Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("tuxp-gateway", flag.ContinueOnError)
	registerFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ConfigFile != "" {
		if err := readYAML(cfg.ConfigFile, &cfg); err != nil {
			return cfg, err
		}
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// readYAML decodes the YAML file at path into v.
func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadCodes reads the registration codes file. An empty path accepts any
// code and returns nil.
func loadCodes(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	codes := make(map[string]string)
	if err := readYAML(path, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Hub == "" && c.Listen == "" {
		return errors.New("either -listen or -hub is required")
	}
	if c.Channel > 0xFF {
		return fmt.Errorf("channel 0x%x does not fit a byte", c.Channel)
	}
	if c.FirstLanID == 0 || c.FirstLanID >= 0xFF {
		return fmt.Errorf("first LAN id must be in 1..254, got %d", c.FirstLanID)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.Advertise {
		if err := discovery.ValidateInstanceName(c.Network); err != nil {
			return fmt.Errorf("network: %w", err)
		}
	}
	return nil
}
