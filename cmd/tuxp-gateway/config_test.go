package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":41794", cfg.Listen)
	assert.Equal(t, uint(0x17), cfg.Channel)
	assert.True(t, cfg.AutoConfigure)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
}

func TestParseConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	yml := `network: lab
channel: 0x20
auto_configure: false
poll_interval: 100ms
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := parseConfig([]string{"-config", path, "-network", "bench"})
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.Network)
	assert.Equal(t, uint(0x20), cfg.Channel)
	assert.False(t, cfg.AutoConfigure)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
}

func TestLoadCodes(t *testing.T) {
	codes, err := loadCodes("")
	require.NoError(t, err)
	assert.Nil(t, codes)

	path := filepath.Join(t.TempDir(), "codes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("TUXP-one: 1234567890AB\n"), 0o600))
	codes, err = loadCodes(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TUXP-one": "1234567890AB"}, codes)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no hub", func(c *Config) { c.Listen = "" }},
		{"wide channel", func(c *Config) { c.Channel = 0x100 }},
		{"lan id zero", func(c *Config) { c.FirstLanID = 0 }},
		{"lan id broadcast", func(c *Config) { c.FirstLanID = 0xFF }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"empty network", func(c *Config) { c.Network = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
