// Package config loads the dice's YAML configuration file, the same way the
// original firmware's DiceConfigManager loaded a config blob from LittleFS,
// but with validation happening up front instead of at point of use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qdice/quantumdice/internal/protocol"
)

// RadioConfig controls entanglement proximity gating.
type RadioConfig struct {
	RSSILimit int8 `yaml:"rssi_limit"`
}

// DisplayConfig carries the entanglement color palette and the D6 short-click
// color-flash timing.
type DisplayConfig struct {
	EntangColors       []uint16 `yaml:"entang_colors"`
	ColorFlashTimeoutMS int     `yaml:"color_flash_timeout_ms"`
}

// PowerConfig controls deep-sleep behavior.
type PowerConfig struct {
	DeepSleepTimeoutMS int `yaml:"deep_sleep_timeout_ms"`
}

// DebugConfig exposes the original firmware's bench-testing overrides.
type DebugConfig struct {
	AlwaysSeven      bool `yaml:"always_seven"`
	RandomSwitchPoint uint8 `yaml:"random_switch_point"`
}

// PeeringConfig pins this dice's well-known partners by MAC, mirroring
// DiceConfigManager's setDeviceAMac/B1Mac/B2Mac setters.
type PeeringConfig struct {
	DeviceA  string `yaml:"device_a_mac,omitempty"`
	DeviceB1 string `yaml:"device_b1_mac,omitempty"`
	DeviceB2 string `yaml:"device_b2_mac,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level YAML configuration for a dice process.
type Config struct {
	DiceID  string        `yaml:"dice_id"`
	Radio   RadioConfig   `yaml:"radio"`
	Display DisplayConfig `yaml:"display"`
	Power   PowerConfig   `yaml:"power"`
	Debug   DebugConfig   `yaml:"debug"`
	Peering PeeringConfig `yaml:"peering"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default yields a fully populated Config, matching the original firmware's
// initDefaultConfig values where those are documented.
func Default() Config {
	return Config{
		DiceID: "DICE1",
		Radio: RadioConfig{
			RSSILimit: -60,
		},
		Display: DisplayConfig{
			EntangColors:        []uint16{0xFFE0}, // yellow, RGB565
			ColorFlashTimeoutMS: 2000,
		},
		Power: PowerConfig{
			DeepSleepTimeoutMS: 300000,
		},
		Debug: DebugConfig{
			AlwaysSeven:       false,
			RandomSwitchPoint: 50,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses a YAML config file, applying it on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config invariants, called after defaults + file are applied.
func (c *Config) Validate() error {
	if c.DiceID == "" {
		return errors.New("dice_id must not be empty")
	}
	if len(c.Display.EntangColors) == 0 || len(c.Display.EntangColors) > 8 {
		return errors.New("display.entang_colors must have between 1 and 8 entries")
	}
	if c.Power.DeepSleepTimeoutMS < 0 {
		return errors.New("power.deep_sleep_timeout_ms must be >= 0")
	}
	if c.Debug.RandomSwitchPoint > 100 {
		return errors.New("debug.random_switch_point must be between 0 and 100")
	}
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	for name, mac := range map[string]string{
		"peering.device_a_mac":  c.Peering.DeviceA,
		"peering.device_b1_mac": c.Peering.DeviceB1,
		"peering.device_b2_mac": c.Peering.DeviceB2,
	} {
		if mac == "" {
			continue
		}
		if _, err := protocol.ParseMac(mac); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
