// Package config loads and validates the lamp-bridge configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/lamp-bridge/internal/gpio"
)

// Config is the complete daemon configuration.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Hardware HardwareConfig `yaml:"hardware"`
	Timing   TimingConfig   `yaml:"timing"`
	Features FeatureConfig  `yaml:"features"`
	HTTPAddr string         `yaml:"http_addr"`
}

// MQTTConfig contains broker, topic, and token settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	CommandTopic      string `yaml:"command_topic"`
	StateTopic        string `yaml:"state_topic"`
	AvailabilityTopic string `yaml:"availability_topic"`
	DiagnosticsTopic  string `yaml:"diagnostics_topic"`
	TemperatureTopic  string `yaml:"temperature_topic"`

	// Command tokens sent to the command topic.
	OnPayload  string `yaml:"on_payload"`
	OffPayload string `yaml:"off_payload"`

	// Substring tokens matched against inbound state payloads.
	StateOnToken  string `yaml:"state_on_token"`
	StateOffToken string `yaml:"state_off_token"`
}

// HardwareConfig contains GPIO pin assignments (BCM numbering).
type HardwareConfig struct {
	ButtonPin      int    `yaml:"button_pin"`
	RelayPin       int    `yaml:"relay_pin"`
	LEDPin         int    `yaml:"led_pin"`
	ButtonPolarity string `yaml:"button_polarity"` // low-to-high, high-to-low, both
	DebounceMs     int    `yaml:"debounce_ms"`
}

// TimingConfig contains loop and timeout settings, all in milliseconds
// unless noted.
type TimingConfig struct {
	PollMs            int `yaml:"poll_ms"`
	CommandTimeoutMs  int `yaml:"command_timeout_ms"`
	SettleMs          int `yaml:"settle_ms"`
	StatsIntervalS    int `yaml:"stats_interval_s"`    // 0 disables
	TemperatureS      int `yaml:"temperature_s"`       // sample interval, 0 disables
	TemperatureDeltaC int `yaml:"temperature_delta_c"` // publish threshold
}

// FeatureConfig toggles the optional peripheral components.
type FeatureConfig struct {
	EnableDiagnostics     bool `yaml:"enable_diagnostics"`
	EnableShadowIndicator bool `yaml:"enable_shadow_indicator"`
	EnableTemperature     bool `yaml:"enable_temperature"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:            "tcp://192.168.1.200:1883",
			ClientID:          "lamp-bridge",
			CommandTopic:      "lamp/command",
			StateTopic:        "lamp/state",
			AvailabilityTopic: "lamp-bridge/availability",
			DiagnosticsTopic:  "lamp-bridge/status",
			TemperatureTopic:  "lamp-bridge/temperature",
			OnPayload:         "on",
			OffPayload:        "off",
			StateOnToken:      "ON",
			StateOffToken:     "OFF",
		},
		Hardware: HardwareConfig{
			ButtonPin:      gpio.DefaultPinButton,
			RelayPin:       gpio.DefaultPinRelay,
			LEDPin:         gpio.DefaultPinLED,
			ButtonPolarity: string(gpio.PolarityBoth),
			DebounceMs:     20,
		},
		Timing: TimingConfig{
			PollMs:            50,
			CommandTimeoutMs:  1500,
			SettleMs:          1000,
			StatsIntervalS:    900,
			TemperatureS:      60,
			TemperatureDeltaC: 2,
		},
		Features: FeatureConfig{
			EnableDiagnostics: true,
		},
		HTTPAddr: ":8080",
	}
}

// Load reads configuration from the given path. An explicit path must be
// readable; with an empty path the standard locations are searched and no
// file at all means the defaults.
func Load(path string) (*Config, error) {
	var data []byte
	var usedPath string

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read configuration file %s: %w", path, err)
		}
		data = b
		usedPath = path
	} else {
		searchPaths := []string{
			"/etc/lamp-bridge/config.yaml",
			"/etc/lamp-bridge.yaml",
			"./config.yaml",
		}
		for _, p := range searchPaths {
			b, err := os.ReadFile(p)
			if err == nil {
				data = b
				usedPath = p
				break
			}
		}
	}

	cfg := Default()
	if usedPath == "" {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse configuration %s: %w", usedPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", usedPath, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is not specified")
	}
	if c.MQTT.CommandTopic == "" {
		return fmt.Errorf("command topic is not specified")
	}
	if c.MQTT.StateTopic == "" {
		return fmt.Errorf("state topic is not specified")
	}
	if c.MQTT.OnPayload == "" || c.MQTT.OffPayload == "" {
		return fmt.Errorf("command payload tokens are not specified")
	}
	if c.MQTT.StateOnToken == "" || c.MQTT.StateOffToken == "" {
		return fmt.Errorf("state tokens are not specified")
	}
	if !gpio.Polarity(c.Hardware.ButtonPolarity).Valid() {
		return fmt.Errorf("unknown button polarity %q", c.Hardware.ButtonPolarity)
	}
	if c.Timing.PollMs <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Timing.CommandTimeoutMs <= 0 {
		return fmt.Errorf("command timeout must be positive")
	}
	if c.Timing.SettleMs <= 0 {
		return fmt.Errorf("settle delay must be positive")
	}
	if c.Features.EnableDiagnostics && c.MQTT.DiagnosticsTopic == "" {
		return fmt.Errorf("diagnostics enabled but no diagnostics topic")
	}
	if c.Features.EnableTemperature && c.MQTT.TemperatureTopic == "" {
		return fmt.Errorf("temperature enabled but no temperature topic")
	}
	return nil
}

// Poll returns the tick interval.
func (c *Config) Poll() time.Duration {
	return time.Duration(c.Timing.PollMs) * time.Millisecond
}

// CommandTimeout returns the command confirmation timeout.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Timing.CommandTimeoutMs) * time.Millisecond
}

// Settle returns the discharge settle delay.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Timing.SettleMs) * time.Millisecond
}

// StatsInterval returns the stats reporting interval (0 disables).
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Timing.StatsIntervalS) * time.Second
}

// TemperatureInterval returns the temperature sample interval (0 disables).
func (c *Config) TemperatureInterval() time.Duration {
	return time.Duration(c.Timing.TemperatureS) * time.Second
}

// Debounce returns the button debounce period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Hardware.DebounceMs) * time.Millisecond
}
