// Package config loads the panel-power YAML configuration.
//
// Defaults live in Default so a missing or partial file still yields a
// complete configuration. Everything is validated eagerly at startup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/panel-power/internal/logic"
)

// Config is the top-level YAML document.
type Config struct {
	Power   PowerConfig  `yaml:"power"`
	Inputs  InputConfig  `yaml:"inputs"`
	Outputs OutputConfig `yaml:"outputs"`
	MQTT    MQTTConfig   `yaml:"mqtt"`
	HTTP    HTTPConfig   `yaml:"http"`

	PollMs      int64 `yaml:"poll_ms"`
	HeartbeatMs int64 `yaml:"heartbeat_ms"` // 0 disables
}

// PowerConfig holds one brightness curve per illumination group.
type PowerConfig struct {
	Primary TrackConfig `yaml:"primary"`
	Rotary  TrackConfig `yaml:"rotary"`
}

// TrackConfig is the YAML form of logic.TrackConfig.
type TrackConfig struct {
	AwakeMs      int64   `yaml:"awake_ms"`
	DimmingMs    int64   `yaml:"dimming_ms"`
	StandbyMs    int64   `yaml:"standby_ms"`
	DisablingMs  int64   `yaml:"disabling_ms"`
	FullPower    float64 `yaml:"full_power"`
	StandbyPower float64 `yaml:"standby_power"`
}

// InputConfig lists the GPIO lines scanned for interactions (BCM numbering).
type InputConfig struct {
	Chip       string          `yaml:"chip"`
	Buttons    []int           `yaml:"buttons"`
	Encoders   []EncoderConfig `yaml:"encoders"`
	DebounceMs int64           `yaml:"debounce_ms"`
}

// EncoderConfig is the pair of quadrature lines of one rotary encoder.
type EncoderConfig struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
}

// OutputConfig holds the enable lines driven from the frame flags.
// A negative offset leaves the output unconnected.
type OutputConfig struct {
	RotaryLEDs int `yaml:"rotary_leds"`
	Backlight  int `yaml:"backlight"`
}

type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	BufferSize int    `yaml:"buffer_size"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

func fromLogic(c logic.TrackConfig) TrackConfig {
	return TrackConfig{
		AwakeMs:      c.AwakeMs,
		DimmingMs:    c.DimmingMs,
		StandbyMs:    c.StandbyMs,
		DisablingMs:  c.DisablingMs,
		FullPower:    c.FullPower,
		StandbyPower: c.StandbyPower,
	}
}

// Logic converts the YAML track into the controller's configuration.
func (t TrackConfig) Logic() logic.TrackConfig {
	return logic.TrackConfig{
		AwakeMs:      t.AwakeMs,
		DimmingMs:    t.DimmingMs,
		StandbyMs:    t.StandbyMs,
		DisablingMs:  t.DisablingMs,
		FullPower:    t.FullPower,
		StandbyPower: t.StandbyPower,
	}
}

// Default returns a fully populated configuration matching the panel firmware.
func Default() Config {
	return Config{
		Power: PowerConfig{
			Primary: fromLogic(logic.DefaultPrimary),
			Rotary:  fromLogic(logic.DefaultRotary),
		},
		Inputs: InputConfig{
			Chip:       "gpiochip0",
			Buttons:    []int{5, 6, 13, 19},
			Encoders:   []EncoderConfig{{A: 17, B: 27}},
			DebounceMs: 20,
		},
		Outputs: OutputConfig{
			RotaryLEDs: 22,
			Backlight:  23,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			ClientID:   "panel-power",
			BufferSize: 100,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		PollMs:      10,
		HeartbeatMs: 15 * 60 * 1000,
	}
}

// Load reads path over the defaults. An empty path or an empty file returns
// the defaults.
// Unknown fields are rejected. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty or comment-only file keeps the defaults.
		if !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config yaml: %w", err)
		}
	} else if err := dec.Decode(&yaml.Node{}); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would produce undefined behavior.
func (c Config) Validate() error {
	if err := c.Power.Primary.Logic().Validate("primary"); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Power.Rotary.Logic().Validate("rotary"); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.PollMs <= 0 {
		return fmt.Errorf("config: poll_ms must be > 0, got %d", c.PollMs)
	}
	if c.HeartbeatMs < 0 {
		return fmt.Errorf("config: heartbeat_ms must be >= 0, got %d", c.HeartbeatMs)
	}
	if c.Inputs.DebounceMs < 0 {
		return fmt.Errorf("config: inputs.debounce_ms must be >= 0, got %d", c.Inputs.DebounceMs)
	}
	if c.MQTT.BufferSize < 0 {
		return fmt.Errorf("config: mqtt.buffer_size must be >= 0, got %d", c.MQTT.BufferSize)
	}

	seen := make(map[int]string)
	claim := func(offset int, name string) error {
		if offset < 0 {
			return fmt.Errorf("config: %s: negative line offset %d", name, offset)
		}
		if prev, ok := seen[offset]; ok {
			return fmt.Errorf("config: line %d used by both %s and %s", offset, prev, name)
		}
		seen[offset] = name
		return nil
	}
	for i, b := range c.Inputs.Buttons {
		if err := claim(b, fmt.Sprintf("inputs.buttons[%d]", i)); err != nil {
			return err
		}
	}
	for i, e := range c.Inputs.Encoders {
		if err := claim(e.A, fmt.Sprintf("inputs.encoders[%d].a", i)); err != nil {
			return err
		}
		if err := claim(e.B, fmt.Sprintf("inputs.encoders[%d].b", i)); err != nil {
			return err
		}
	}
	if c.Outputs.RotaryLEDs >= 0 {
		if err := claim(c.Outputs.RotaryLEDs, "outputs.rotary_leds"); err != nil {
			return err
		}
	}
	if c.Outputs.Backlight >= 0 {
		if err := claim(c.Outputs.Backlight, "outputs.backlight"); err != nil {
			return err
		}
	}
	return nil
}

// Poll returns the tick interval.
func (c Config) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval; zero disables heartbeats.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}
