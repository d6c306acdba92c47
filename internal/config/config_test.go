package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/panel-power/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel-power.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, logic.DefaultPrimary, cfg.Power.Primary.Logic())
	assert.Equal(t, logic.DefaultRotary, cfg.Power.Rotary.Logic())
	assert.Equal(t, 10*time.Millisecond, cfg.Poll())
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
power:
  primary:
    full_power: 50
    standby_power: 10
  rotary:
    awake_ms: 8000
poll_ms: 25
inputs:
  buttons: [4, 5]
  encoders:
    - {a: 20, b: 21}
outputs:
  rotary_leds: -1
mqtt:
  broker: tcp://broker.local:1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.Power.Primary.FullPower)
	assert.Equal(t, 10.0, cfg.Power.Primary.StandbyPower)
	assert.Equal(t, int64(5000), cfg.Power.Primary.AwakeMs, "untouched fields keep defaults")
	assert.Equal(t, int64(8000), cfg.Power.Rotary.AwakeMs)
	assert.Equal(t, 100.0, cfg.Power.Rotary.FullPower)
	assert.Equal(t, int64(25), cfg.PollMs)
	assert.Equal(t, []int{4, 5}, cfg.Inputs.Buttons)
	assert.Equal(t, []EncoderConfig{{A: 20, B: 21}}, cfg.Inputs.Encoders)
	assert.Equal(t, -1, cfg.Outputs.RotaryLEDs)
	assert.Equal(t, 23, cfg.Outputs.Backlight)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "panel-power", cfg.MQTT.ClientID)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "power:\n  primary:\n    awake: 5000\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config yaml")
}

func TestLoadRejectsTrailingDocument(t *testing.T) {
	path := writeConfig(t, "poll_ms: 10\n---\npoll_ms: 20\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing document")
}

func TestLoadRejectsTrailingEmptyMapping(t *testing.T) {
	path := writeConfig(t, "poll_ms: 10\n---\n{}\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing document")
}

func TestLoadEmptyFileReturnsDefaults(t *testing.T) {
	for name, body := range map[string]string{
		"empty":        "",
		"comment only": "# panel-power config\n# nothing set yet\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, body))
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsInvalidPower(t *testing.T) {
	path := writeConfig(t, "power:\n  rotary:\n    standby_power: 140\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, logic.ErrInvalidConfig))

	var ce *logic.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "rotary", ce.Track)
	assert.Equal(t, "standby_power", ce.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"zero poll", func(c *Config) { c.PollMs = 0 }, "poll_ms"},
		{"negative heartbeat", func(c *Config) { c.HeartbeatMs = -1 }, "heartbeat_ms"},
		{"negative debounce", func(c *Config) { c.Inputs.DebounceMs = -1 }, "debounce_ms"},
		{"negative buffer", func(c *Config) { c.MQTT.BufferSize = -1 }, "buffer_size"},
		{"negative button", func(c *Config) { c.Inputs.Buttons = []int{-3} }, "negative line offset"},
		{"duplicate button", func(c *Config) { c.Inputs.Buttons = []int{5, 5} }, "line 5 used by both"},
		{"encoder clashes with output", func(c *Config) { c.Inputs.Encoders = []EncoderConfig{{A: 22, B: 24}} }, "outputs.rotary_leds"},
		{"negative duration", func(c *Config) { c.Power.Primary.DimmingMs = -10 }, "dimming_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAllowsDisconnectedOutputs(t *testing.T) {
	cfg := Default()
	cfg.Outputs.RotaryLEDs = -1
	cfg.Outputs.Backlight = -1
	assert.NoError(t, cfg.Validate())
}
