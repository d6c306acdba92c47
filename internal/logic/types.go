// Package logic contains the pure inactivity power model for the control panel.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as milliseconds from a monotonic clock.
package logic

import (
	"errors"
	"fmt"
	"math"
)

// Stage is one window of the inactivity timeline.
type Stage int

const (
	StageAwake Stage = iota
	StageDimming
	StageStandby
	StageDisabling
	StageDisabled
)

func (s Stage) String() string {
	switch s {
	case StageAwake:
		return "AWAKE"
	case StageDimming:
		return "DIMMING"
	case StageStandby:
		return "STANDBY"
	case StageDisabling:
		return "DISABLING"
	case StageDisabled:
		return "DISABLED"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// TrackConfig describes the brightness curve of one illumination group.
// Durations are in milliseconds, powers in percent.
type TrackConfig struct {
	AwakeMs      int64
	DimmingMs    int64
	StandbyMs    int64
	DisablingMs  int64
	FullPower    float64
	StandbyPower float64
}

// Default curves of the panel firmware.
var (
	DefaultPrimary = TrackConfig{
		AwakeMs:      5000,
		DimmingMs:    1000,
		StandbyMs:    25000,
		DisablingMs:  500,
		FullPower:    25,
		StandbyPower: 7,
	}
	DefaultRotary = TrackConfig{
		AwakeMs:      5000,
		DimmingMs:    1000,
		StandbyMs:    25000,
		DisablingMs:  500,
		FullPower:    100,
		StandbyPower: 40,
	}
)

// Boundaries returns the cumulative end of the awake, dimming, standby and
// disabling windows.
func (c TrackConfig) Boundaries() [4]int64 {
	awake := c.AwakeMs
	dimmed := awake + c.DimmingMs
	standby := dimmed + c.StandbyMs
	return [4]int64{awake, dimmed, standby, standby + c.DisablingMs}
}

// TotalMs is the inactivity after which the track is disabled.
func (c TrackConfig) TotalMs() int64 {
	return c.Boundaries()[3]
}

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid power configuration")

// ConfigError reports a track configuration rejected at construction.
type ConfigError struct {
	Track  string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s track: %s %s", e.Track, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks durations are non-negative and sum without overflow, powers
// lie in [0,100] and the standby power does not exceed the full power.
func (c TrackConfig) Validate(track string) error {
	durations := []struct {
		name string
		v    int64
	}{
		{"awake_ms", c.AwakeMs},
		{"dimming_ms", c.DimmingMs},
		{"standby_ms", c.StandbyMs},
		{"disabling_ms", c.DisablingMs},
	}
	var total int64
	for _, d := range durations {
		if d.v < 0 {
			return &ConfigError{Track: track, Field: d.name, Reason: fmt.Sprintf("must be >= 0, got %d", d.v)}
		}
		if d.v > math.MaxInt64-total {
			return &ConfigError{Track: track, Field: d.name, Reason: "overflows the total duration"}
		}
		total += d.v
	}

	if c.FullPower < 0 || c.FullPower > 100 {
		return &ConfigError{Track: track, Field: "full_power", Reason: fmt.Sprintf("must be within [0,100], got %v", c.FullPower)}
	}
	if c.StandbyPower < 0 || c.StandbyPower > 100 {
		return &ConfigError{Track: track, Field: "standby_power", Reason: fmt.Sprintf("must be within [0,100], got %v", c.StandbyPower)}
	}
	if c.StandbyPower > c.FullPower {
		return &ConfigError{Track: track, Field: "standby_power", Reason: fmt.Sprintf("%v exceeds full_power %v", c.StandbyPower, c.FullPower)}
	}
	return nil
}

// TrackOutput is the evaluation of one track at one point in time.
type TrackOutput struct {
	Luminance float64
	Stage     Stage
}

// FrameOutput is everything the LED and display consumers need for one tick.
type FrameOutput struct {
	Now     int64
	Elapsed int64

	Primary TrackOutput
	Rotary  TrackOutput

	// FullyOff is true when either track is disabled.
	FullyOff bool
	// DisplayActive follows the rotary track: awake or dimming only.
	DisplayActive bool
	// RotaryIlluminationActive is true until the rotary track is disabled.
	RotaryIlluminationActive bool
}

// EventType identifies a power or interaction event.
type EventType string

const (
	EventWake          EventType = "WAKE"
	EventAction        EventType = "ACTION"
	EventDisplayOn     EventType = "DISPLAY_ON"
	EventDisplayOff    EventType = "DISPLAY_OFF"
	EventRotaryLEDsOn  EventType = "ROTARY_LEDS_ON"
	EventRotaryLEDsOff EventType = "ROTARY_LEDS_OFF"
	EventFullyOff      EventType = "FULLY_OFF"
)

// Event is a power state change or a gated interaction to be published.
type Event struct {
	// Time is the monotonic millisecond timestamp of the tick.
	Time  int64
	Type  EventType
	Frame FrameOutput
	// Input is set for WAKE and ACTION events.
	Input *Interaction
}

// EventCounts tracks gated interactions since startup.
type EventCounts struct {
	Wakes   int
	Actions int
}
