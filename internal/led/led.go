// Package led applies controller frames to the panel illumination.
package led

import (
	"fmt"
	"math"

	"github.com/sweeney/panel-power/internal/gpio"
	"github.com/sweeney/panel-power/internal/logic"
)

// Levels is the illumination state written to the LED hardware.
type Levels struct {
	Primary  uint8 // 8-bit duty
	Rotary   uint8
	RotaryOn bool
}

// Duty converts a luminance percentage to an 8-bit duty cycle.
func Duty(percent float64) uint8 {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return 255
	}
	return uint8(math.Round(percent * 255 / 100))
}

// LevelsFor returns the levels for a frame. The rotary duty is forced to
// zero while rotary illumination is inactive.
func LevelsFor(f logic.FrameOutput) Levels {
	l := Levels{
		Primary:  Duty(f.Primary.Luminance),
		RotaryOn: f.RotaryIlluminationActive,
	}
	if l.RotaryOn {
		l.Rotary = Duty(f.Rotary.Luminance)
	}
	return l
}

// Driver tracks the applied levels and drives the rotary LED enable line.
// Hardware is only touched when something changed.
type Driver struct {
	rotaryEnable gpio.Switch

	last    Levels
	applied bool
}

// NewDriver creates a driver for the given rotary enable output.
func NewDriver(rotaryEnable gpio.Switch) *Driver {
	return &Driver{rotaryEnable: rotaryEnable}
}

// Apply writes the frame's levels. It reports whether the levels differ from
// the last successful Apply.
func (d *Driver) Apply(f logic.FrameOutput) (Levels, bool, error) {
	l := LevelsFor(f)
	if d.applied && l == d.last {
		return l, false, nil
	}

	if !d.applied || l.RotaryOn != d.last.RotaryOn {
		if err := d.rotaryEnable.Set(l.RotaryOn); err != nil {
			return l, false, fmt.Errorf("rotary enable: %w", err)
		}
	}

	d.last = l
	d.applied = true
	return l, true, nil
}

// Last returns the most recently applied levels.
func (d *Driver) Last() Levels {
	return d.last
}
