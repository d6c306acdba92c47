// Package gpio provides panel input scanning and enable outputs with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Reader scans the panel's button and encoder lines.
type Reader interface {
	// Read returns one scan in logical form.
	// Buttons are wired active-low: raw 0 = pressed.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Sample is a single scan of all input lines (already in logical form).
type Sample struct {
	Buttons  []bool // true = pressed
	EncoderA []bool
	EncoderB []bool
}

// EncoderPins is the pair of quadrature lines of one encoder.
type EncoderPins struct {
	A int
	B int
}

// Switch drives a single on/off output such as an LED or backlight enable.
type Switch interface {
	Set(on bool) error
	Close() error
}

// NopSwitch stands in for an output that is not connected.
type NopSwitch struct{}

func (NopSwitch) Set(bool) error { return nil }
func (NopSwitch) Close() error   { return nil }
