//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader scans panel inputs using the Linux GPIO character device.
type RealReader struct {
	chip     *gpiocdev.Chip
	buttons  *gpiocdev.Lines
	encoders *gpiocdev.Lines

	nButtons  int
	nEncoders int
}

// NewRealReader requests the button lines with pull-ups and the encoder lines
// as plain inputs on the named chip.
func NewRealReader(chipName string, buttons []int, encoders []EncoderPins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{
		chip:      chip,
		nButtons:  len(buttons),
		nEncoders: len(encoders),
	}

	if len(buttons) > 0 {
		r.buttons, err = chip.RequestLines(buttons, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			chip.Close()
			return nil, fmt.Errorf("request button pins %v: %w", buttons, err)
		}
	}

	if len(encoders) > 0 {
		// A lines first, then B lines.
		offsets := make([]int, 0, 2*len(encoders))
		for _, e := range encoders {
			offsets = append(offsets, e.A)
		}
		for _, e := range encoders {
			offsets = append(offsets, e.B)
		}
		r.encoders, err = chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			if r.buttons != nil {
				r.buttons.Close()
			}
			chip.Close()
			return nil, fmt.Errorf("request encoder pins %v: %w", offsets, err)
		}
	}

	return r, nil
}

// Read returns one scan. Buttons are inverted: raw 0 = pressed.
func (r *RealReader) Read() (Sample, error) {
	s := Sample{
		Buttons:  make([]bool, r.nButtons),
		EncoderA: make([]bool, r.nEncoders),
		EncoderB: make([]bool, r.nEncoders),
	}

	if r.buttons != nil {
		raw := make([]int, r.nButtons)
		if err := r.buttons.Values(raw); err != nil {
			return Sample{}, fmt.Errorf("read button pins: %w", err)
		}
		for i, v := range raw {
			s.Buttons[i] = v == 0
		}
	}

	if r.encoders != nil {
		raw := make([]int, 2*r.nEncoders)
		if err := r.encoders.Values(raw); err != nil {
			return Sample{}, fmt.Errorf("read encoder pins: %w", err)
		}
		for i := 0; i < r.nEncoders; i++ {
			s.EncoderA[i] = raw[i] != 0
			s.EncoderB[i] = raw[r.nEncoders+i] != 0
		}
	}

	return s, nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing to leave a clean state for shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	for name, lines := range map[string]*gpiocdev.Lines{"button": r.buttons, "encoder": r.encoders} {
		if lines == nil {
			continue
		}
		if err := lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pins: %w", name, err))
		}
		if err := lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pins: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSwitch drives one output line, active high.
type RealSwitch struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	offset int
}

// NewRealSwitch requests offset as an output, initially off.
func NewRealSwitch(chipName string, offset int) (*RealSwitch, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	return &RealSwitch{chip: chip, line: line, offset: offset}, nil
}

// Set drives the line high for on, low for off.
func (s *RealSwitch) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", s.offset, err)
	}
	return nil
}

// Close turns the output off and returns the line to an input with pull-down.
func (s *RealSwitch) Close() error {
	var errs []error
	if err := s.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", s.offset, err))
	}
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", s.offset, err))
	}
	if err := s.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", s.offset, err))
	}
	if err := s.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
