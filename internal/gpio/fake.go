package gpio

import "errors"

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains scripted scans to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeSwitch records every value written to it.
type FakeSwitch struct {
	// States holds each Set call in order.
	States []bool

	// SetError, if set, will be returned by Set()
	SetError error

	Closed bool
}

// Set records the value.
func (s *FakeSwitch) Set(on bool) error {
	if s.SetError != nil {
		return s.SetError
	}
	s.States = append(s.States, on)
	return nil
}

// On reports the last value written.
func (s *FakeSwitch) On() bool {
	return len(s.States) > 0 && s.States[len(s.States)-1]
}

// Close marks the switch as closed.
func (s *FakeSwitch) Close() error {
	s.Closed = true
	return nil
}
