package logic

import "fmt"

// InputKind identifies the physical control that produced an interaction.
type InputKind string

const (
	InputButton  InputKind = "BUTTON"
	InputEncoder InputKind = "ENCODER"
)

// Interaction is a single detected press or encoder detent.
type Interaction struct {
	Kind  InputKind
	Index int
	// Direction is +1 (clockwise) or -1 for encoders, 0 for buttons.
	Direction int
}

func (i Interaction) String() string {
	if i.Kind == InputEncoder {
		return fmt.Sprintf("%s[%d]%+d", i.Kind, i.Index, i.Direction)
	}
	return fmt.Sprintf("%s[%d]", i.Kind, i.Index)
}

// Quadrature is one sample of an encoder's A and B channels.
type Quadrature struct {
	A bool
	B bool
}

// InputSample is one scan of the panel (already in logical form: true = pressed).
type InputSample struct {
	Time     int64
	Buttons  []bool
	Encoders []Quadrature
}

// lineState tracks debounce state for a single input line.
type lineState struct {
	// Current stable (debounced) value
	stable bool
	// Value waiting out the debounce period
	pending    bool
	hasPending bool
	// Time when pending value was first observed
	pendingSince int64
	// Whether a first stable value has been established
	baselined bool
}

// InputDetector debounces panel inputs and turns stable transitions into
// interactions. The first stable value of every line is a baseline and never
// produces an interaction.
type InputDetector struct {
	debounceMs int64
	buttons    []lineState
	encoders   []lineState
}

// NewInputDetector creates a detector for the given number of buttons and
// encoders. A debounce of 0 accepts a change on the sample it first appears.
func NewInputDetector(buttons, encoders int, debounceMs int64) *InputDetector {
	return &InputDetector{
		debounceMs: debounceMs,
		buttons:    make([]lineState, buttons),
		encoders:   make([]lineState, encoders),
	}
}

// Process takes a new sample and returns interactions in panel order:
// buttons first, then encoders.
func (d *InputDetector) Process(s InputSample) []Interaction {
	var out []Interaction

	for i := range d.buttons {
		if i >= len(s.Buttons) {
			break
		}
		if d.processLine(&d.buttons[i], s.Buttons[i], s.Time) && s.Buttons[i] {
			out = append(out, Interaction{Kind: InputButton, Index: i})
		}
	}

	// Only channel A is debounced; B is sampled at the A edge for direction.
	for i := range d.encoders {
		if i >= len(s.Encoders) {
			break
		}
		q := s.Encoders[i]
		if d.processLine(&d.encoders[i], q.A, s.Time) {
			dir := -1
			if q.A != q.B {
				dir = 1
			}
			out = append(out, Interaction{Kind: InputEncoder, Index: i, Direction: dir})
		}
	}

	return out
}

// processLine handles debounce for a single line. It returns true when a
// baselined line completes a transition.
func (d *InputDetector) processLine(ls *lineState, v bool, now int64) bool {
	if ls.baselined && v == ls.stable {
		// Back to stable, drop any pending change
		ls.hasPending = false
		return false
	}

	if !ls.hasPending || ls.pending != v {
		ls.pending = v
		ls.hasPending = true
		ls.pendingSince = now
	}

	if now-ls.pendingSince < d.debounceMs {
		return false
	}

	ls.stable = v
	ls.hasPending = false
	if !ls.baselined {
		ls.baselined = true
		return false
	}
	return true
}

// IsBaselined returns whether every line has a stable value.
func (d *InputDetector) IsBaselined() bool {
	for _, ls := range d.buttons {
		if !ls.baselined {
			return false
		}
	}
	for _, ls := range d.encoders {
		if !ls.baselined {
			return false
		}
	}
	return true
}

// Pressed returns the stable state of each button.
func (d *InputDetector) Pressed() []bool {
	out := make([]bool, len(d.buttons))
	for i, ls := range d.buttons {
		out[i] = ls.stable
	}
	return out
}
