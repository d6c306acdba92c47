package logic

import "sync"

// Controller owns the activity clock and gates interactions on the power
// state. It is safe for concurrent use: an interrupt-style input goroutine may
// call OnInteraction while a tick loop calls EvaluateFrame.
type Controller struct {
	primary TrackConfig
	rotary  TrackConfig

	mu              sync.Mutex
	lastInteraction int64 // activity clock, epoch zero at boot
}

// NewController validates both track configurations and returns a controller
// whose activity clock starts at zero.
func NewController(primary, rotary TrackConfig) (*Controller, error) {
	if err := primary.Validate("primary"); err != nil {
		return nil, err
	}
	if err := rotary.Validate("rotary"); err != nil {
		return nil, err
	}
	return &Controller{
		primary: primary,
		rotary:  rotary,
	}, nil
}

// EvaluateFrame computes both tracks at nowMs. Repeated calls with the same
// nowMs and no interaction in between return identical frames.
func (c *Controller) EvaluateFrame(nowMs int64) FrameOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Compose(c.primary, c.rotary, nowMs, nowMs-c.lastInteraction)
}

// OnInteraction resets the activity clock to nowMs. It returns true if the
// panel was on and the interaction should be dispatched as an action, false
// if the interaction only woke the panel.
//
// The off state is the frame composition at nowMs before the reset, so the
// answer does not depend on whether a tick ran since the last interaction.
func (c *Controller) OnInteraction(nowMs int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasOff := Compose(c.primary, c.rotary, nowMs, nowMs-c.lastInteraction).FullyOff
	c.lastInteraction = nowMs
	return !wasOff
}

// LastInteraction returns the activity clock.
func (c *Controller) LastInteraction() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastInteraction
}

// Compose evaluates both tracks for the given elapsed inactivity and derives
// the panel-wide flags. It has no side effects.
func Compose(primary, rotary TrackConfig, nowMs, elapsedMs int64) FrameOutput {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	p := Evaluate(primary, elapsedMs)
	r := Evaluate(rotary, elapsedMs)

	return FrameOutput{
		Now:                      nowMs,
		Elapsed:                  elapsedMs,
		Primary:                  p,
		Rotary:                   r,
		FullyOff:                 p.Stage == StageDisabled || r.Stage == StageDisabled,
		DisplayActive:            r.Stage == StageAwake || r.Stage == StageDimming,
		RotaryIlluminationActive: r.Stage != StageDisabled,
	}
}
