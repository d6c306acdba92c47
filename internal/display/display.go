// Package display gates the status display on the power controller's
// display-active flag.
package display

import "github.com/sweeney/panel-power/internal/gpio"

// Renderer draws or blanks the physical display.
type Renderer interface {
	Render(page int) error
	Clear() error
}

// Gate redraws the display only when it is switched on or the page changes
// while on, and clears it once when it is switched off.
type Gate struct {
	r           Renderer
	prevEnabled bool
	prevPage    int
}

// NewGate creates a gate for a display that starts blank.
func NewGate(r Renderer) *Gate {
	return &Gate{r: r, prevPage: -1}
}

// Update applies the enabled flag for the current page. The daemon shows a
// single status page; page is kept for a collaborator that pages through
// screens. State only advances when the renderer succeeds, so a failed draw is
// retried on the next tick.
func (g *Gate) Update(page int, enabled bool) error {
	switch {
	case enabled && (!g.prevEnabled || page != g.prevPage):
		if err := g.r.Render(page); err != nil {
			return err
		}
	case !enabled && g.prevEnabled:
		if err := g.r.Clear(); err != nil {
			return err
		}
	}
	g.prevEnabled = enabled
	g.prevPage = page
	return nil
}

// Enabled reports the last applied state.
func (g *Gate) Enabled() bool {
	return g.prevEnabled
}

// SwitchRenderer powers a display through its backlight enable line.
type SwitchRenderer struct {
	backlight gpio.Switch
}

func NewSwitchRenderer(backlight gpio.Switch) *SwitchRenderer {
	return &SwitchRenderer{backlight: backlight}
}

func (s *SwitchRenderer) Render(int) error { return s.backlight.Set(true) }
func (s *SwitchRenderer) Clear() error     { return s.backlight.Set(false) }

// FakeRenderer records calls for test assertions.
type FakeRenderer struct {
	Renders []int
	Clears  int

	RenderError error
}

func (f *FakeRenderer) Render(page int) error {
	if f.RenderError != nil {
		return f.RenderError
	}
	f.Renders = append(f.Renders, page)
	return nil
}

func (f *FakeRenderer) Clear() error {
	f.Clears++
	return nil
}
