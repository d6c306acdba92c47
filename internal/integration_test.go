package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/panel-power/internal/clock"
	"github.com/sweeney/panel-power/internal/display"
	"github.com/sweeney/panel-power/internal/gpio"
	"github.com/sweeney/panel-power/internal/led"
	"github.com/sweeney/panel-power/internal/logic"
	"github.com/sweeney/panel-power/internal/mqtt"
	"github.com/sweeney/panel-power/internal/status"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// panel wires the fakes together the way the daemon does.
type panel struct {
	reader     *gpio.FakeReader
	detector   *logic.InputDetector
	controller *logic.Controller
	clock      *clock.ManualClock
	publisher  *mqtt.FakePublisher
	leds       *led.Driver
	rotary     *gpio.FakeSwitch
	gate       *display.Gate
	renderer   *display.FakeRenderer
	tracker    *status.Tracker

	prev    logic.FrameOutput
	hasPrev bool
}

func newPanel(t *testing.T, samples []gpio.Sample, buttons, encoders int, debounceMs int64) *panel {
	t.Helper()
	controller, err := logic.NewController(logic.DefaultPrimary, logic.DefaultRotary)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	p := &panel{
		reader:     gpio.NewFakeReader(samples),
		detector:   logic.NewInputDetector(buttons, encoders, debounceMs),
		controller: controller,
		clock:      clock.NewManualClock(0),
		publisher:  mqtt.NewFakePublisher(),
		rotary:     &gpio.FakeSwitch{},
		renderer:   &display.FakeRenderer{},
		tracker:    status.NewTracker(startTime, status.Config{}),
	}
	p.publisher.Start = startTime
	p.leds = led.NewDriver(p.rotary)
	p.gate = display.NewGate(p.renderer)
	return p
}

// tick runs one poll iteration at the current clock time.
func (p *panel) tick(t *testing.T) {
	t.Helper()
	now := p.clock.NowMs()

	s, err := p.reader.Read()
	if err != nil {
		t.Fatalf("gpio read error: %v", err)
	}
	in := logic.InputSample{Time: now, Buttons: s.Buttons}
	for i := range s.EncoderA {
		in.Encoders = append(in.Encoders, logic.Quadrature{A: s.EncoderA[i], B: s.EncoderB[i]})
	}

	for _, i := range p.detector.Process(in) {
		input := i
		dispatched := p.controller.OnInteraction(now)
		typ := logic.EventWake
		if dispatched {
			typ = logic.EventAction
		}
		p.publisher.Publish(logic.Event{Time: now, Type: typ, Frame: p.controller.EvaluateFrame(now), Input: &input})
		p.tracker.RecordInteraction(dispatched)
	}

	frame := p.controller.EvaluateFrame(now)
	levels, changed, err := p.leds.Apply(frame)
	if err != nil {
		t.Fatalf("led apply: %v", err)
	}
	if changed {
		p.publisher.PublishState(frame)
	}
	if err := p.gate.Update(0, frame.DisplayActive); err != nil {
		t.Fatalf("display update: %v", err)
	}
	if p.hasPrev {
		for _, e := range logic.Transitions(p.prev, frame) {
			p.publisher.Publish(e)
		}
	}
	p.prev, p.hasPrev = frame, true
	p.tracker.Update(frame, levels, p.controller.LastInteraction(), p.detector.IsBaselined())
}

// runFor ticks every stepMs until all samples are consumed.
func (p *panel) runFor(t *testing.T, n int, stepMs int64) {
	t.Helper()
	for i := 0; i < n; i++ {
		p.tick(t)
		p.clock.Advance(stepMs)
	}
}

func buttons(v ...bool) gpio.Sample {
	return gpio.Sample{Buttons: v}
}

func repeat(s gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func concat(parts ...[]gpio.Sample) []gpio.Sample {
	var out []gpio.Sample
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TestIntegrationWakeGateExample follows the documented interaction sequence
// against the controller directly.
func TestIntegrationWakeGateExample(t *testing.T) {
	c, err := logic.NewController(logic.DefaultPrimary, logic.DefaultRotary)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if !c.OnInteraction(0) {
		t.Error("interaction at boot should be dispatched")
	}
	if f := c.EvaluateFrame(31501); !f.FullyOff {
		t.Fatalf("expected fully off at 31501, got %+v", f)
	}
	if c.OnInteraction(31502) {
		t.Error("interaction while fully off should be absorbed")
	}
	if !c.OnInteraction(31503) {
		t.Error("interaction after wake should be dispatched")
	}
	if f := c.EvaluateFrame(31503); f.Primary.Stage != logic.StageAwake || f.Primary.Luminance != 25 {
		t.Errorf("expected awake primary at full power, got %+v", f.Primary)
	}
}

// TestIntegrationFullFlow drives a single button through idle, wake and action.
func TestIntegrationFullFlow(t *testing.T) {
	samples := concat(
		repeat(buttons(false), 64), // 0..31500ms at 500ms ticks
		repeat(buttons(true), 2),   // press accepted at 32500
		repeat(buttons(false), 2),
		repeat(buttons(true), 2), // press accepted at 34500
	)
	p := newPanel(t, samples, 1, 0, 20)
	p.runFor(t, len(samples), 500)

	want := []logic.EventType{
		"PRIMARY_DIMMING", "ROTARY_DIMMING",
		"PRIMARY_STANDBY", "ROTARY_STANDBY", logic.EventDisplayOff,
		"PRIMARY_DISABLING", "ROTARY_DISABLING",
		"PRIMARY_DISABLED", "ROTARY_DISABLED", logic.EventRotaryLEDsOff, logic.EventFullyOff,
		logic.EventWake,
		"PRIMARY_AWAKE", "ROTARY_AWAKE", logic.EventDisplayOn, logic.EventRotaryLEDsOn,
		logic.EventAction,
	}
	got := p.publisher.EventTypes()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}

	wake := p.publisher.Events[11]
	if wake.Time != 32500 {
		t.Errorf("WAKE time: got %d, want 32500", wake.Time)
	}
	action := p.publisher.Events[16]
	if action.Time != 34500 {
		t.Errorf("ACTION time: got %d, want 34500", action.Time)
	}

	if !p.rotary.On() {
		t.Error("rotary LEDs should be enabled after wake")
	}
	if len(p.renderer.Renders) != 2 || p.renderer.Clears != 1 {
		t.Errorf("display: renders=%d clears=%d", len(p.renderer.Renders), p.renderer.Clears)
	}

	c := p.tracker.Snapshot().Counts
	if c.Wakes != 1 || c.Actions != 1 {
		t.Errorf("counts: got %+v", c)
	}
}

func TestIntegrationNoEventsAtStartup(t *testing.T) {
	// A button held at boot is a baseline, not an interaction.
	p := newPanel(t, repeat(buttons(true, false), 10), 2, 0, 20)
	p.runFor(t, 10, 100)

	if len(p.publisher.Events) != 0 {
		t.Errorf("expected no events at startup, got %v", p.publisher.EventTypes())
	}
	if !p.detector.IsBaselined() {
		t.Error("expected detector baselined")
	}
	if pressed := p.detector.Pressed(); !pressed[0] || pressed[1] {
		t.Errorf("Pressed: got %v, want [true false]", pressed)
	}
}

func TestIntegrationBounceRejection(t *testing.T) {
	samples := concat(
		repeat(buttons(false), 4),
		[]gpio.Sample{buttons(true)},
		repeat(buttons(false), 4),
	)
	p := newPanel(t, samples, 1, 0, 20)
	p.runFor(t, len(samples), 10)

	if len(p.publisher.Events) != 0 {
		t.Errorf("expected bounce rejected, got %v", p.publisher.EventTypes())
	}
	if p.controller.LastInteraction() != 0 {
		t.Errorf("activity clock moved on a bounce: %d", p.controller.LastInteraction())
	}
}

func TestIntegrationEncoderTurns(t *testing.T) {
	enc := func(a, b bool) gpio.Sample {
		return gpio.Sample{EncoderA: []bool{a}, EncoderB: []bool{b}}
	}
	samples := concat(
		repeat(enc(false, false), 2),
		repeat(enc(true, false), 2),  // A rises with B low: +1
		repeat(enc(false, false), 2), // A falls with B low: -1
		repeat(enc(true, true), 2),   // A rises with B high: -1
	)
	p := newPanel(t, samples, 0, 1, 5)
	p.runFor(t, len(samples), 10)

	if len(p.publisher.Events) != 3 {
		t.Fatalf("expected 3 turns, got %v", p.publisher.EventTypes())
	}
	wantDir := []int{1, -1, -1}
	for i, e := range p.publisher.Events {
		if e.Type != logic.EventAction {
			t.Errorf("turn %d: got %s, want ACTION", i, e.Type)
		}
		if e.Input == nil || e.Input.Kind != logic.InputEncoder || e.Input.Direction != wantDir[i] {
			t.Errorf("turn %d: got input %v, want direction %d", i, e.Input, wantDir[i])
		}
	}
}

func TestIntegrationSimultaneousPresses(t *testing.T) {
	// Two buttons pressed on the same tick while fully off: the first wakes
	// the panel and the second is dispatched.
	samples := concat(
		repeat(buttons(false, false), 2),
		repeat(buttons(true, true), 2),
	)
	p := newPanel(t, samples, 2, 0, 20)
	p.clock.Set(100000)
	p.runFor(t, 2, 100)
	// Fully off before the presses arrive.
	if !p.prev.FullyOff {
		t.Fatal("expected panel fully off")
	}
	p.runFor(t, 2, 100)

	got := p.publisher.EventTypes()
	if len(got) < 2 || got[0] != logic.EventWake || got[1] != logic.EventAction {
		t.Fatalf("expected WAKE then ACTION, got %v", got)
	}
	if p.publisher.Events[0].Input.Index != 0 || p.publisher.Events[1].Input.Index != 1 {
		t.Errorf("expected button 0 to wake and button 1 to act")
	}
}

func TestIntegrationPublishFailureDoesNotCrash(t *testing.T) {
	p := newPanel(t, repeat(buttons(false), 1), 1, 0, 20)
	p.publisher.PublishError = errors.New("broker down")
	p.runFor(t, 20, 500)

	if len(p.publisher.Events) != 0 {
		t.Errorf("failed publishes must not be recorded")
	}
	if p.prev.Primary.Stage != logic.StageStandby {
		t.Errorf("expected standby after 9500ms, got %s", p.prev.Primary.Stage)
	}
}

func TestIntegrationStatePublishedOnlyOnChange(t *testing.T) {
	p := newPanel(t, repeat(buttons(false), 1), 1, 0, 20)
	// Awake window: one state publish for the initial frame only.
	p.runFor(t, 10, 500)
	if len(p.publisher.States) != 1 {
		t.Fatalf("expected 1 state during awake window, got %d", len(p.publisher.States))
	}
	// Standby holds a constant level.
	p.clock.Set(10000)
	p.runFor(t, 1, 500)
	n := len(p.publisher.States)
	p.runFor(t, 10, 500)
	if len(p.publisher.States) != n {
		t.Errorf("state republished while holding standby: %d -> %d", n, len(p.publisher.States))
	}
}

func TestIntegrationPayloadFormat(t *testing.T) {
	samples := concat(repeat(buttons(false), 2), repeat(buttons(true), 2))
	p := newPanel(t, samples, 1, 0, 20)
	p.runFor(t, len(samples), 500)

	if len(p.publisher.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(p.publisher.Payloads))
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(p.publisher.Payloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	panelObj := parsed["panel"]
	if panelObj["event"] != "ACTION" {
		t.Errorf("event: got %v, want ACTION", panelObj["event"])
	}
	if panelObj["input"] != "BUTTON[0]" {
		t.Errorf("input: got %v, want BUTTON[0]", panelObj["input"])
	}
	if panelObj["timestamp"] != "2026-01-01T12:00:01Z" {
		t.Errorf("timestamp: got %v", panelObj["timestamp"])
	}
}

func TestIntegrationShutdownPayloadFormat(t *testing.T) {
	p := newPanel(t, repeat(buttons(false), 1), 1, 0, 20)
	p.runFor(t, 3, 100)
	p.tracker.SetMQTTConnected(true)

	snap := p.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	}
	if err := p.publisher.PublishSystem(event); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(p.publisher.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.Event != "SHUTDOWN" || s.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", s.Event, s.Reason)
	}
	if !s.Ready || !s.MQTT.Connected {
		t.Errorf("expected ready and connected, got %+v", s)
	}
	if s.Primary.Stage != "AWAKE" || s.Primary.Duty != 64 {
		t.Errorf("primary: got %+v, want AWAKE duty 64", s.Primary)
	}
}

func TestIntegrationStartupWithNetworkInfo(t *testing.T) {
	tr := status.NewTracker(startTime, status.Config{Broker: "tcp://localhost:1883"})
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "10.0.0.5", Status: "connected", SSID: "Panel"})

	pub := mqtt.NewFakePublisher()
	snap := tr.Snapshot()
	err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
	if err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Network == nil || parsed.Status.Network.IP != "10.0.0.5" {
		t.Errorf("expected network info, got %+v", parsed.Status.Network)
	}
	if parsed.Status.Ready {
		t.Error("startup snapshot should not be ready")
	}
}
