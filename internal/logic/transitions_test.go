package logic

import "testing"

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func assertTypes(t *testing.T, got []Event, want ...EventType) {
	t.Helper()
	types := eventTypes(got)
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func frameAt(elapsed int64) FrameOutput {
	return Compose(DefaultPrimary, DefaultRotary, elapsed, elapsed)
}

func TestTransitionsNoChange(t *testing.T) {
	if events := Transitions(frameAt(100), frameAt(200)); events != nil {
		t.Errorf("expected no events inside AWAKE, got %v", eventTypes(events))
	}
	if events := Transitions(frameAt(5100), frameAt(5900)); events != nil {
		t.Errorf("expected no events inside DIMMING, got %v", eventTypes(events))
	}
}

func TestTransitionsFullTimeline(t *testing.T) {
	assertTypes(t, Transitions(frameAt(4999), frameAt(5000)),
		"PRIMARY_DIMMING", "ROTARY_DIMMING")

	assertTypes(t, Transitions(frameAt(5999), frameAt(6000)),
		"PRIMARY_STANDBY", "ROTARY_STANDBY", EventDisplayOff)

	assertTypes(t, Transitions(frameAt(30999), frameAt(31000)),
		"PRIMARY_DISABLING", "ROTARY_DISABLING")

	assertTypes(t, Transitions(frameAt(31499), frameAt(31500)),
		"PRIMARY_DISABLED", "ROTARY_DISABLED", EventRotaryLEDsOff, EventFullyOff)
}

func TestTransitionsWake(t *testing.T) {
	assertTypes(t, Transitions(frameAt(40000), frameAt(0)),
		"PRIMARY_AWAKE", "ROTARY_AWAKE", EventDisplayOn, EventRotaryLEDsOn)
}

func TestTransitionsSkippedStages(t *testing.T) {
	// A long gap between ticks jumps straight from AWAKE to DISABLED.
	assertTypes(t, Transitions(frameAt(0), frameAt(60000)),
		"PRIMARY_DISABLED", "ROTARY_DISABLED", EventDisplayOff, EventRotaryLEDsOff, EventFullyOff)
}

func TestTransitionsCarryFrame(t *testing.T) {
	cur := frameAt(6000)
	events := Transitions(frameAt(5999), cur)
	for _, e := range events {
		if e.Time != cur.Now {
			t.Errorf("%s: expected time %d, got %d", e.Type, cur.Now, e.Time)
		}
		if e.Frame != cur {
			t.Errorf("%s: expected current frame attached", e.Type)
		}
		if e.Input != nil {
			t.Errorf("%s: power events carry no input", e.Type)
		}
	}
}

func TestStageEvent(t *testing.T) {
	if got := StageEvent("ROTARY", StageStandby); got != "ROTARY_STANDBY" {
		t.Errorf("expected ROTARY_STANDBY, got %s", got)
	}
}
