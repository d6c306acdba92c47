package logic

// StageEvent returns the event type for a track entering a stage, e.g.
// "PRIMARY_DIMMING".
func StageEvent(track string, s Stage) EventType {
	return EventType(track + "_" + s.String())
}

// Transitions compares two consecutive frames and returns the events for
// everything that changed, in a fixed order: primary stage, rotary stage,
// display, rotary LEDs, fully off.
func Transitions(prev, cur FrameOutput) []Event {
	var types []EventType

	if cur.Primary.Stage != prev.Primary.Stage {
		types = append(types, StageEvent("PRIMARY", cur.Primary.Stage))
	}
	if cur.Rotary.Stage != prev.Rotary.Stage {
		types = append(types, StageEvent("ROTARY", cur.Rotary.Stage))
	}

	if cur.DisplayActive != prev.DisplayActive {
		if cur.DisplayActive {
			types = append(types, EventDisplayOn)
		} else {
			types = append(types, EventDisplayOff)
		}
	}

	if cur.RotaryIlluminationActive != prev.RotaryIlluminationActive {
		if cur.RotaryIlluminationActive {
			types = append(types, EventRotaryLEDsOn)
		} else {
			types = append(types, EventRotaryLEDsOff)
		}
	}

	if cur.FullyOff && !prev.FullyOff {
		types = append(types, EventFullyOff)
	}

	if len(types) == 0 {
		return nil
	}
	events := make([]Event, len(types))
	for i, t := range types {
		events[i] = Event{Time: cur.Now, Type: t, Frame: cur}
	}
	return events
}
