// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/panel-power/internal/logic"
)

// Topic is the MQTT topic for power and interaction events.
const Topic = "panel/power/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "panel/power/system"

// TopicState is the retained MQTT topic carrying the current illumination state.
const TopicState = "panel/power/state"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a power or interaction event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishState sends the current frame as the retained panel state.
	PublishState(frame logic.FrameOutput) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for events.
type Payload struct {
	Panel PanelPayload `json:"panel"`
}

// PanelPayload contains the event details.
type PanelPayload struct {
	Timestamp string     `json:"timestamp"`
	Event     string     `json:"event"`
	Input     string     `json:"input,omitempty"`
	State     StateInner `json:"state"`
}

// StatePayload is the retained panel state.
type StatePayload struct {
	State StateInner `json:"state"`
}

// StateInner is the frame in wire form.
type StateInner struct {
	ElapsedMs     int64      `json:"elapsed_ms"`
	Primary       TrackState `json:"primary"`
	Rotary        TrackState `json:"rotary"`
	FullyOff      bool       `json:"fully_off"`
	DisplayActive bool       `json:"display_active"`
	RotaryLEDs    bool       `json:"rotary_leds"`
}

// TrackState is one track in wire form.
type TrackState struct {
	Stage     string  `json:"stage"`
	Luminance float64 `json:"luminance"`
}

func stateInner(f logic.FrameOutput) StateInner {
	return StateInner{
		ElapsedMs:     f.Elapsed,
		Primary:       TrackState{Stage: f.Primary.Stage.String(), Luminance: round2(f.Primary.Luminance)},
		Rotary:        TrackState{Stage: f.Rotary.Stage.String(), Luminance: round2(f.Rotary.Luminance)},
		FullyOff:      f.FullyOff,
		DisplayActive: f.DisplayActive,
		RotaryLEDs:    f.RotaryIlluminationActive,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatPayload creates the JSON payload for an event. start is the wall
// time of the monotonic clock's epoch.
func FormatPayload(start time.Time, event logic.Event) ([]byte, error) {
	p := Payload{
		Panel: PanelPayload{
			Timestamp: start.Add(time.Duration(event.Time) * time.Millisecond).UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     stateInner(event.Frame),
		},
	}
	if event.Input != nil {
		p.Panel.Input = event.Input.String()
	}
	return json.Marshal(p)
}

// FormatStatePayload creates the JSON payload for the retained state topic.
func FormatStatePayload(frame logic.FrameOutput) ([]byte, error) {
	return json.Marshal(StatePayload{State: stateInner(frame)})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willPayload is the last will registered with the broker.
func willPayload() string {
	b, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE", Reason: "LWT"}})
	return string(b)
}
