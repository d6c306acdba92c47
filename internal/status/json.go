package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/panel-power/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string       `json:"event,omitempty"`
	Reason          string       `json:"reason,omitempty"`
	Ready           bool         `json:"ready"`
	Primary         TrackJSON    `json:"primary"`
	Rotary          TrackJSON    `json:"rotary"`
	FullyOff        bool         `json:"fully_off"`
	DisplayActive   bool         `json:"display_active"`
	RotaryLEDs      bool         `json:"rotary_leds"`
	IdleMs          int64        `json:"idle_ms"`
	LastInteraction int64        `json:"last_interaction_ms"`
	UptimeSeconds   int64        `json:"uptime_seconds"`
	StartTime       string       `json:"start_time"`
	Timestamp       string       `json:"timestamp"`
	MQTT            MQTTStatus   `json:"mqtt"`
	Counts          CountsJSON   `json:"interaction_counts"`
	Network         *NetworkJSON `json:"network,omitempty"`
	Config          ConfigJSON   `json:"config"`
}

// TrackJSON is one illumination track.
type TrackJSON struct {
	Stage     string  `json:"stage"`
	Luminance float64 `json:"luminance"`
	Duty      uint8   `json:"duty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of interaction counts.
type CountsJSON struct {
	Wakes   int `json:"wakes"`
	Actions int `json:"actions"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64           `json:"poll_ms"`
	DebounceMs  int64           `json:"debounce_ms"`
	HeartbeatMs int64           `json:"heartbeat_ms"`
	Broker      string          `json:"broker"`
	HTTPAddr    string          `json:"http_addr"`
	Primary     TrackConfigJSON `json:"primary"`
	Rotary      TrackConfigJSON `json:"rotary"`
}

// TrackConfigJSON is the JSON representation of a track curve.
type TrackConfigJSON struct {
	AwakeMs      int64   `json:"awake_ms"`
	DimmingMs    int64   `json:"dimming_ms"`
	StandbyMs    int64   `json:"standby_ms"`
	DisablingMs  int64   `json:"disabling_ms"`
	FullPower    float64 `json:"full_power"`
	StandbyPower float64 `json:"standby_power"`
}

func trackConfigJSON(c logic.TrackConfig) TrackConfigJSON {
	return TrackConfigJSON{
		AwakeMs:      c.AwakeMs,
		DimmingMs:    c.DimmingMs,
		StandbyMs:    c.StandbyMs,
		DisablingMs:  c.DisablingMs,
		FullPower:    c.FullPower,
		StandbyPower: c.StandbyPower,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func buildInner(snap Snapshot) StatusInner {
	f := snap.Frame
	return StatusInner{
		Ready:           snap.InputsReady,
		Primary:         TrackJSON{Stage: f.Primary.Stage.String(), Luminance: round2(f.Primary.Luminance), Duty: snap.Levels.Primary},
		Rotary:          TrackJSON{Stage: f.Rotary.Stage.String(), Luminance: round2(f.Rotary.Luminance), Duty: snap.Levels.Rotary},
		FullyOff:        f.FullyOff,
		DisplayActive:   f.DisplayActive,
		RotaryLEDs:      f.RotaryIlluminationActive,
		IdleMs:          f.Elapsed,
		LastInteraction: snap.LastInteraction,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Wakes:   snap.Counts.Wakes,
			Actions: snap.Counts.Actions,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Primary:     trackConfigJSON(snap.Config.Primary),
			Rotary:      trackConfigJSON(snap.Config.Rotary),
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatCompact returns the single-line JSON status used by the live stream.
func FormatCompact(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
