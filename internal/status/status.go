// Package status provides a thread-safe status tracker for the panel-power daemon.
// It is read by the HTTP handlers and the websocket stream.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/panel-power/internal/led"
	"github.com/sweeney/panel-power/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Primary     logic.TrackConfig
	Rotary      logic.TrackConfig
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Frame           logic.FrameOutput
	Levels          led.Levels
	LastInteraction int64
	InputsReady     bool
	Counts          logic.EventCounts
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	Network         *NetworkInfo
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the latest frame. Called from runLoop on every tick.
func (t *Tracker) Update(frame logic.FrameOutput, levels led.Levels, lastInteraction int64, inputsReady bool) {
	t.mu.Lock()
	t.snap.Frame = frame
	t.snap.Levels = levels
	t.snap.LastInteraction = lastInteraction
	t.snap.InputsReady = inputsReady
	t.mu.Unlock()
}

// RecordInteraction counts a gated interaction.
func (t *Tracker) RecordInteraction(dispatched bool) {
	t.mu.Lock()
	if dispatched {
		t.snap.Counts.Actions++
	} else {
		t.snap.Counts.Wakes++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
