// Package status provides a thread-safe status tracker for the lamp-bridge
// daemon. It is read by HTTP handlers and by the MQTT snapshot publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/lamp-bridge/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs           int64
	CommandTimeoutMs int64
	SettleMs         int64
	Broker           string
	CommandTopic     string
	StateTopic       string
	HTTPPort         string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Bulb          logic.State
	Relay         logic.State
	Bypass        bool
	Pending       bool
	Counts        logic.Counters
	Disconnects   int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Mode returns the operating mode as a display value.
func (s Snapshot) Mode() string {
	if s.Bypass {
		return "BYPASS"
	}
	return "NORMAL"
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
			Bulb:      logic.StateOff,
			Relay:     logic.StateOff,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets engine state and counters. Called from the tick loop.
func (t *Tracker) Update(bulb, relay logic.State, bypass, pending bool, counts logic.Counters) {
	t.mu.Lock()
	t.snap.Bulb = bulb
	t.snap.Relay = relay
	t.snap.Bypass = bypass
	t.snap.Pending = pending
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// AddDisconnect counts a lost broker connection. Safe to call from the
// MQTT client's connection-lost callback.
func (t *Tracker) AddDisconnect() {
	t.mu.Lock()
	t.snap.Disconnects++
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
