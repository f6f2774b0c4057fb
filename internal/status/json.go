package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Bulb          string     `json:"bulb"`
	Relay         string     `json:"relay"`
	Mode          string     `json:"mode"`
	Pending       bool       `json:"command_pending"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected   bool   `json:"connected"`
	Broker      string `json:"broker"`
	Disconnects int    `json:"disconnects"`
}

// CountsJSON is the JSON representation of engine counters.
type CountsJSON struct {
	ButtonPresses   int `json:"button_presses"`
	CommandTimeouts int `json:"command_timeouts"`
	Resyncs         int `json:"resyncs"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs           int64  `json:"poll_ms"`
	CommandTimeoutMs int64  `json:"command_timeout_ms"`
	SettleMs         int64  `json:"settle_ms"`
	Broker           string `json:"broker"`
	CommandTopic     string `json:"command_topic"`
	StateTopic       string `json:"state_topic"`
	HTTPPort         string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Bulb:          string(snap.Bulb),
		Relay:         string(snap.Relay),
		Mode:          snap.Mode(),
		Pending:       snap.Pending,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected:   snap.MQTTConnected,
			Broker:      snap.Config.Broker,
			Disconnects: snap.Disconnects,
		},
		Counts: CountsJSON{
			ButtonPresses:   snap.Counts.ButtonPresses,
			CommandTimeouts: snap.Counts.CommandTimeouts,
			Resyncs:         snap.Counts.Resyncs,
		},
		Config: ConfigJSON{
			PollMs:           snap.Config.PollMs,
			CommandTimeoutMs: snap.Config.CommandTimeoutMs,
			SettleMs:         snap.Config.SettleMs,
			Broker:           snap.Config.Broker,
			CommandTopic:     snap.Config.CommandTopic,
			StateTopic:       snap.Config.StateTopic,
			HTTPPort:         snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT lifecycle event
// (STARTUP, SHUTDOWN, STATS).
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
