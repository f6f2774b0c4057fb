// Package logic contains the pure reconciliation state machine for the
// lamp bridge. This package has NO external dependencies (no GPIO, MQTT,
// OS, or time.Sleep). Time is always injectable via time.Time parameters;
// hardware and network actions are returned as effects for the caller to
// apply.
package logic

import "time"

// State represents the logical on/off state of the lamp.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EffectKind identifies an action the engine wants performed.
type EffectKind string

const (
	// EffectSetRelay drives the physical relay output.
	EffectSetRelay EffectKind = "SET_RELAY"
	// EffectPublishCommand sends the desired state to the command topic.
	EffectPublishCommand EffectKind = "PUBLISH_COMMAND"
)

// Effect is a single action to apply, in order, after an engine call.
type Effect struct {
	Kind EffectKind
	On   bool
}

// Counters tracks diagnostic counts since startup. Increment-only, no
// correctness invariant.
type Counters struct {
	ButtonPresses   int
	CommandTimeouts int
	Resyncs         int
}

// Config contains the engine's timing constants and state-topic tokens.
type Config struct {
	// CommandTimeout is how long to wait for a state confirmation after
	// sending a command before entering bypass mode.
	CommandTimeout time.Duration
	// SettleDelay is how long the relay is held off during the discharge
	// maneuver before it may be re-energized.
	SettleDelay time.Duration
	// OnToken and OffToken are matched as substrings against inbound
	// state payloads. A payload containing neither changes nothing.
	OnToken  string
	OffToken string
}

// StatsData contains information for a periodic stats report.
type StatsData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counters
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}
