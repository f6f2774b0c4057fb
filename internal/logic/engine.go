package logic

import (
	"strings"
	"time"
)

// Engine reconciles the desired lamp state with the physical relay and the
// remote lamp across an unreliable messaging path.
//
// In normal mode the relay is only ever switched on (the lamp stays powered
// and light is switched by remote radio commands); in bypass mode the relay
// directly is the light switch. Bypass mode is entered when a command goes
// unconfirmed past the command timeout, and left when any inbound state
// message shows the remote path is alive again.
type Engine struct {
	cfg Config

	bulbOn  bool
	relayOn bool
	bypass  bool

	// Pending command timer: explicit optional, never a zero-timestamp
	// sentinel. At most one outstanding command at a time; a new send
	// fully replaces the previous timer.
	pendingSet bool
	pendingAt  time.Time

	// Discharge maneuver: relay held off until dischargeUntil so the
	// bulb's power-on detection sees a clean off-to-on edge.
	discharging    bool
	dischargeUntil time.Time

	startTime time.Time
	lastStats time.Time
	counters  Counters
}

// NewEngine creates an engine with everything off, mirroring physical
// power-off at boot. The startTime is used for uptime in stats reports.
func NewEngine(cfg Config, startTime time.Time) *Engine {
	return &Engine{
		cfg:       cfg,
		startTime: startTime,
		lastStats: startTime,
	}
}

// HandleButton processes one debounced button edge: toggle the desired
// state and attempt the remote path, regardless of bypass mode. A user
// action always tries the normal path first.
func (e *Engine) HandleButton(now time.Time) []Effect {
	e.counters.ButtonPresses++
	e.bulbOn = !e.bulbOn

	var effects []Effect
	if e.bulbOn {
		// Power the bulb now so it can receive the radio command.
		effects = e.setRelay(true, effects)
	}
	return e.sendCommand(e.bulbOn, now, effects)
}

// HandleMessage processes an inbound state-topic payload.
//
// In bypass mode the payload content is ignored entirely: it may be stale
// relative to what happened locally during the outage. The engine instead
// re-announces its own desired state and resumes normal operation.
func (e *Engine) HandleMessage(payload []byte, now time.Time) []Effect {
	if e.bypass {
		e.counters.Resyncs++
		e.bypass = false
		e.discharging = false
		var effects []Effect
		if e.bulbOn {
			// A timeout may have cut relay power for the discharge
			// maneuver. The re-sent command needs the bulb powered to
			// land, so restore the relay before announcing.
			effects = e.setRelay(true, effects)
		}
		return e.sendCommand(e.bulbOn, now, effects)
	}

	msg := string(payload)
	if strings.Contains(msg, e.cfg.OnToken) {
		e.bulbOn = true
		e.pendingSet = false
		return e.setRelay(true, nil)
	}
	if strings.Contains(msg, e.cfg.OffToken) {
		e.bulbOn = false
		e.pendingSet = false
		// Relay stays on: in normal mode the lamp keeps power and the
		// remote radio command switches the light.
	}
	return nil
}

// Tick runs the timeout check and, in bypass mode, mirrors the relay to
// the desired state. Call once per scheduler tick after pumping inbound
// messages.
func (e *Engine) Tick(now time.Time) []Effect {
	var effects []Effect

	if e.pendingSet && now.Sub(e.pendingAt) > e.cfg.CommandTimeout {
		e.counters.CommandTimeouts++
		e.pendingSet = false
		e.bypass = true
		if e.bulbOn && e.relayOn {
			// The relay is energized but the bulb may be sitting dark
			// after a prior OFF radio frame. Pulse power off and let
			// residual charge drain before re-energizing, otherwise the
			// bulb never registers a fresh power-on edge.
			effects = e.setRelay(false, effects)
			e.discharging = true
			e.dischargeUntil = now.Add(e.cfg.SettleDelay)
		}
	}

	if e.discharging {
		if now.Before(e.dischargeUntil) {
			return effects
		}
		e.discharging = false
	}

	if e.bypass {
		effects = e.setRelay(e.bulbOn, effects)
	}
	return effects
}

// setRelay records the new relay state and emits an effect only on change.
func (e *Engine) setRelay(on bool, effects []Effect) []Effect {
	if e.relayOn == on {
		return effects
	}
	e.relayOn = on
	return append(effects, Effect{Kind: EffectSetRelay, On: on})
}

// sendCommand emits a command publish and starts the pending timer,
// replacing any previous one. Last intent wins; there is no queueing.
func (e *Engine) sendCommand(on bool, now time.Time, effects []Effect) []Effect {
	e.pendingSet = true
	e.pendingAt = now
	return append(effects, Effect{Kind: EffectPublishCommand, On: on})
}

// BulbOn returns the desired lamp state.
func (e *Engine) BulbOn() bool { return e.bulbOn }

// RelayOn returns the engine's view of the relay output.
func (e *Engine) RelayOn() bool { return e.relayOn }

// InBypass reports whether the last command timed out without confirmation.
func (e *Engine) InBypass() bool { return e.bypass }

// Pending reports whether a command is outstanding.
func (e *Engine) Pending() bool { return e.pendingSet }

// Discharging reports whether the relay is being held off to settle.
func (e *Engine) Discharging() bool { return e.discharging }

// States returns the desired lamp and relay states as display values.
func (e *Engine) States() (bulb State, relay State) {
	return boolToState(e.bulbOn), boolToState(e.relayOn)
}

// CountersSnapshot returns a copy of the diagnostic counters.
func (e *Engine) CountersSnapshot() Counters {
	return e.counters
}

// CheckStats returns stats data if the interval has elapsed since the last
// report (or startup). Returns nil if the interval has not elapsed or if
// interval is <= 0 (disabled).
func (e *Engine) CheckStats(now time.Time, interval time.Duration) *StatsData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(e.lastStats) < interval {
		return nil
	}
	e.lastStats = now
	return &StatsData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.counters,
	}
}
