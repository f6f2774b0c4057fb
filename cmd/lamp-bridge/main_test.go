package main

import (
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/lamp-bridge/internal/config"
	"github.com/sweeney/lamp-bridge/internal/gpio"
	"github.com/sweeney/lamp-bridge/internal/mqtt"
	"github.com/sweeney/lamp-bridge/internal/status"
	"github.com/sweeney/lamp-bridge/internal/temperature"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from
// runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func testCfg() *config.Config {
	cfg := config.Default()
	cfg.Timing.PollMs = 100
	cfg.Timing.StatsIntervalS = 0
	cfg.Features.EnableTemperature = false
	return cfg
}

type loopFixture struct {
	cfg       *config.Config
	pins      *gpio.FakePins
	client    *mqtt.FakeClient
	indicator *gpio.FakeIndicator
	tracker   *status.Tracker
	reporter  *temperature.Reporter
	start     time.Time
}

func newLoopFixture(cfg *config.Config) *loopFixture {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tempInterval := time.Duration(0)
	if cfg.Features.EnableTemperature {
		tempInterval = cfg.TemperatureInterval()
	}
	return &loopFixture{
		cfg:       cfg,
		pins:      gpio.NewFakePins(),
		client:    mqtt.NewFakeClient(mqtt.Config{OnPayload: cfg.MQTT.OnPayload, OffPayload: cfg.MQTT.OffPayload}),
		indicator: &gpio.FakeIndicator{},
		tracker:   status.NewTracker(start, status.Config{Broker: cfg.MQTT.Broker}),
		reporter: temperature.NewReporter(
			&temperature.FakeSampler{Values: []int{40, 45}},
			tempInterval,
			cfg.Timing.TemperatureDeltaC,
			start,
		),
		start: start,
	}
}

// drive runs runLoop for nTicks ticks of the fake clock, then delivers the
// given signal and waits for the loop to return.
func (f *loopFixture) drive(t *testing.T, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(f.start, 100*time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(f.pins, f.client, f.indicator, f.tracker, f.reporter, f.cfg, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop: %v", err)
	}
}

// A button press powers the relay, sends ON, lights the shadow LED.
func TestRunLoopButtonPress(t *testing.T) {
	f := newLoopFixture(testCfg())
	f.pins.Press()

	f.drive(t, 3, syscall.SIGTERM)

	if len(f.client.Commands) != 1 || !f.client.Commands[0] {
		t.Fatalf("expected one ON command, got %v", f.client.Commands)
	}
	if len(f.pins.RelayWrites) != 1 || !f.pins.RelayWrites[0] {
		t.Fatalf("expected one relay ON write, got %v", f.pins.RelayWrites)
	}
	if len(f.indicator.Writes) != 1 || !f.indicator.Writes[0] {
		t.Fatalf("expected shadow LED lit once, got %v", f.indicator.Writes)
	}

	snap := f.tracker.Snapshot()
	if snap.Bulb != "ON" || snap.Relay != "ON" {
		t.Errorf("tracker: expected ON/ON, got %s/%s", snap.Bulb, snap.Relay)
	}
	if !snap.Pending {
		t.Error("tracker: expected command pending")
	}
	if snap.Counts.ButtonPresses != 1 {
		t.Errorf("tracker: expected 1 press, got %d", snap.Counts.ButtonPresses)
	}
}

// A retained state message at boot, no button involved.
func TestRunLoopRetainedState(t *testing.T) {
	f := newLoopFixture(testCfg())
	f.client.Inject("ON")

	f.drive(t, 2, syscall.SIGTERM)

	if len(f.client.Commands) != 0 {
		t.Fatalf("expected no commands, got %v", f.client.Commands)
	}
	if len(f.pins.RelayWrites) != 1 || !f.pins.RelayWrites[0] {
		t.Fatalf("expected relay powered, got %v", f.pins.RelayWrites)
	}
	snap := f.tracker.Snapshot()
	if snap.Bulb != "ON" || snap.Mode() != "NORMAL" {
		t.Errorf("expected ON/NORMAL, got %s/%s", snap.Bulb, snap.Mode())
	}
}

// An unanswered command drives the loop into bypass mode with
// the discharge maneuver (relay off, settle, back on).
func TestRunLoopBypassEntry(t *testing.T) {
	f := newLoopFixture(testCfg())
	f.pins.Press()

	// Press lands at tick 1 (t=+100ms); the 1.5s timeout expires at
	// t=+1.7s (tick 17); the 1s settle completes by t=+2.7s (tick 27).
	f.drive(t, 30, syscall.SIGTERM)

	want := []bool{true, false, true} // press, discharge, bypass mirror
	if len(f.pins.RelayWrites) != len(want) {
		t.Fatalf("expected relay writes %v, got %v", want, f.pins.RelayWrites)
	}
	for i, w := range want {
		if f.pins.RelayWrites[i] != w {
			t.Errorf("relay write %d: expected %v, got %v", i, w, f.pins.RelayWrites[i])
		}
	}

	snap := f.tracker.Snapshot()
	if snap.Mode() != "BYPASS" {
		t.Errorf("expected BYPASS, got %s", snap.Mode())
	}
	if snap.Pending {
		t.Error("expected pending cleared after timeout")
	}
	if snap.Counts.CommandTimeouts != 1 {
		t.Errorf("expected 1 timeout, got %d", snap.Counts.CommandTimeouts)
	}
}

// A stale message during bypass triggers a resync.
func TestRunLoopBypassRecovery(t *testing.T) {
	f := newLoopFixture(testCfg())
	f.pins.Press()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(f.start, 100*time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(f.pins, f.client, f.indicator, f.tracker, f.reporter, f.cfg, clock, tick, sig)
	}()

	// Ride into bypass, then deliver a stale OFF.
	for i := 0; i < 30; i++ {
		tick <- time.Time{}
	}
	f.client.Inject("OFF")
	for i := 0; i < 2; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	if len(f.client.Commands) != 2 || !f.client.Commands[1] {
		t.Fatalf("expected stale payload ignored and ON re-sent, got %v", f.client.Commands)
	}
	snap := f.tracker.Snapshot()
	if snap.Mode() != "NORMAL" {
		t.Errorf("expected NORMAL after recovery, got %s", snap.Mode())
	}
	if snap.Counts.Resyncs != 1 {
		t.Errorf("expected 1 resync, got %d", snap.Counts.Resyncs)
	}
	if snap.Bulb != "ON" {
		t.Errorf("desired state must survive the stale message, got %s", snap.Bulb)
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	cfg := testCfg()
	f := newLoopFixture(cfg)

	f.drive(t, 1, syscall.SIGTERM)

	if len(f.client.Events) != 1 {
		t.Fatalf("expected one lifecycle event, got %d", len(f.client.Events))
	}
	e := f.client.Events[0]
	if e.Topic != cfg.MQTT.DiagnosticsTopic {
		t.Errorf("expected topic %s, got %s", cfg.MQTT.DiagnosticsTopic, e.Topic)
	}
	if !strings.Contains(string(e.Payload), "SHUTDOWN") || !strings.Contains(string(e.Payload), "SIGTERM") {
		t.Errorf("unexpected shutdown payload %s", e.Payload)
	}
}

func TestRunLoopStats(t *testing.T) {
	cfg := testCfg()
	cfg.Timing.StatsIntervalS = 1
	f := newLoopFixture(cfg)
	f.pins.Press()

	f.drive(t, 12, syscall.SIGTERM)

	var statsPayload string
	for _, e := range f.client.Events {
		if strings.Contains(string(e.Payload), `"STATS"`) {
			statsPayload = string(e.Payload)
		}
	}
	if statsPayload == "" {
		t.Fatalf("expected a STATS event, got %v", f.client.Events)
	}
	if !strings.Contains(statsPayload, `"button_presses":1`) {
		t.Errorf("stats payload missing press count: %s", statsPayload)
	}
}

func TestRunLoopTemperature(t *testing.T) {
	cfg := testCfg()
	cfg.Features.EnableTemperature = true
	cfg.Timing.TemperatureS = 1
	f := newLoopFixture(cfg)

	// Baseline at t=+1s (40), delta publish at t=+2s (45).
	f.drive(t, 21, syscall.SIGTERM)

	if len(f.client.Telemetry) != 1 {
		t.Fatalf("expected one temperature publish, got %v", f.client.Telemetry)
	}
	m := f.client.Telemetry[0]
	if m.Topic != cfg.MQTT.TemperatureTopic {
		t.Errorf("expected topic %s, got %s", cfg.MQTT.TemperatureTopic, m.Topic)
	}
	if !strings.Contains(string(m.Payload), `"temperature":45`) {
		t.Errorf("unexpected payload %s", m.Payload)
	}
}

func TestRunLoopButtonErrorTolerated(t *testing.T) {
	f := newLoopFixture(testCfg())
	f.pins.ButtonError = os.ErrClosed

	// Loop must absorb read errors and still shut down cleanly.
	f.drive(t, 3, syscall.SIGTERM)

	if len(f.client.Commands) != 0 {
		t.Errorf("expected no commands, got %v", f.client.Commands)
	}
}
