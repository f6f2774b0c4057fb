// Command lamp-bridge couples a wall button and relay to a remotely
// commanded lamp over MQTT, with local bypass control when the remote
// path stops answering.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/lamp-bridge/internal/config"
	"github.com/sweeney/lamp-bridge/internal/gpio"
	"github.com/sweeney/lamp-bridge/internal/logic"
	"github.com/sweeney/lamp-bridge/internal/mqtt"
	"github.com/sweeney/lamp-bridge/internal/status"
	"github.com/sweeney/lamp-bridge/internal/temperature"
	"github.com/sweeney/lamp-bridge/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	poll := flag.Duration("poll", 0, "Tick interval (overrides config)")
	timeout := flag.Duration("timeout", 0, "Command confirmation timeout (overrides config)")
	settle := flag.Duration("settle", 0, "Discharge settle delay (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *poll > 0 {
		cfg.Timing.PollMs = int(poll.Milliseconds())
	}
	if *timeout > 0 {
		cfg.Timing.CommandTimeoutMs = int(timeout.Milliseconds())
	}
	if *settle > 0 {
		cfg.Timing.SettleMs = int(settle.Milliseconds())
	}
	if *httpAddr == "off" {
		cfg.HTTPAddr = ""
	} else if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config) error {
	pins, err := gpio.NewRealPins(
		cfg.Hardware.ButtonPin,
		cfg.Hardware.RelayPin,
		gpio.Polarity(cfg.Hardware.ButtonPolarity),
		cfg.Debounce(),
	)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer pins.Close()

	var indicator gpio.Indicator = gpio.NoopIndicator{}
	if cfg.Features.EnableShadowIndicator {
		led, err := gpio.NewRealIndicator(cfg.Hardware.LEDPin)
		if err != nil {
			return fmt.Errorf("init shadow led: %w", err)
		}
		defer led.Close()
		indicator = led
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:           int64(cfg.Timing.PollMs),
		CommandTimeoutMs: int64(cfg.Timing.CommandTimeoutMs),
		SettleMs:         int64(cfg.Timing.SettleMs),
		Broker:           cfg.MQTT.Broker,
		CommandTopic:     cfg.MQTT.CommandTopic,
		StateTopic:       cfg.MQTT.StateTopic,
		HTTPPort:         cfg.HTTPAddr,
	})

	client, err := mqtt.NewRealClient(mqtt.Config{
		Broker:            cfg.MQTT.Broker,
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		CommandTopic:      cfg.MQTT.CommandTopic,
		StateTopic:        cfg.MQTT.StateTopic,
		AvailabilityTopic: cfg.MQTT.AvailabilityTopic,
		OnPayload:         cfg.MQTT.OnPayload,
		OffPayload:        cfg.MQTT.OffPayload,
	}, tracker.AddDisconnect)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	if cfg.Features.EnableDiagnostics {
		payload := status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", "")
		if err := client.PublishEvent(cfg.MQTT.DiagnosticsTopic, payload); err != nil {
			log.Printf("startup event publish error: %v", err)
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	tempInterval := time.Duration(0)
	if cfg.Features.EnableTemperature {
		tempInterval = cfg.TemperatureInterval()
	}
	reporter := temperature.NewReporter(
		temperature.SysfsSampler{Path: temperature.DefaultSysfsPath},
		tempInterval,
		cfg.Timing.TemperatureDeltaC,
		time.Now(),
	)

	log.Printf("started: broker=%s poll=%v timeout=%v settle=%v polarity=%s",
		cfg.MQTT.Broker, cfg.Poll(), cfg.CommandTimeout(), cfg.Settle(), cfg.Hardware.ButtonPolarity)

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(pins, client, indicator, tracker, reporter, cfg, time.Now, ticker.C, sigCh)
}

func runLoop(pins gpio.Pins, client mqtt.Client, indicator gpio.Indicator, tracker *status.Tracker, reporter *temperature.Reporter, cfg *config.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	engine := logic.NewEngine(logic.Config{
		CommandTimeout: cfg.CommandTimeout(),
		SettleDelay:    cfg.Settle(),
		OnToken:        cfg.MQTT.StateOnToken,
		OffToken:       cfg.MQTT.StateOffToken,
	}, now())

	ledOn := false
	inBypass := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if cfg.Features.EnableDiagnostics {
				updateTracker(tracker, engine, client)
				payload := status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
				if err := client.PublishEvent(cfg.MQTT.DiagnosticsTopic, payload); err != nil {
					log.Printf("shutdown event publish error: %v", err)
				}
			}
			return nil

		case <-tick:
			t := now()

			// Pump inbound state messages first, then the timeout check,
			// then the button. Everything runs on this one goroutine.
		drain:
			for {
				select {
				case msg := <-client.Messages():
					log.Printf("state message: %s", msg)
					applyEffects(engine.HandleMessage(msg, t), pins, client)
				default:
					break drain
				}
			}

			applyEffects(engine.Tick(t), pins, client)

			edge, err := pins.ButtonEdge()
			if err != nil {
				log.Printf("button read error: %v", err)
			} else if edge {
				effects := engine.HandleButton(t)
				bulb, _ := engine.States()
				log.Printf("button pressed, bulb now %s", bulb)
				applyEffects(effects, pins, client)
			}

			if engine.InBypass() != inBypass {
				inBypass = engine.InBypass()
				if inBypass {
					log.Printf("command timeout, running in bypass mode")
				} else {
					log.Printf("remote path recovered, desired state re-sent")
				}
			}

			if engine.BulbOn() != ledOn {
				ledOn = engine.BulbOn()
				if err := indicator.Set(ledOn); err != nil {
					log.Printf("shadow led error: %v", err)
				}
			}

			if data := engine.CheckStats(t, cfg.StatsInterval()); data != nil {
				updateTracker(tracker, engine, client)
				snap := tracker.Snapshot()
				log.Printf("stats: presses=%d timeouts=%d resyncs=%d disconnects=%d uptime=%v",
					data.Counts.ButtonPresses, data.Counts.CommandTimeouts,
					data.Counts.Resyncs, snap.Disconnects, data.Uptime)
				if cfg.Features.EnableDiagnostics {
					payload := status.FormatStatusEvent(snap, "STATS", "")
					if err := client.PublishEvent(cfg.MQTT.DiagnosticsTopic, payload); err != nil {
						log.Printf("stats publish error: %v", err)
					}
				}
			}

			if reading, err := reporter.Check(t); err != nil {
				log.Printf("temperature read error: %v", err)
			} else if reading != nil {
				payload := temperature.FormatPayload(*reading)
				log.Printf("temperature %d (%+d)", reading.Temperature, reading.Delta)
				if err := client.PublishTelemetry(cfg.MQTT.TemperatureTopic, payload); err != nil {
					log.Printf("temperature publish error: %v", err)
				}
			}

			updateTracker(tracker, engine, client)
		}
	}
}

// applyEffects performs the engine's requested actions in order. Failures
// are logged and absorbed: a lost command publish surfaces later as a
// command timeout, which the engine already handles.
func applyEffects(effects []logic.Effect, pins gpio.Pins, client mqtt.Client) {
	for _, e := range effects {
		switch e.Kind {
		case logic.EffectSetRelay:
			log.Printf("relay -> %s", onOff(e.On))
			if err := pins.SetRelay(e.On); err != nil {
				log.Printf("relay write error: %v", err)
			}
		case logic.EffectPublishCommand:
			log.Printf("sending %s command", onOff(e.On))
			if err := client.PublishCommand(e.On); err != nil {
				log.Printf("command publish error: %v", err)
			}
		}
	}
}

func updateTracker(tracker *status.Tracker, engine *logic.Engine, client mqtt.Client) {
	bulb, relay := engine.States()
	tracker.Update(bulb, relay, engine.InBypass(), engine.Pending(), engine.CountersSnapshot())
	tracker.SetMQTTConnected(client.IsConnected())
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
