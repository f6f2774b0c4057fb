package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const offlineBufferSize = 64

// RealClient talks to an actual MQTT broker via paho.
type RealClient struct {
	client paho.Client
	cfg    Config

	inbound chan []byte

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealClient creates a client and starts connecting to the broker.
// The broker being unreachable is not an error: the bridge must keep
// working locally, and paho retries in the background. onDisconnect is
// invoked (from paho's goroutine) every time an established connection is
// lost; it may be nil.
func NewRealClient(cfg Config, onDisconnect func()) (*RealClient, error) {
	c := &RealClient{
		cfg:     cfg,
		inbound: make(chan []byte, 16),
		buffer:  newRingBuffer(offlineBufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.AvailabilityTopic != "" {
		opts.SetWill(cfg.AvailabilityTopic, AvailabilityDown, 1, true)
	}

	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Printf("mqtt: connected to %s", cfg.Broker)

		if cfg.AvailabilityTopic != "" {
			client.Publish(cfg.AvailabilityTopic, 1, true, AvailabilityUp)
		}

		token := client.Subscribe(cfg.StateTopic, 0, c.onState)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: subscribe %s: timeout", cfg.StateTopic)
		} else if err := token.Error(); err != nil {
			log.Printf("mqtt: subscribe %s: %v", cfg.StateTopic, err)
		} else {
			log.Printf("mqtt: subscribed to %s", cfg.StateTopic)
		}

		c.drainBuffer(client)
	})

	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		log.Printf("mqtt: connection lost: %v", err)
		if onDisconnect != nil {
			onDisconnect()
		}
	})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// Keep going: commands will time out and the engine falls back
		// to bypass mode until the broker shows up.
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", cfg.Broker)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: connect: %v (retrying in background)", err)
	}

	return c, nil
}

// onState forwards an inbound state payload to the tick loop. If the loop
// is behind, the newest message wins and the oldest queued one is dropped.
func (c *RealClient) onState(client paho.Client, msg paho.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	for {
		select {
		case c.inbound <- payload:
			return
		default:
			select {
			case <-c.inbound:
			default:
			}
		}
	}
}

// PublishCommand sends the command token. QoS 0, not retained: last intent
// wins, and a failed send surfaces as a command timeout in the engine.
func (c *RealClient) PublishCommand(on bool) error {
	token := c.client.Publish(c.cfg.CommandTopic, 0, false, c.cfg.CommandPayload(on))
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish command timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}

// PublishEvent sends a retained lifecycle snapshot, buffering it while the
// link is down.
func (c *RealClient) PublishEvent(topic string, payload []byte) error {
	return c.publishOrBuffer(topic, payload, 1, true)
}

// PublishTelemetry sends a telemetry message, buffering it while the link
// is down.
func (c *RealClient) PublishTelemetry(topic string, payload []byte) error {
	return c.publishOrBuffer(topic, payload, 0, false)
}

func (c *RealClient) publishOrBuffer(topic string, payload []byte, qos byte, retained bool) error {
	if !c.client.IsConnected() {
		c.mu.Lock()
		c.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		c.mu.Unlock()
		return nil
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (c *RealClient) drainBuffer(client paho.Client) {
	c.mu.Lock()
	msgs := c.buffer.drainAll()
	c.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: replaying %d buffered messages", len(msgs))
	for _, m := range msgs {
		client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// Messages delivers inbound state payloads.
func (c *RealClient) Messages() <-chan []byte {
	return c.inbound
}

// IsConnected reports whether the broker link is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker. The last-will is not sent on a clean
// disconnect, so the down availability message is published explicitly.
func (c *RealClient) Close() error {
	if c.cfg.AvailabilityTopic != "" && c.client.IsConnected() {
		token := c.client.Publish(c.cfg.AvailabilityTopic, 1, true, AvailabilityDown)
		token.WaitTimeout(2 * time.Second)
	}
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
