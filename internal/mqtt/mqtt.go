// Package mqtt provides the broker client for the lamp bridge with
// abstraction for testing.
package mqtt

// Config contains broker settings and topic names. Topic names are
// configuration, never hardcoded.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// CommandTopic receives the on/off command tokens.
	CommandTopic string
	// StateTopic is subscribed for lamp state reports (retained message
	// semantics expected from the broker).
	StateTopic string
	// AvailabilityTopic carries "up" on connect and the "down" last-will.
	// Empty disables liveness reporting.
	AvailabilityTopic string

	// OnPayload and OffPayload are the command tokens.
	OnPayload  string
	OffPayload string
}

const (
	// AvailabilityUp is published retained on every (re)connect.
	AvailabilityUp = "up"
	// AvailabilityDown is the broker-delivered last-will payload.
	AvailabilityDown = "down"
)

// Client is the bridge's messaging surface.
type Client interface {
	// PublishCommand sends the on/off command token. Commands are never
	// buffered while disconnected: a stale command replayed later would
	// override newer intent.
	PublishCommand(on bool) error

	// PublishEvent sends a retained lifecycle snapshot (startup,
	// shutdown, stats) to the given topic. Buffered while disconnected.
	PublishEvent(topic string, payload []byte) error

	// PublishTelemetry sends a non-retained telemetry message to the
	// given topic. Buffered while disconnected.
	PublishTelemetry(topic string, payload []byte) error

	// Messages delivers inbound state-topic payloads. The channel is
	// buffered; the receiver drains it once per tick.
	Messages() <-chan []byte

	// IsConnected reports whether the broker link is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// CommandPayload maps a desired state to its command token.
func (c Config) CommandPayload(on bool) []byte {
	if on {
		return []byte(c.OnPayload)
	}
	return []byte(c.OffPayload)
}
