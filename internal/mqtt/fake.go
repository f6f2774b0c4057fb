package mqtt

// FakeClient records published messages and lets tests inject inbound
// state payloads.
type FakeClient struct {
	// Config is used for command token mapping.
	Config Config

	// Commands contains every command state passed to PublishCommand.
	Commands []bool

	// Events maps topics to published lifecycle payloads, in order.
	Events []PublishedMessage

	// Telemetry contains published telemetry messages, in order.
	Telemetry []PublishedMessage

	// PublishError, if set, will be returned by all publish methods.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	inbound chan []byte
}

// PublishedMessage is a recorded (topic, payload) pair.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient(cfg Config) *FakeClient {
	return &FakeClient{
		Config:    cfg,
		Connected: true,
		inbound:   make(chan []byte, 16),
	}
}

// PublishCommand records the command.
func (f *FakeClient) PublishCommand(on bool) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Commands = append(f.Commands, on)
	return nil
}

// PublishEvent records the lifecycle message.
func (f *FakeClient) PublishEvent(topic string, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

// PublishTelemetry records the telemetry message.
func (f *FakeClient) PublishTelemetry(topic string, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Telemetry = append(f.Telemetry, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

// Inject queues an inbound state payload for the tick loop to drain.
func (f *FakeClient) Inject(payload string) {
	f.inbound <- []byte(payload)
}

// Messages delivers injected payloads.
func (f *FakeClient) Messages() <-chan []byte {
	return f.inbound
}

// IsConnected reports the scripted connection state.
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded messages.
func (f *FakeClient) Reset() {
	f.Commands = nil
	f.Events = nil
	f.Telemetry = nil
	f.PublishError = nil
	f.Closed = false
}
