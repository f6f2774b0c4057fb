package gpio

// FakePins is a test double with a scripted button and a recorded relay.
type FakePins struct {
	// Relay is the current relay output.
	Relay bool

	// RelayWrites records every SetRelay call in order.
	RelayWrites []bool

	// edges holds queued button edges, consumed one per ButtonEdge call.
	edges int

	// Closed tracks if Close was called.
	Closed bool

	// SetRelayError, if set, will be returned by SetRelay.
	SetRelayError error

	// ButtonError, if set, will be returned by ButtonEdge.
	ButtonError error
}

// NewFakePins creates a FakePins with no pending edges.
func NewFakePins() *FakePins {
	return &FakePins{}
}

// SetRelay records the write and the new state.
func (f *FakePins) SetRelay(on bool) error {
	if f.SetRelayError != nil {
		return f.SetRelayError
	}
	f.Relay = on
	f.RelayWrites = append(f.RelayWrites, on)
	return nil
}

// Press queues one button edge.
func (f *FakePins) Press() {
	f.edges++
}

// ButtonEdge consumes one queued edge, if any.
func (f *FakePins) ButtonEdge() (bool, error) {
	if f.ButtonError != nil {
		return false, f.ButtonError
	}
	if f.edges == 0 {
		return false, nil
	}
	f.edges--
	return true, nil
}

// Close marks the pins as closed.
func (f *FakePins) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *FakePins) Reset() {
	f.Relay = false
	f.RelayWrites = nil
	f.edges = 0
	f.Closed = false
	f.SetRelayError = nil
	f.ButtonError = nil
}

// FakeIndicator records shadow LED writes.
type FakeIndicator struct {
	// On is the current LED state.
	On bool

	// Writes records every Set call in order.
	Writes []bool
}

// Set records the write.
func (f *FakeIndicator) Set(on bool) error {
	f.On = on
	f.Writes = append(f.Writes, on)
	return nil
}
