// Package gpio provides the relay, button, and indicator hardware with
// abstraction for testing. The real implementation uses the Linux GPIO
// character device; the fake implementation allows testing without
// hardware.
package gpio

// Pins is the hardware surface the bridge drives and reads.
type Pins interface {
	// SetRelay drives the relay output. Safe to call with the current
	// value; the engine only requests changes.
	SetRelay(on bool) error

	// ButtonEdge consumes at most one debounced, polarity-filtered
	// button edge. Returns true if an edge was pending. Each physical
	// transition yields exactly one edge.
	ButtonEdge() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Indicator mirrors the desired lamp state on a shadow LED.
type Indicator interface {
	Set(on bool) error
}

// NoopIndicator is the Indicator used when the shadow LED is disabled.
type NoopIndicator struct{}

// Set does nothing.
func (NoopIndicator) Set(bool) error { return nil }

// Polarity selects which button transitions count as a toggle.
type Polarity string

const (
	// PolarityLowToHigh toggles on rising edges (push button to 3V3).
	PolarityLowToHigh Polarity = "low-to-high"
	// PolarityHighToLow toggles on falling edges (push button to GND).
	PolarityHighToLow Polarity = "high-to-low"
	// PolarityBoth toggles on every transition (latching wall switch).
	PolarityBoth Polarity = "both"
)

// Valid reports whether p is a recognized polarity.
func (p Polarity) Valid() bool {
	switch p {
	case PolarityLowToHigh, PolarityHighToLow, PolarityBoth:
		return true
	}
	return false
}

// Default pins (BCM numbering).
const (
	DefaultPinButton = 17
	DefaultPinRelay  = 27
	DefaultPinLED    = 22
)
