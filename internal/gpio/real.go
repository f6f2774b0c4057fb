//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives actual hardware using the Linux GPIO character device.
type RealPins struct {
	chip   *gpiocdev.Chip
	relay  *gpiocdev.Line
	button *gpiocdev.Line
	edges  chan struct{}
}

// NewRealPins requests the relay output and the button input. The button
// line uses kernel edge detection with the given debounce period, filtered
// to the configured polarity. Edge events are queued and consumed one per
// ButtonEdge call.
func NewRealPins(pinButton, pinRelay int, polarity Polarity, debounce time.Duration) (*RealPins, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Relay starts de-energized: power off at boot mirrors the initial
	// desired state.
	relay, err := chip.RequestLine(pinRelay, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pinRelay, err)
	}

	p := &RealPins{
		chip:  chip,
		relay: relay,
		// Small queue so a press during a busy tick is not lost. The
		// handler drops further events rather than blocking the kernel
		// event goroutine.
		edges: make(chan struct{}, 16),
	}

	var edgeOpt gpiocdev.LineReqOption
	switch polarity {
	case PolarityLowToHigh:
		edgeOpt = gpiocdev.WithRisingEdge
	case PolarityHighToLow:
		edgeOpt = gpiocdev.WithFallingEdge
	case PolarityBoth:
		edgeOpt = gpiocdev.WithBothEdges
	default:
		relay.Close()
		chip.Close()
		return nil, fmt.Errorf("unknown button polarity %q", polarity)
	}

	button, err := chip.RequestLine(pinButton,
		gpiocdev.WithPullUp,
		gpiocdev.WithDebounce(debounce),
		edgeOpt,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			select {
			case p.edges <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		relay.Close()
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pinButton, err)
	}
	p.button = button

	return p, nil
}

// SetRelay drives the relay output.
func (p *RealPins) SetRelay(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := p.relay.SetValue(v); err != nil {
		return fmt.Errorf("set relay: %w", err)
	}
	return nil
}

// ButtonEdge consumes one queued edge event, if any.
func (p *RealPins) ButtonEdge() (bool, error) {
	select {
	case <-p.edges:
		return true, nil
	default:
		return false, nil
	}
}

// Close de-energizes the relay and releases GPIO resources.
func (p *RealPins) Close() error {
	var errs []error

	if p.relay != nil {
		// Leave the lamp unpowered rather than latched to whatever state
		// the daemon died in.
		if err := p.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear relay: %w", err))
		}
		if err := p.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if p.button != nil {
		if err := p.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealIndicator drives the shadow LED output.
type RealIndicator struct {
	line *gpiocdev.Line
}

// NewRealIndicator requests the LED output line, initially off.
func NewRealIndicator(pin int) (*RealIndicator, error) {
	line, err := gpiocdev.RequestLine("gpiochip0", pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request led pin %d: %w", pin, err)
	}
	return &RealIndicator{line: line}, nil
}

// Set drives the LED.
func (i *RealIndicator) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := i.line.SetValue(v); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// Close releases the LED line.
func (i *RealIndicator) Close() error {
	return i.line.Close()
}
