//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(pinButton, pinRelay int, polarity Polarity, debounce time.Duration) (*RealPins, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetRelay is not implemented on non-Linux platforms.
func (p *RealPins) SetRelay(on bool) error {
	return errors.New("gpio: not supported")
}

// ButtonEdge is not implemented on non-Linux platforms.
func (p *RealPins) ButtonEdge() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPins) Close() error {
	return nil
}

// RealIndicator is not available on non-Linux platforms.
type RealIndicator struct{}

// NewRealIndicator returns an error on non-Linux platforms.
func NewRealIndicator(pin int) (*RealIndicator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (i *RealIndicator) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (i *RealIndicator) Close() error {
	return nil
}
