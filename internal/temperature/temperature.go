// Package temperature reports board temperature changes over MQTT. The
// first sample only establishes a baseline; later samples are published
// when they drift by at least the configured delta.
package temperature

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSysfsPath is the usual thermal zone on a Raspberry Pi.
const DefaultSysfsPath = "/sys/class/thermal/thermal_zone0/temp"

// Sampler reads the board temperature in whole degrees Celsius.
type Sampler interface {
	Sample() (int, error)
}

// SysfsSampler reads a kernel thermal zone file (millidegrees Celsius).
type SysfsSampler struct {
	Path string
}

// Sample reads and converts the thermal zone value.
func (s SysfsSampler) Sample() (int, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read thermal zone: %w", err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse thermal zone %q: %w", strings.TrimSpace(string(data)), err)
	}
	// Round to nearest degree.
	if milli >= 0 {
		return (milli + 500) / 1000, nil
	}
	return (milli - 500) / 1000, nil
}

// Reading is a temperature change worth publishing.
type Reading struct {
	Timestamp   time.Time
	Temperature int
	Delta       int
}

// Reporter samples at a fixed interval and gates publishing on a minimum
// change from the last published value.
type Reporter struct {
	sampler  Sampler
	interval time.Duration
	delta    int

	lastSample  time.Time
	lastValue   int
	initialized bool
}

// NewReporter creates a Reporter. A zero interval disables sampling.
func NewReporter(sampler Sampler, interval time.Duration, delta int, startTime time.Time) *Reporter {
	return &Reporter{
		sampler:    sampler,
		interval:   interval,
		delta:      delta,
		lastSample: startTime,
	}
}

// Check samples if the interval has elapsed and returns a Reading when the
// temperature moved by at least the delta. Returns (nil, nil) when there is
// nothing to report; sampler failures are returned for logging and do not
// disturb the baseline.
func (r *Reporter) Check(now time.Time) (*Reading, error) {
	if r.interval <= 0 {
		return nil, nil
	}
	if now.Sub(r.lastSample) < r.interval {
		return nil, nil
	}
	r.lastSample = now

	value, err := r.sampler.Sample()
	if err != nil {
		return nil, err
	}

	if !r.initialized {
		r.lastValue = value
		r.initialized = true
		return nil, nil
	}

	delta := value - r.lastValue
	if delta < r.delta && -delta < r.delta {
		return nil, nil
	}
	r.lastValue = value
	return &Reading{Timestamp: now, Temperature: value, Delta: delta}, nil
}

// FormatPayload creates the JSON payload for a temperature reading.
func FormatPayload(reading Reading) []byte {
	return []byte(fmt.Sprintf(`{"temperature":%d,"delta":%d}`, reading.Temperature, reading.Delta))
}
