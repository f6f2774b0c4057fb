package temperature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReporterBaselineAndDelta(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sampler := &FakeSampler{Values: []int{40, 41, 43, 43, 40}}
	r := NewReporter(sampler, time.Minute, 2, start)

	// First sample establishes the baseline, nothing published.
	reading, err := r.Check(start.Add(time.Minute))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if reading != nil {
		t.Fatalf("expected baseline sample to publish nothing, got %+v", reading)
	}

	// +1 degree: below the delta threshold.
	reading, _ = r.Check(start.Add(2 * time.Minute))
	if reading != nil {
		t.Fatalf("expected sub-delta change suppressed, got %+v", reading)
	}

	// +3 from baseline: published with delta relative to last published.
	reading, _ = r.Check(start.Add(3 * time.Minute))
	if reading == nil {
		t.Fatal("expected a reading")
	}
	if reading.Temperature != 43 || reading.Delta != 3 {
		t.Errorf("expected 43/+3, got %d/%+d", reading.Temperature, reading.Delta)
	}

	// Unchanged: suppressed.
	reading, _ = r.Check(start.Add(4 * time.Minute))
	if reading != nil {
		t.Fatalf("expected no reading for stable value, got %+v", reading)
	}

	// Negative swing past the delta.
	reading, _ = r.Check(start.Add(5 * time.Minute))
	if reading == nil {
		t.Fatal("expected a reading for the drop")
	}
	if reading.Temperature != 40 || reading.Delta != -3 {
		t.Errorf("expected 40/-3, got %d/%+d", reading.Temperature, reading.Delta)
	}
}

func TestReporterInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sampler := &FakeSampler{Values: []int{40}}
	r := NewReporter(sampler, time.Minute, 2, start)

	if reading, _ := r.Check(start.Add(30 * time.Second)); reading != nil {
		t.Error("expected no sample before interval")
	}

	disabled := NewReporter(sampler, 0, 2, start)
	if reading, _ := disabled.Check(start.Add(time.Hour)); reading != nil {
		t.Error("expected disabled reporter to publish nothing")
	}
}

func TestReporterSampleError(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sampler := &FakeSampler{SampleError: errors.New("adc busy")}
	r := NewReporter(sampler, time.Minute, 2, start)

	_, err := r.Check(start.Add(time.Minute))
	if err == nil {
		t.Fatal("expected sampler error surfaced")
	}

	// Error did not poison the baseline: a good sample still initializes.
	sampler.SampleError = nil
	sampler.Values = []int{40}
	if reading, err := r.Check(start.Add(2 * time.Minute)); err != nil || reading != nil {
		t.Errorf("expected clean baseline after error, got %+v, %v", reading, err)
	}
}

func TestFormatPayload(t *testing.T) {
	got := string(FormatPayload(Reading{Temperature: 43, Delta: -2}))
	want := `{"temperature":43,"delta":-2}`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSysfsSampler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "temp")

	tests := []struct {
		raw  string
		want int
	}{
		{"41200\n", 41},
		{"41800\n", 42},
		{"-3400", -3},
	}
	for _, tt := range tests {
		if err := os.WriteFile(path, []byte(tt.raw), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := SysfsSampler{Path: path}.Sample()
		if err != nil {
			t.Fatalf("Sample(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Sample(%q): expected %d, got %d", tt.raw, tt.want, got)
		}
	}

	if err := os.WriteFile(path, []byte("not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (SysfsSampler{Path: path}).Sample(); err == nil {
		t.Error("expected parse error")
	}

	if _, err := (SysfsSampler{Path: filepath.Join(dir, "missing")}).Sample(); err == nil {
		t.Error("expected read error")
	}
}
