package gpio

import (
	"errors"
	"testing"
)

func TestFakePinsRelay(t *testing.T) {
	f := NewFakePins()

	if err := f.SetRelay(true); err != nil {
		t.Fatalf("SetRelay: %v", err)
	}
	if err := f.SetRelay(false); err != nil {
		t.Fatalf("SetRelay: %v", err)
	}

	if f.Relay {
		t.Error("expected relay off after last write")
	}
	want := []bool{true, false}
	if len(f.RelayWrites) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(f.RelayWrites))
	}
	for i, w := range want {
		if f.RelayWrites[i] != w {
			t.Errorf("write %d: expected %v, got %v", i, w, f.RelayWrites[i])
		}
	}
}

func TestFakePinsButtonEdges(t *testing.T) {
	f := NewFakePins()

	edge, err := f.ButtonEdge()
	if err != nil {
		t.Fatalf("ButtonEdge: %v", err)
	}
	if edge {
		t.Error("expected no edge before a press")
	}

	f.Press()
	f.Press()

	for i := 0; i < 2; i++ {
		edge, err = f.ButtonEdge()
		if err != nil {
			t.Fatalf("ButtonEdge %d: %v", i, err)
		}
		if !edge {
			t.Errorf("press %d: expected an edge", i)
		}
	}

	// Each press yields exactly one edge.
	edge, err = f.ButtonEdge()
	if err != nil {
		t.Fatalf("ButtonEdge: %v", err)
	}
	if edge {
		t.Error("expected edges exhausted")
	}
}

func TestFakePinsErrors(t *testing.T) {
	f := NewFakePins()
	wantErr := errors.New("boom")

	f.SetRelayError = wantErr
	if err := f.SetRelay(true); err != wantErr {
		t.Errorf("expected SetRelay error, got %v", err)
	}
	if len(f.RelayWrites) != 0 {
		t.Error("failed write should not be recorded")
	}

	f.ButtonError = wantErr
	if _, err := f.ButtonEdge(); err != wantErr {
		t.Errorf("expected ButtonEdge error, got %v", err)
	}
}

func TestFakePinsReset(t *testing.T) {
	f := NewFakePins()
	f.SetRelay(true)
	f.Press()
	f.Close()

	f.Reset()

	if f.Relay || f.RelayWrites != nil || f.Closed {
		t.Error("Reset should clear recorded state")
	}
	if edge, _ := f.ButtonEdge(); edge {
		t.Error("Reset should clear queued edges")
	}
}

func TestPolarityValid(t *testing.T) {
	for _, p := range []Polarity{PolarityLowToHigh, PolarityHighToLow, PolarityBoth} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Polarity("sideways").Valid() {
		t.Error("unknown polarity should be invalid")
	}
}

func TestNoopIndicator(t *testing.T) {
	var i Indicator = NoopIndicator{}
	if err := i.Set(true); err != nil {
		t.Errorf("NoopIndicator.Set: %v", err)
	}
}

func TestFakeIndicator(t *testing.T) {
	f := &FakeIndicator{}
	f.Set(true)
	f.Set(false)
	if f.On {
		t.Error("expected LED off")
	}
	if len(f.Writes) != 2 || !f.Writes[0] || f.Writes[1] {
		t.Errorf("unexpected writes %v", f.Writes)
	}
}
