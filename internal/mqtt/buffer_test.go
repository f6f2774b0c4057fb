package mqtt

import (
	"fmt"
	"testing"
)

func TestRingBufferPushDrain(t *testing.T) {
	r := newRingBuffer(4)

	if r.len() != 0 {
		t.Errorf("expected empty buffer, got len %d", r.len())
	}
	if msgs := r.drainAll(); msgs != nil {
		t.Errorf("expected nil drain on empty buffer, got %v", msgs)
	}

	r.push(bufferedMsg{topic: "a", payload: []byte("1")})
	r.push(bufferedMsg{topic: "b", payload: []byte("2")})
	if r.len() != 2 {
		t.Errorf("expected len 2, got %d", r.len())
	}

	msgs := r.drainAll()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].topic != "a" || msgs[1].topic != "b" {
		t.Errorf("expected FIFO order a,b got %s,%s", msgs[0].topic, msgs[1].topic)
	}
	if r.len() != 0 {
		t.Errorf("expected empty after drain, got %d", r.len())
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)

	for i := 0; i < 5; i++ {
		r.push(bufferedMsg{topic: fmt.Sprintf("t%d", i)})
	}

	if r.len() != 3 {
		t.Fatalf("expected len capped at 3, got %d", r.len())
	}
	msgs := r.drainAll()
	want := []string{"t2", "t3", "t4"}
	for i, w := range want {
		if msgs[i].topic != w {
			t.Errorf("msg %d: expected %s, got %s", i, w, msgs[i].topic)
		}
	}
}

func TestRingBufferReusableAfterDrain(t *testing.T) {
	r := newRingBuffer(2)
	r.push(bufferedMsg{topic: "x"})
	r.push(bufferedMsg{topic: "y"})
	r.push(bufferedMsg{topic: "z"}) // overflow
	r.drainAll()

	r.push(bufferedMsg{topic: "new"})
	msgs := r.drainAll()
	if len(msgs) != 1 || msgs[0].topic != "new" {
		t.Errorf("expected single fresh message, got %v", msgs)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	r := newRingBuffer(2)
	r.push(bufferedMsg{topic: "t", payload: []byte("p"), qos: 1, retained: true})

	msgs := r.drainAll()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.topic != "t" || string(m.payload) != "p" || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
