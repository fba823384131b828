package repeater

import (
	"testing"
	"time"
)

func TestReadWriteLoopback(t *testing.T) {
	a, err := New("127.0.0.1", 0, "127.0.0.1", 0, nil)
	if err != nil {
		t.Fatalf("New(a): %v", err)
	}
	if !a.Open() {
		t.Fatalf("a.Open() failed")
	}
	defer a.Close()

	b, err := New("127.0.0.1", 0, "127.0.0.1", a.socket.LocalPort(), nil)
	if err != nil {
		t.Fatalf("New(b): %v", err)
	}
	if !b.Open() {
		t.Fatalf("b.Open() failed")
	}
	defer b.Close()

	// Re-point a's destination at b now that b's ephemeral port is known.
	a.dest.Port = b.socket.LocalPort()

	payload := []byte("YSFD-test-frame")
	a.Write(payload)

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got = b.Read(); got != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if string(got) != string(payload) {
		t.Fatalf("Read() = %q, want %q", got, payload)
	}
}

func TestReadReturnsNilWhenIdle(t *testing.T) {
	l, err := New("127.0.0.1", 0, "127.0.0.1", 1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Open() {
		t.Fatalf("Open() failed")
	}
	defer l.Close()

	if got := l.Read(); got != nil {
		t.Errorf("Read() = %v, want nil on an idle socket", got)
	}
}
