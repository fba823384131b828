package ysf

import (
	"testing"

	"github.com/dgidgateway/dgidgateway/internal/modemask"
)

func newTestPeer(t *testing.T, dgid uint8) *Peer {
	t.Helper()
	p, err := New(Params{
		DGID: dgid, Desc: "Test", Modes: modemask.All,
		Callsign: "W1AW", Address: "127.0.0.1", Port: 42020,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestCallsignPadding(t *testing.T) {
	p := newTestPeer(t, 5)
	if len(p.callsign) != callsignLength {
		t.Fatalf("callsign length = %d, want %d", len(p.callsign), callsignLength)
	}
	if p.callsign != "W1AW      " {
		t.Errorf("callsign = %q, want padded W1AW", p.callsign)
	}
}

func TestPollAndUnlinkMessageShape(t *testing.T) {
	p := newTestPeer(t, 5)
	if len(p.pollMsg) != pollMessageLength || string(p.pollMsg[:4]) != "YSFP" {
		t.Errorf("pollMsg malformed: %q", p.pollMsg)
	}
	if len(p.unlinkMsg) != unlinkMessageLength || string(p.unlinkMsg[:4]) != "YSFU" {
		t.Errorf("unlinkMsg malformed: %q", p.unlinkMsg)
	}
}

func TestReadIgnoresWrongDGID(t *testing.T) {
	p := newTestPeer(t, 5)
	p.pending = append(p.pending, make([]byte, frameLength))

	buf := make([]byte, frameLength)
	if n := p.Read(6, buf); n != 0 {
		t.Errorf("Read() for the wrong dgid returned %d, want 0", n)
	}
	if n := p.Read(5, buf); n != frameLength {
		t.Errorf("Read() for the right dgid returned %d, want %d", n, frameLength)
	}
}

func TestWriteRejectsWrongLength(t *testing.T) {
	p := newTestPeer(t, 5)
	// Write is a fire-and-forget no-op on a closed socket for the wrong
	// length; this just exercises the guard without touching the network.
	p.Write(5, make([]byte, frameLength-1))
	p.Write(6, make([]byte, frameLength))
}

func TestGetDesc(t *testing.T) {
	p := newTestPeer(t, 5)
	if got := p.GetDesc(5); got != "Test" {
		t.Errorf("GetDesc(5) = %q, want Test", got)
	}
	if got := p.GetDesc(6); got != "" {
		t.Errorf("GetDesc(6) = %q, want empty", got)
	}
}
