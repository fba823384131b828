package fcs

import (
	"encoding/binary"
	"testing"

	"github.com/dgidgateway/dgidgateway/internal/modemask"
)

func newTestPeer(t *testing.T) *Peer {
	t.Helper()
	p, err := New(Params{
		DGID: 7, Desc: "Test Reflector", Modes: modemask.All,
		Callsign: "W1AW", Locator: "fn20xr", Address: "127.0.0.1", Port: 62030,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestStationIDDeterministic(t *testing.T) {
	id1 := stationID("Test Reflector")
	id2 := stationID("Test Reflector")
	if id1 != id2 {
		t.Errorf("stationID is not deterministic: %d != %d", id1, id2)
	}
	if id1 >= 100000 {
		t.Errorf("stationID = %d, want < 100000", id1)
	}
}

func TestPollFrameShape(t *testing.T) {
	p := newTestPeer(t)
	frame := p.pollFrame()

	wantLen := 4 + callsignLength + 4 + 6
	if len(frame) != wantLen {
		t.Fatalf("pollFrame length = %d, want %d", len(frame), wantLen)
	}
	if string(frame[:4]) != "FCSP" {
		t.Errorf("pollFrame tag = %q, want FCSP", frame[:4])
	}
	if string(frame[4:14]) != "W1AW      " {
		t.Errorf("pollFrame callsign = %q, want padded W1AW", frame[4:14])
	}
	gotID := binary.BigEndian.Uint32(frame[14:18])
	if gotID != p.stationID {
		t.Errorf("pollFrame station id = %d, want %d", gotID, p.stationID)
	}
	if string(frame[18:24]) != "FN20XR" {
		t.Errorf("pollFrame locator = %q, want uppercased FN20XR", frame[18:24])
	}
}

func TestUnlinkFrameShape(t *testing.T) {
	p := newTestPeer(t)
	frame := p.unlinkFrame()
	if len(frame) != 4+callsignLength || string(frame[:4]) != "FCSU" {
		t.Errorf("unlinkFrame malformed: %q", frame)
	}
}

func TestReadIgnoresWrongDGID(t *testing.T) {
	p := newTestPeer(t)
	p.pending = append(p.pending, make([]byte, frameLength))

	buf := make([]byte, frameLength)
	if n := p.Read(1, buf); n != 0 {
		t.Errorf("Read() for the wrong dgid returned %d, want 0", n)
	}
	if n := p.Read(7, buf); n != frameLength {
		t.Errorf("Read() for the right dgid returned %d, want %d", n, frameLength)
	}
}
