package imrs

import (
	"net"
	"testing"

	"github.com/dgidgateway/dgidgateway/internal/fich"
)

func TestGetDescUnknownSlot(t *testing.T) {
	b := New(0, nil)
	if got := b.GetDesc(9); got != "" {
		t.Errorf("GetDesc(9) = %q, want empty for an unregistered slot", got)
	}
	b.AddSlot(9, "Cluster", nil)
	if got := b.GetDesc(9); got != "Cluster" {
		t.Errorf("GetDesc(9) = %q, want Cluster", got)
	}
}

func TestLinkUnlinkIgnoreUnknownSlot(t *testing.T) {
	b := New(0, nil)
	// Neither call touches the (nil, unopened) socket for an unregistered
	// slot; this only verifies no panic occurs.
	b.Link(5)
	b.Unlink(5)
}

func TestRestampRewritesOnlyDGID(t *testing.T) {
	frame := make([]byte, 46)
	copy(frame, "YSFD")
	var region [fich.Length]byte
	fich.Encode(fich.Fich{DT: fich.DTVoiceFR, FN: 2, DGID: 10}, &region)
	copy(frame[35:], region[:])

	out := restamp(frame, 20)

	var gotRegion [fich.Length]byte
	copy(gotRegion[:], out[35:35+fich.Length])
	got, ok := fich.Decode(gotRegion)
	if !ok {
		t.Fatalf("restamp produced an undecodable FICH")
	}
	if got.DGID != 20 {
		t.Errorf("DGID = %d, want 20", got.DGID)
	}
	if got.DT != fich.DTVoiceFR || got.FN != 2 {
		t.Errorf("restamp mutated fields other than DGID: %+v", got)
	}
}

func TestRestampPassesThroughNonYSFDFrames(t *testing.T) {
	frame := []byte("not a ysf frame at all")
	out := restamp(frame, 5)
	if string(out) != string(frame) {
		t.Errorf("restamp altered a non-YSFD frame")
	}
}

func TestSlotForMatchesBySourceAddress(t *testing.T) {
	b := New(0, nil)
	dest := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 42100}
	b.AddSlot(30, "Cluster", []Destination{{RemoteDGID: 31, Addr: dest}})

	dgid, ok := b.slotFor(&net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 42100})
	if !ok || dgid != 30 {
		t.Errorf("slotFor matched (%d, %v), want (30, true)", dgid, ok)
	}

	if _, ok := b.slotFor(&net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: 1}); ok {
		t.Errorf("slotFor matched an unrelated address")
	}
}
