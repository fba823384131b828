// Package imrs implements the single shared IMRS backend: one UDP socket
// multiplexing many DG-IDs, each fanned out to its own list of
// destination peers.
package imrs

import (
	"net"

	"github.com/dgidgateway/dgidgateway/internal/fich"
	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/modemask"
	"github.com/dgidgateway/dgidgateway/internal/netio"
)

const readBufferLength = 200

// Destination is one fan-out peer for a DG-ID: the remote side's own
// DG-ID expectation plus its socket address.
type Destination struct {
	RemoteDGID uint8
	Addr       *net.UDPAddr
}

type slot struct {
	desc    string
	dests   []Destination
	pending [][]byte
}

// Backend is the shared IMRS driver. A single instance is constructed by
// the DG-ID directory builder and aliased into every IMRS-typed slot; the
// engine must dedupe Close() across those aliases.
type Backend struct {
	socket *netio.Socket
	port   int
	slots  map[uint8]*slot
	log    *logging.Logger
}

// New returns an unopened Backend bound to localPort.
func New(localPort int, log *logging.Logger) *Backend {
	return &Backend{
		socket: netio.NewServer(localPort),
		port:   localPort,
		slots:  make(map[uint8]*slot),
		log:    log,
	}
}

// AddSlot registers a DG-ID with its fan-out destination list. Must be
// called before Open.
func (b *Backend) AddSlot(dgid uint8, desc string, dests []Destination) {
	b.slots[dgid] = &slot{desc: desc, dests: dests}
}

func (b *Backend) Open() bool {
	if err := b.socket.Open(); err != nil {
		if b.log != nil {
			b.log.Warn("IMRS backend open failed", logging.Err(err))
		}
		return false
	}
	return true
}

func (b *Backend) Close() { b.socket.Close() }

func (b *Backend) Link(dgid uint8) {
	s, ok := b.slots[dgid]
	if !ok {
		return
	}
	for _, d := range s.dests {
		b.socket.Write(pollTag(), d.Addr)
	}
}

func (b *Backend) Unlink(dgid uint8) {
	s, ok := b.slots[dgid]
	if !ok {
		return
	}
	for _, d := range s.dests {
		b.socket.Write(unlinkTag(), d.Addr)
	}
}

func (b *Backend) Read(dgid uint8, buf []byte) int {
	s, ok := b.slots[dgid]
	if !ok || len(s.pending) == 0 {
		return 0
	}
	frame := s.pending[0]
	s.pending = s.pending[1:]
	return copy(buf, frame)
}

// Write fans buf out to every destination registered for dgid, restamping
// the FICH DG-ID to each destination's own remote DG-ID expectation.
func (b *Backend) Write(dgid uint8, buf []byte) {
	s, ok := b.slots[dgid]
	if !ok {
		return
	}
	for _, d := range s.dests {
		b.socket.Write(restamp(buf, d.RemoteDGID), d.Addr)
	}
}

// Clock drains the shared socket once per tick and routes each datagram
// to the slot whose destination list contains the sender.
func (b *Backend) Clock(ms int) {
	buf := make([]byte, readBufferLength)
	for {
		n, from, err := b.socket.Read(buf)
		if err != nil || n <= 0 {
			return
		}
		dgid, ok := b.slotFor(from)
		if !ok {
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		s := b.slots[dgid]
		s.pending = append(s.pending, frame)
	}
}

func (b *Backend) GetDesc(dgid uint8) string {
	if s, ok := b.slots[dgid]; ok {
		return s.desc
	}
	return ""
}

func (b *Backend) Modes() modemask.ModeMask { return modemask.All }
func (b *Backend) Static() bool             { return true }
func (b *Backend) RFHangMS() uint32         { return 0 }
func (b *Backend) NetHangMS() uint32        { return 0 }

func (b *Backend) slotFor(from *net.UDPAddr) (uint8, bool) {
	for dgid, s := range b.slots {
		for _, d := range s.dests {
			if d.Addr.IP.Equal(from.IP) && d.Addr.Port == from.Port {
				return dgid, true
			}
		}
	}
	return 0, false
}

func restamp(buf []byte, remoteDGID uint8) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	if len(out) < 46 || string(out[0:4]) != "YSFD" {
		return out
	}
	var region [fich.Length]byte
	copy(region[:], out[35:35+fich.Length])
	f, ok := fich.Decode(region)
	if !ok {
		return out
	}
	fich.SetDGID(&f, remoteDGID)
	fich.Encode(f, &region)
	copy(out[35:35+fich.Length], region[:])
	return out
}

func pollTag() []byte   { return []byte("YSFP") }
func unlinkTag() []byte { return []byte("YSFU") }
