// Package fcs implements the FCS reflector backend: a UDP client that
// sends periodic keepalives carrying station metadata (callsign, a
// numeric station id, and a Maidenhead locator) in addition to ordinary
// YSF-framed traffic.
package fcs

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"net"
	"strings"

	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/modemask"
	"github.com/dgidgateway/dgidgateway/internal/netio"
)

const (
	callsignLength   = 10
	frameLength      = 155
	pollInterval     = 5000 // ms between keepalive polls, matching the YSF reflector cadence
	readBufferLength = 200
)

// Peer is an FCS reflector client bound to a single DG-ID.
type Peer struct {
	dgid       uint8
	desc       string
	modes      modemask.ModeMask
	static     bool
	rfHangMS   uint32
	netHangMS  uint32
	callsign   string
	locator    string
	stationID  uint32
	socket     *netio.Socket
	dest       *net.UDPAddr
	readBuf    []byte
	pending    [][]byte
	sinceLast  int
	log        *logging.Logger
}

// Params bundles the per-slot configuration needed to build an FCS Peer.
type Params struct {
	DGID      uint8
	Desc      string
	Modes     modemask.ModeMask
	Static    bool
	RFHangMS  uint32
	NetHangMS uint32
	Callsign  string
	Locator   string
	Address   string
	Port      int
	Log       *logging.Logger
}

// New resolves Address:Port and returns an unopened Peer.
func New(p Params) (*Peer, error) {
	dest, err := netio.Resolve(p.Address, p.Port)
	if err != nil {
		return nil, err
	}
	return &Peer{
		dgid:      p.DGID,
		desc:      p.Desc,
		modes:     p.Modes,
		static:    p.Static,
		rfHangMS:  p.RFHangMS,
		netHangMS: p.NetHangMS,
		callsign:  padCallsign(p.Callsign),
		locator:   p.Locator,
		stationID: stationID(p.Desc),
		socket:    netio.NewServer(0),
		dest:      dest,
		readBuf:   make([]byte, readBufferLength),
		log:       p.Log,
	}, nil
}

func (p *Peer) Open() bool {
	if err := p.socket.Open(); err != nil {
		if p.log != nil {
			p.log.Warn("backend open failed", logging.String("desc", p.desc), logging.Err(err))
		}
		return false
	}
	return true
}

func (p *Peer) Close() { p.socket.Close() }

func (p *Peer) Link(dgid uint8) {
	if dgid == p.dgid {
		p.socket.Write(p.pollFrame(), p.dest)
	}
}

func (p *Peer) Unlink(dgid uint8) {
	if dgid == p.dgid {
		p.socket.Write(p.unlinkFrame(), p.dest)
	}
}

func (p *Peer) Read(dgid uint8, buf []byte) int {
	if dgid != p.dgid || len(p.pending) == 0 {
		return 0
	}
	frame := p.pending[0]
	p.pending = p.pending[1:]
	return copy(buf, frame)
}

func (p *Peer) Write(dgid uint8, buf []byte) {
	if dgid != p.dgid || len(buf) != frameLength {
		return
	}
	p.socket.Write(buf, p.dest)
}

// Clock issues the periodic station-metadata keepalive the FCS protocol
// expects (for static and non-static peers alike) and drains the socket.
func (p *Peer) Clock(ms int) {
	p.sinceLast += ms
	if p.sinceLast >= pollInterval {
		p.sinceLast = 0
		p.socket.Write(p.pollFrame(), p.dest)
	}
	for {
		n, from, err := p.socket.Read(p.readBuf)
		if err != nil || n <= 0 {
			return
		}
		if !from.IP.Equal(p.dest.IP) || from.Port != p.dest.Port {
			continue
		}
		frame := make([]byte, n)
		copy(frame, p.readBuf[:n])
		p.pending = append(p.pending, frame)
	}
}

func (p *Peer) GetDesc(dgid uint8) string {
	if dgid != p.dgid {
		return ""
	}
	return p.desc
}

func (p *Peer) Modes() modemask.ModeMask { return p.modes }
func (p *Peer) Static() bool             { return p.static }
func (p *Peer) RFHangMS() uint32         { return p.rfHangMS }
func (p *Peer) NetHangMS() uint32        { return p.netHangMS }

// pollFrame builds a keepalive carrying callsign, station id and locator:
// "FCSP" + callsign(10) + stationID(4, big-endian) + locator(6, padded).
func (p *Peer) pollFrame() []byte {
	frame := make([]byte, 4+callsignLength+4+6)
	copy(frame, "FCSP")
	copy(frame[4:], p.callsign)
	binary.BigEndian.PutUint32(frame[4+callsignLength:], p.stationID)
	loc := p.locator
	if len(loc) > 6 {
		loc = loc[:6]
	}
	copy(frame[4+callsignLength+4:], strings.ToUpper(loc))
	return frame
}

func (p *Peer) unlinkFrame() []byte {
	frame := make([]byte, 4+callsignLength)
	copy(frame, "FCSU")
	copy(frame[4:], p.callsign)
	return frame
}

func padCallsign(callsign string) string {
	if len(callsign) >= callsignLength {
		return callsign[:callsignLength]
	}
	return callsign + strings.Repeat(" ", callsignLength-len(callsign))
}

// stationID derives a 5-digit-ish numeric id from the slot description,
// the same FNV-hash-to-short-id trick the teacher's WiresX command
// handler uses to mint a repeater id from a human-readable name.
func stationID(desc string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(desc))
	return h.Sum32() % 100000
}

// String renders the peer for debug logging.
func (p *Peer) String() string {
	return fmt.Sprintf("fcs.Peer[dgid=%d %s -> %s]", p.dgid, p.desc, p.dest.String())
}
