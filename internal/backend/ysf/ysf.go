// Package ysf implements the YSF-framed UDP peer backend. It serves a
// single DG-ID and is reused, unmodified beyond its mode mask and
// description, as the driver for native YSF reflectors and for the
// Parrot/YSF2DMR/YSF2NXDN/YSF2P25 sibling daemons (every one of them is,
// from the wire's perspective, a plain YSF UDP peer).
package ysf

import (
	"fmt"
	"net"
	"strings"

	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/modemask"
	"github.com/dgidgateway/dgidgateway/internal/netio"
)

const (
	callsignLength     = 10
	frameLength        = 155
	pollMessageLength  = 14
	unlinkMessageLength = 14
	readBufferLength   = 200
)

// Peer is a YSF-framed UDP client bound to exactly one DG-ID.
type Peer struct {
	dgid        uint8
	desc        string
	modes       modemask.ModeMask
	static      bool
	rfHangMS    uint32
	netHangMS   uint32
	callsign    string
	socket      *netio.Socket
	dest        *net.UDPAddr
	pollMsg     []byte
	unlinkMsg   []byte
	readBuf     []byte
	pending     [][]byte
	log         *logging.Logger
}

// Params bundles the per-slot configuration the DG-ID directory builder
// supplies when constructing a Peer.
type Params struct {
	DGID      uint8
	Desc      string
	Modes     modemask.ModeMask
	Static    bool
	RFHangMS  uint32
	NetHangMS uint32
	Callsign  string
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
	peer := &Peer{
		dgid:      p.DGID,
		desc:      p.Desc,
		modes:     p.Modes,
		static:    p.Static,
		rfHangMS:  p.RFHangMS,
		netHangMS: p.NetHangMS,
		callsign:  padCallsign(p.Callsign),
		socket:    netio.NewServer(0),
		dest:      dest,
		readBuf:   make([]byte, readBufferLength),
		log:       p.Log,
	}
	peer.pollMsg = buildTaggedMessage("YSFP", peer.callsign, pollMessageLength)
	peer.unlinkMsg = buildTaggedMessage("YSFU", peer.callsign, unlinkMessageLength)
	return peer, nil
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
	if dgid != p.dgid {
		return
	}
	p.socket.Write(p.pollMsg, p.dest)
}

func (p *Peer) Unlink(dgid uint8) {
	if dgid != p.dgid {
		return
	}
	p.socket.Write(p.unlinkMsg, p.dest)
}

func (p *Peer) Read(dgid uint8, buf []byte) int {
	if dgid != p.dgid || len(p.pending) == 0 {
		return 0
	}
	frame := p.pending[0]
	p.pending = p.pending[1:]
	n := copy(buf, frame)
	return n
}

func (p *Peer) Write(dgid uint8, buf []byte) {
	if dgid != p.dgid || len(buf) != frameLength {
		return
	}
	p.socket.Write(buf, p.dest)
}

func (p *Peer) Clock(ms int) {
	for {
		n, from, err := p.socket.Read(p.readBuf)
		if err != nil || n <= 0 {
			return
		}
		if from.IP.Equal(p.dest.IP) && from.Port != p.dest.Port {
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

func padCallsign(callsign string) string {
	if len(callsign) >= callsignLength {
		return callsign[:callsignLength]
	}
	return callsign + strings.Repeat(" ", callsignLength-len(callsign))
}

func buildTaggedMessage(tag, callsign string, length int) []byte {
	msg := make([]byte, length)
	copy(msg, tag)
	copy(msg[4:], callsign)
	return msg
}

var _ fmt.Stringer = (*Peer)(nil)

// String renders the peer for debug logging.
func (p *Peer) String() string {
	return fmt.Sprintf("ysf.Peer[dgid=%d %s -> %s]", p.dgid, p.desc, p.dest.String())
}
