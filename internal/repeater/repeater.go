// Package repeater implements the fixed link to the local MMDVM-class
// repeater (or any YSF-framed peer acting as one): the engine's single
// ingress/egress point for over-the-air frames, grounded on the
// gateway's own YSF network client/server split but simplified to the
// repeater's role of a single bound socket talking to one fixed peer.
package repeater

import (
	"fmt"
	"net"

	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/netio"
)

const readBufferLength = 200

// Link is the repeater-facing socket: bound locally, talking to one
// fixed remote address.
type Link struct {
	socket  *netio.Socket
	dest    *net.UDPAddr
	readBuf []byte
	log     *logging.Logger
}

// New resolves the repeater's address and binds a local socket.
func New(localAddress string, localPort int, repeaterAddress string, repeaterPort int, log *logging.Logger) (*Link, error) {
	dest, err := netio.Resolve(repeaterAddress, repeaterPort)
	if err != nil {
		return nil, fmt.Errorf("repeater: %w", err)
	}

	var socket *netio.Socket
	if localAddress != "" {
		socket, err = netio.NewBound(localAddress, localPort)
		if err != nil {
			return nil, fmt.Errorf("repeater: %w", err)
		}
	} else {
		socket = netio.NewServer(localPort)
	}

	return &Link{
		socket:  socket,
		dest:    dest,
		readBuf: make([]byte, readBufferLength),
		log:     log,
	}, nil
}

// Open binds the local socket.
func (l *Link) Open() bool {
	if err := l.socket.Open(); err != nil {
		if l.log != nil {
			l.log.Warn("repeater: open failed", logging.Err(err))
		}
		return false
	}
	return true
}

// Read returns the next pending datagram from the repeater, or nil if
// none is ready. Frames from any source other than the configured
// repeater address are discarded.
func (l *Link) Read() []byte {
	n, addr, err := l.socket.Read(l.readBuf)
	if err != nil {
		if l.log != nil {
			l.log.Warn("repeater: read error", logging.Err(err))
		}
		return nil
	}
	if n <= 0 {
		return nil
	}
	if addr == nil || !addr.IP.Equal(l.dest.IP) {
		return nil
	}
	out := make([]byte, n)
	copy(out, l.readBuf[:n])
	return out
}

// Write sends buf to the repeater.
func (l *Link) Write(buf []byte) {
	if err := l.socket.Write(buf, l.dest); err != nil && l.log != nil {
		l.log.Warn("repeater: write failed", logging.Err(err))
	}
}

// Clock is a no-op placeholder kept for symmetry with the backend
// contract; the repeater link needs no periodic keepalive of its own.
func (l *Link) Clock(ms int) { _ = ms }

// Close releases the local socket.
func (l *Link) Close() {
	l.socket.Close()
}
