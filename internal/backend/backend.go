// Package backend defines the uniform contract every remote-network
// driver satisfies, per the gateway's component design: a backend is
// addressed by one or more DG-IDs and exposes exactly eight operations to
// the routing engine.
package backend

import "github.com/dgidgateway/dgidgateway/internal/modemask"

// Backend is the interface the routing engine touches. A single backend
// instance may serve one DG-ID (YSF, FCS, Parrot, YSF2DMR, YSF2NXDN,
// YSF2P25) or many (the shared IMRS backend, multiplexed by dgid).
type Backend interface {
	// Open acquires the backend's socket/resources. It returns false on
	// failure; the caller clears the owning slot(s).
	Open() bool
	// Close releases all resources. Safe to call at most once per
	// distinct backend instance (IMRS aliasing must be deduped by the
	// caller).
	Close()
	// Link and Unlink request/release a connection for dgid. The engine
	// always issues these in bursts of three to tolerate UDP loss; the
	// backend must treat repeated calls as idempotent.
	Link(dgid uint8)
	Unlink(dgid uint8)
	// Read returns 0 when no frame is ready for dgid.
	Read(dgid uint8, buf []byte) int
	// Write sends buf on behalf of dgid. Never blocks.
	Write(dgid uint8, buf []byte)
	// Clock drives keepalives, retransmits and internal timers. It must
	// never perform blocking I/O.
	Clock(ms int)
	// GetDesc returns a human-readable description of dgid's binding,
	// used only for logging.
	GetDesc(dgid uint8) string

	// Modes is the default mode-compatibility mask for this backend
	// kind; the DG-ID directory may override it per slot.
	Modes() modemask.ModeMask
	// Static reports whether this backend's DG-ID bindings bypass the
	// engine's runtime link/unlink traffic (linked for the process
	// lifetime instead).
	Static() bool
	// RFHangMS / NetHangMS are the default inactivity hang times; the
	// directory may override them per slot.
	RFHangMS() uint32
	NetHangMS() uint32
}

// Kind enumerates the backend kinds the directory builder knows how to
// construct.
type Kind int

const (
	KindYSF Kind = iota
	KindFCS
	KindIMRS
	KindParrot
	KindYSF2DMR
	KindYSF2NXDN
	KindYSF2P25
)

func (k Kind) String() string {
	switch k {
	case KindYSF:
		return "YSF"
	case KindFCS:
		return "FCS"
	case KindIMRS:
		return "IMRS"
	case KindParrot:
		return "Parrot"
	case KindYSF2DMR:
		return "YSF2DMR"
	case KindYSF2NXDN:
		return "YSF2NXDN"
	case KindYSF2P25:
		return "YSF2P25"
	default:
		return "Unknown"
	}
}

// DefaultModes returns the per-kind mode-compatibility mask described by
// the data model: YSF/FCS/IMRS/Parrot accept everything, the DMR/NXDN
// bridges accept only the two VD modes, and the P25 bridge accepts only
// voice-FR.
func DefaultModes(k Kind) modemask.ModeMask {
	switch k {
	case KindYSF2DMR, KindYSF2NXDN:
		return modemask.VDOnly
	case KindYSF2P25:
		return modemask.VoiceFR
	default:
		return modemask.All
	}
}
