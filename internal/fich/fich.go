// Package fich implements the YSF Frame Information Channel codec: the
// FEC-protected control header carried at a fixed offset in every YSF
// frame, from which the gateway reads FI/DT/FN/FT/DG-ID and into which it
// rewrites DG-ID before forwarding a frame.
//
// The codeword layout packs three Golay(20,8) codewords (grounded on the
// teacher's correction.Golay2087Encode/Decode) into the 11-byte FICH
// region; the trailing two bytes are reserved and always zeroed.
package fich

import "github.com/dgidgateway/dgidgateway/internal/correction"

// Length is the size in bytes of the FICH region within a YSF frame.
const Length = 11

// Wire DT codes, matching the YSF protocol's own numbering (distinct from
// the ModeMask bit assignments in internal/modemask).
const (
	DTVDMode1 uint8 = 0
	DTDataFR  uint8 = 1
	DTVDMode2 uint8 = 2
	DTVoiceFR uint8 = 3
)

// Frame indicator values.
const (
	FIHeader         uint8 = 0
	FICommunications uint8 = 1
	FITerminator     uint8 = 2
)

// Fich is the decoded view of the control header. Only FI/DT/FN/FT/DGID
// are read by the routing engine; only DGID is ever mutated.
type Fich struct {
	FI   uint8
	DT   uint8
	FN   uint8
	FT   uint8
	CM   uint8
	BN   uint8
	BT   uint8
	MR   uint8
	DGID uint8
}

// Decode parses an 11-byte FICH region. It returns ok=false if any of the
// three Golay codewords carries an uncorrectable error pattern, in which
// case the caller must drop the enclosing frame silently.
func Decode(buf [Length]byte) (Fich, bool) {
	a := [3]byte{buf[0], buf[1], buf[2]}
	b := [3]byte{buf[3], buf[4], buf[5]}
	c := [3]byte{buf[6], buf[7], buf[8]}

	if correction.Golay2087Decode(a[:]) == 0xFF {
		return Fich{}, false
	}
	if correction.Golay2087Decode(b[:]) == 0xFF {
		return Fich{}, false
	}
	if correction.Golay2087Decode(c[:]) == 0xFF {
		return Fich{}, false
	}

	header := a[0]
	dgidByte := b[0]
	tail := c[0]

	f := Fich{
		FI:   (header >> 6) & 0x03,
		DT:   (header >> 4) & 0x03,
		FN:   (header >> 1) & 0x07,
		FT:   header & 0x01,
		DGID: dgidByte & 0x7F,
		CM:   (tail >> 6) & 0x03,
		BN:   (tail >> 3) & 0x07,
		BT:   (tail >> 2) & 0x01,
		MR:   tail & 0x03,
	}
	return f, true
}

// Encode packs fich back into an 11-byte FICH region, recomputing parity
// for all three codewords. The two trailing reserved bytes are zeroed.
func Encode(f Fich, buf *[Length]byte) {
	header := (f.FI&0x03)<<6 | (f.DT&0x03)<<4 | (f.FN&0x07)<<1 | (f.FT & 0x01)
	dgidByte := f.DGID & 0x7F
	tail := (f.CM&0x03)<<6 | (f.BN&0x07)<<3 | (f.BT&0x01)<<2 | (f.MR & 0x03)

	a := [3]byte{header, 0, 0}
	b := [3]byte{dgidByte, 0, 0}
	c := [3]byte{tail, 0, 0}

	correction.Golay2087Encode(a[:])
	correction.Golay2087Encode(b[:])
	correction.Golay2087Encode(c[:])

	buf[0], buf[1], buf[2] = a[0], a[1], a[2]
	buf[3], buf[4], buf[5] = b[0], b[1], b[2]
	buf[6], buf[7], buf[8] = c[0], c[1], c[2]
	buf[9], buf[10] = 0, 0
}

// SetDGID mutates only the DG-ID field, matching the codec's contract of
// never touching any other field on a rewrite.
func SetDGID(f *Fich, dgid uint8) {
	f.DGID = dgid & 0x7F
}
