// Package modemask defines the YSF data-type bitmask used to filter which
// frame types a DG-ID binding accepts.
package modemask

// ModeMask is a bitset over the four YSF data-type codes.
type ModeMask uint8

const (
	VDMode1 ModeMask = 0x01
	VDMode2 ModeMask = 0x02
	VoiceFR ModeMask = 0x04
	DataFR  ModeMask = 0x08

	All ModeMask = VDMode1 | VDMode2 | VoiceFR | DataFR
	// VDOnly is the mask shared by the YSF2DMR and YSF2NXDN bridges: both
	// VD modes, no straight voice-FR or data-FR traffic.
	VDOnly ModeMask = VDMode1 | VDMode2
)

// Allows reports whether dt (a wire DT code, 0..3) is permitted by the
// mask.
func (m ModeMask) Allows(dt uint8) bool {
	bit, ok := bitForDT(dt)
	if !ok {
		return false
	}
	return m&bit != 0
}

// bitForDT maps a FICH wire DT code (0=VD mode1, 1=data FR, 2=VD mode2,
// 3=voice FR — see internal/fich) onto the corresponding mask bit. The
// wire codes and the mask bits are deliberately distinct numbering
// schemes; this is the only place they are reconciled.
func bitForDT(dt uint8) (ModeMask, bool) {
	switch dt {
	case 0:
		return VDMode1, true
	case 1:
		return DataFR, true
	case 2:
		return VDMode2, true
	case 3:
		return VoiceFR, true
	default:
		return 0, false
	}
}

// String renders the mask for logging.
func (m ModeMask) String() string {
	if m == All {
		return "all"
	}
	s := ""
	if m&VDMode1 != 0 {
		s += "VD1"
	}
	if m&VDMode2 != 0 {
		if s != "" {
			s += "|"
		}
		s += "VD2"
	}
	if m&VoiceFR != 0 {
		if s != "" {
			s += "|"
		}
		s += "VOICE"
	}
	if m&DataFR != 0 {
		if s != "" {
			s += "|"
		}
		s += "DATA"
	}
	if s == "" {
		return "none"
	}
	return s
}
