package modemask

import "testing"

func TestAllows(t *testing.T) {
	tests := []struct {
		name string
		mask ModeMask
		dt   uint8
		want bool
	}{
		{"all allows VD1", All, 0, true},
		{"all allows data FR", All, 1, true},
		{"all allows VD2", All, 2, true},
		{"all allows voice FR", All, 3, true},
		{"vd only allows VD1", VDOnly, 0, true},
		{"vd only allows VD2", VDOnly, 2, true},
		{"vd only rejects data FR", VDOnly, 1, false},
		{"vd only rejects voice FR", VDOnly, 3, false},
		{"voice FR only rejects VD1", VoiceFR, 0, false},
		{"voice FR only allows voice FR", VoiceFR, 3, true},
		{"unknown dt code rejected", All, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mask.Allows(tt.dt); got != tt.want {
				t.Errorf("Allows(%d) = %v, want %v", tt.dt, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := All.String(); got != "all" {
		t.Errorf("All.String() = %q, want %q", got, "all")
	}
	if got := ModeMask(0).String(); got != "none" {
		t.Errorf("zero mask String() = %q, want %q", got, "none")
	}
	if got := VDOnly.String(); got != "VD1|VD2" {
		t.Errorf("VDOnly.String() = %q, want %q", got, "VD1|VD2")
	}
}
