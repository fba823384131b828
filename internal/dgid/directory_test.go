package dgid

import (
	"os"
	"testing"
	"time"

	"github.com/dgidgateway/dgidgateway/internal/backend"
	"github.com/dgidgateway/dgidgateway/internal/config"
	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/reflectors"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New(logging.Config{})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return log
}

func TestBuildInvalidSlotKey(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"not-a-number": {Type: "YSF", Address: "127.0.0.1", Port: 42020},
	}
	if _, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t)); err == nil {
		t.Fatalf("expected error for malformed slot key")
	}
}

func TestBuildSkipsUnknownType(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"10": {Type: "BOGUS", Address: "127.0.0.1", Port: 42020},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Slots[10] != nil {
		t.Errorf("expected slot 10 to remain unbound for an unknown type")
	}
}

func TestBuildYSFSlot(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"10": {Type: "YSF", Name: "Parrot", Address: "127.0.0.1", Port: 42020, Static: true, RFHangSeconds: 2, NetHangSeconds: 3},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	binding := table.Slots[10]
	if binding == nil {
		t.Fatalf("expected slot 10 bound")
	}
	if binding.Kind != backend.KindYSF {
		t.Errorf("Kind = %v, want KindYSF", binding.Kind)
	}
	if !binding.Static {
		t.Errorf("expected static binding")
	}
	if binding.RFHangMS != 2000 || binding.NetHangMS != 3000 {
		t.Errorf("hang times = %d/%d, want 2000/3000", binding.RFHangMS, binding.NetHangMS)
	}
}

func TestBuildYSFSlotResolvesByReflectorName(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"10": {Type: "YSF", Name: "America-Link"},
	}

	dir := t.TempDir()
	hostsPath := dir + "/YSFHosts.txt"
	if err := os.WriteFile(hostsPath, []byte("America-Link;127.0.0.1;42020\n"), 0644); err != nil {
		t.Fatalf("write hosts file: %v", err)
	}
	refl := reflectors.New(hostsPath, "", time.Hour, nil)
	if err := refl.LoadFile(); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, refl, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Slots[10] == nil {
		t.Fatalf("expected slot 10 bound via reflector name resolution")
	}
}

func TestBuildYSFSlotMissingReflectorNameSkipsSlot(t *testing.T) {
	refl := reflectors.New("", "", time.Hour, nil)
	entries := map[string]config.DGIdEntry{
		"10": {Type: "YSF", Name: "Nonexistent-Link"},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, refl, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Slots[10] != nil {
		t.Errorf("expected slot 10 to remain unbound when the reflector name can't be resolved")
	}
}

func TestBuildIMRSAliasing(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"20": {Type: "IMRS", Name: "Cluster", LocalPort: 0, Destinations: "21:127.0.0.1:42100"},
		"21": {Type: "IMRS", Name: "Cluster", LocalPort: 0, Destinations: "20:127.0.0.1:42100"},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b20, b21 := table.Slots[20], table.Slots[21]
	if b20 == nil || b21 == nil {
		t.Fatalf("expected both IMRS slots bound")
	}
	if b20.Backend != b21.Backend {
		t.Errorf("expected IMRS slots to alias the same backend instance")
	}
	if table.IMRSBackend() != b20.Backend {
		t.Errorf("Table.IMRSBackend() did not return the shared instance")
	}
}

func TestBuildIMRSSlotIsAlwaysStatic(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"20": {Type: "IMRS", Name: "Cluster", Static: false, Destinations: "21:127.0.0.1:42100"},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b20 := table.Slots[20]
	if b20 == nil {
		t.Fatalf("expected slot 20 bound")
	}
	if !b20.Static {
		t.Errorf("IMRS binding must be forced static regardless of config, got Static=%v", b20.Static)
	}
}

func TestBuildBadIMRSDestinationSkipsSlot(t *testing.T) {
	entries := map[string]config.DGIdEntry{
		"20": {Type: "IMRS", Name: "Cluster", Destinations: "malformed"},
	}
	table, err := Build(entries, config.Identity{Callsign: "W1AW"}, nil, testLogger(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Slots[20] != nil {
		t.Errorf("expected slot 20 to remain unbound for a malformed destination list")
	}
}
